package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/umass-lrc/database/internal/dto"
	"github.com/umass-lrc/database/internal/repository"
)

// ChoiceKind 表单需要的可选项类别，可按位组合
type ChoiceKind int

const (
	ChoiceGroups ChoiceKind = 1 << iota
	ChoiceUsers
	ChoiceHardware
	ChoiceCourses
	ChoiceLocations
)

// ChoiceService 加载表单下拉选项
type ChoiceService interface {
	Load(ctx context.Context, kinds ChoiceKind) (*dto.FormChoices, error)
}

type choiceService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewChoiceService 创建 ChoiceService 实例
func NewChoiceService(repo *repository.Repository, logger *zap.Logger) ChoiceService {
	return &choiceService{repo: repo, logger: logger}
}

func (s *choiceService) Load(ctx context.Context, kinds ChoiceKind) (*dto.FormChoices, error) {
	out := &dto.FormChoices{}

	if kinds&ChoiceGroups != 0 {
		groups, err := s.repo.Group.List(ctx)
		if err != nil {
			s.logger.Error("加载角色组选项失败", zap.Error(err))
			return nil, err
		}
		for _, g := range groups {
			out.Groups = append(out.Groups, dto.Choice{Value: g.Name, Label: g.Name})
		}
	}

	if kinds&ChoiceUsers != 0 {
		users, err := s.repo.User.ListActive(ctx)
		if err != nil {
			s.logger.Error("加载用户选项失败", zap.Error(err))
			return nil, err
		}
		for i := range users {
			u := &users[i]
			out.Users = append(out.Users, dto.Choice{Value: u.UserID, Label: u.FullName() + " (" + u.Username + ")"})
		}
	}

	if kinds&ChoiceHardware != 0 {
		items, err := s.repo.Hardware.List(ctx)
		if err != nil {
			s.logger.Error("加载设备选项失败", zap.Error(err))
			return nil, err
		}
		for _, h := range items {
			out.Hardware = append(out.Hardware, dto.Choice{Value: h.HardwareID, Label: h.Name})
		}
	}

	if kinds&ChoiceCourses != 0 {
		courses, err := s.repo.Course.List(ctx)
		if err != nil {
			s.logger.Error("加载课程选项失败", zap.Error(err))
			return nil, err
		}
		for i := range courses {
			c := &courses[i]
			out.Courses = append(out.Courses, dto.Choice{Value: c.CourseID, Label: c.Code() + " " + c.Name})
		}
	}

	if kinds&ChoiceLocations != 0 {
		locations, err := s.repo.Location.List(ctx, false)
		if err != nil {
			s.logger.Error("加载地点选项失败", zap.Error(err))
			return nil, err
		}
		for _, l := range locations {
			out.Locations = append(out.Locations, dto.Choice{Value: l.LocationID, Label: l.Name})
		}
	}

	return out, nil
}
