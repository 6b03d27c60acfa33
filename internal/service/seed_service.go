package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/umass-lrc/database/internal/model"
	"github.com/umass-lrc/database/internal/repository"
)

// SeedData 初始化数据文件结构
type SeedData struct {
	Groups    []string       `yaml:"groups"    validate:"dive,required,max=150"`
	Locations []SeedLocation `yaml:"locations" validate:"dive"`
	Courses   []SeedCourse   `yaml:"courses"   validate:"dive"`
	Hardware  []SeedHardware `yaml:"hardware"  validate:"dive"`
}

// SeedLocation 地点
type SeedLocation struct {
	Name      string `yaml:"name"       validate:"required,max=100"`
	Address   string `yaml:"address"    validate:"max=200"`
	IsDefault bool   `yaml:"is_default"`
}

// SeedCourse 课程
type SeedCourse struct {
	Department string `yaml:"department" validate:"required,max=20"`
	Number     string `yaml:"number"     validate:"required,max=10"`
	Name       string `yaml:"name"       validate:"required,max=200"`
}

// SeedHardware 设备；available 缺省为可借
type SeedHardware struct {
	Name      string `yaml:"name"      validate:"required,max=100"`
	Available *bool  `yaml:"available"`
}

// SeedResult 各类数据新增条数
type SeedResult struct {
	Locations int
	Courses   int
	Hardware  int
}

var seedValidate = validator.New()

// ParseSeedFile 解析并校验 YAML 数据文件
func ParseSeedFile(r io.Reader) (*SeedData, error) {
	var data SeedData
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return &data, nil
		}
		return nil, fmt.Errorf("解析数据文件失败: %w", err)
	}
	if err := seedValidate.Struct(&data); err != nil {
		return nil, fmt.Errorf("数据文件校验失败: %w", err)
	}
	return &data, nil
}

// SeedService 写入初始化数据（可重复执行，已存在的记录跳过）
type SeedService interface {
	Seed(ctx context.Context, data *SeedData) (*SeedResult, error)
}

type seedService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSeedService 创建 SeedService 实例
func NewSeedService(repo *repository.Repository, logger *zap.Logger) SeedService {
	return &seedService{repo: repo, logger: logger}
}

func (s *seedService) Seed(ctx context.Context, data *SeedData) (*SeedResult, error) {
	result := &SeedResult{}

	groups := append([]string{}, model.DefaultGroups...)
	groups = append(groups, data.Groups...)

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Group.EnsureExists(ctx, groups); err != nil {
			return fmt.Errorf("写入角色组失败: %w", err)
		}

		// 地点按名称去重
		existingLocations, err := tx.Location.List(ctx, true)
		if err != nil {
			return err
		}
		locationNames := make(map[string]bool, len(existingLocations))
		for _, l := range existingLocations {
			locationNames[strings.ToLower(l.Name)] = true
		}
		for _, l := range data.Locations {
			if locationNames[strings.ToLower(l.Name)] {
				continue
			}
			loc := &model.Location{Name: l.Name, Address: l.Address, IsDefault: l.IsDefault, IsActive: true}
			if err := tx.Location.Create(ctx, loc); err != nil {
				return fmt.Errorf("写入地点 %s 失败: %w", l.Name, err)
			}
			locationNames[strings.ToLower(l.Name)] = true
			result.Locations++
		}

		// 课程按院系+课号去重
		for _, c := range data.Courses {
			dept, num := strings.ToUpper(c.Department), strings.ToUpper(c.Number)
			_, err := tx.Course.GetByCode(ctx, dept, num)
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := tx.Course.Create(ctx, &model.Course{Department: dept, Number: num, Name: c.Name}); err != nil {
				return fmt.Errorf("写入课程 %s %s 失败: %w", dept, num, err)
			}
			result.Courses++
		}

		// 设备按名称去重
		existingHardware, err := tx.Hardware.List(ctx)
		if err != nil {
			return err
		}
		hardwareNames := make(map[string]bool, len(existingHardware))
		for _, h := range existingHardware {
			hardwareNames[h.Name] = true
		}
		for _, h := range data.Hardware {
			if hardwareNames[h.Name] {
				continue
			}
			available := h.Available == nil || *h.Available
			if err := tx.Hardware.Create(ctx, &model.Hardware{Name: h.Name, IsAvailable: available}); err != nil {
				return fmt.Errorf("写入设备 %s 失败: %w", h.Name, err)
			}
			hardwareNames[h.Name] = true
			result.Hardware++
		}
		return nil
	})
	if err != nil {
		s.logger.Error("写入初始化数据失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("初始化数据写入完成",
		zap.Int("locations", result.Locations),
		zap.Int("courses", result.Courses),
		zap.Int("hardware", result.Hardware),
	)
	return result, nil
}
