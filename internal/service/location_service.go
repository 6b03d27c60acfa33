package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/umass-lrc/database/internal/dto"
	"github.com/umass-lrc/database/internal/form"
	"github.com/umass-lrc/database/internal/model"
	"github.com/umass-lrc/database/internal/repository"
	pkgerrors "github.com/umass-lrc/database/pkg/errors"
)

// ── 地点模块业务错误 ──

var (
	ErrLocationNotFound = errors.New("地点不存在")
)

// LocationService 地点业务接口
type LocationService interface {
	Create(ctx context.Context, in *form.LocationInput, callerID string) (*dto.LocationResponse, error)
	GetByID(ctx context.Context, id string) (*dto.LocationResponse, error)
	List(ctx context.Context, includeInactive bool) ([]dto.LocationResponse, error)
	EditValues(ctx context.Context, id string) (map[string]string, error)
	Update(ctx context.Context, id string, in *form.LocationInput, callerID string) (*dto.LocationResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type locationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewLocationService 创建 LocationService 实例
func NewLocationService(repo *repository.Repository, logger *zap.Logger) LocationService {
	return &locationService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *locationService) Create(ctx context.Context, in *form.LocationInput, callerID string) (*dto.LocationResponse, error) {
	loc := &model.Location{}
	in.Apply(loc)
	loc.CreatedBy = &callerID
	loc.UpdatedBy = &callerID

	if err := s.repo.Location.Create(ctx, loc); err != nil {
		s.logger.Error("创建地点失败", zap.Error(err))
		return nil, pkgerrors.Classify(err)
	}

	return toLocationResponse(loc), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *locationService) GetByID(ctx context.Context, id string) (*dto.LocationResponse, error) {
	loc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toLocationResponse(loc), nil
}

// ────────────────────── List ──────────────────────

func (s *locationService) List(ctx context.Context, includeInactive bool) ([]dto.LocationResponse, error) {
	locations, err := s.repo.Location.List(ctx, includeInactive)
	if err != nil {
		s.logger.Error("列出地点失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.LocationResponse, 0, len(locations))
	for i := range locations {
		result = append(result, *toLocationResponse(&locations[i]))
	}

	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *locationService) EditValues(ctx context.Context, id string) (map[string]string, error) {
	loc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return form.LocationValues(loc), nil
}

func (s *locationService) Update(ctx context.Context, id string, in *form.LocationInput, callerID string) (*dto.LocationResponse, error) {
	loc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	in.Apply(loc)
	loc.UpdatedBy = &callerID

	if err := s.repo.Location.Update(ctx, loc); err != nil {
		s.logger.Error("更新地点失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Classify(err)
	}

	return toLocationResponse(loc), nil
}

// ────────────────────── Delete ──────────────────────

func (s *locationService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Location.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除地点失败", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}

// ── 内部辅助方法 ──

func (s *locationService) find(ctx context.Context, id string) (*model.Location, error) {
	loc, err := s.repo.Location.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLocationNotFound
		}
		s.logger.Error("查询地点失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return loc, nil
}
