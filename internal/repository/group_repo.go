package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/umass-lrc/database/internal/model"
)

// GroupRepository 角色组数据访问接口
type GroupRepository interface {
	List(ctx context.Context) ([]model.Group, error)
	GetByName(ctx context.Context, name string) (*model.Group, error)
	GetByNames(ctx context.Context, names []string) ([]model.Group, error)
	// EnsureExists 按名称补齐缺失的角色组（已存在的保持不变）
	EnsureExists(ctx context.Context, names []string) error
}

type groupRepo struct {
	db *gorm.DB
}

// NewGroupRepo 创建 GroupRepository 实例
func NewGroupRepo(db *gorm.DB) GroupRepository {
	return &groupRepo{db: db}
}

func (r *groupRepo) List(ctx context.Context) ([]model.Group, error) {
	var groups []model.Group
	err := r.db.WithContext(ctx).Order("name ASC").Find(&groups).Error
	return groups, err
}

func (r *groupRepo) GetByName(ctx context.Context, name string) (*model.Group, error) {
	var g model.Group
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *groupRepo) GetByNames(ctx context.Context, names []string) ([]model.Group, error) {
	var groups []model.Group
	if len(names) == 0 {
		return groups, nil
	}
	err := r.db.WithContext(ctx).Where("name IN ?", names).Order("name ASC").Find(&groups).Error
	return groups, err
}

func (r *groupRepo) EnsureExists(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	groups := make([]model.Group, 0, len(names))
	for _, n := range names {
		groups = append(groups, model.Group{Name: n})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&groups).Error
}
