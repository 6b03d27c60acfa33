package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/umass-lrc/database/internal/model"
)

// ShiftFilters 值班查询条件（零值表示不过滤）
type ShiftFilters struct {
	PersonID string
	From     *time.Time
	To       *time.Time
}

// ShiftRepository 值班数据访问接口
type ShiftRepository interface {
	Create(ctx context.Context, s *model.Shift) error
	CreateBatch(ctx context.Context, shifts []model.Shift) error
	GetByID(ctx context.Context, id string) (*model.Shift, error)
	List(ctx context.Context, f ShiftFilters) ([]model.Shift, error)
	Update(ctx context.Context, s *model.Shift) error
}

type shiftRepo struct {
	db *gorm.DB
}

// NewShiftRepo 创建 ShiftRepository 实例
func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) Create(ctx context.Context, s *model.Shift) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error
}

func (r *shiftRepo) CreateBatch(ctx context.Context, shifts []model.Shift) error {
	if len(shifts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(shifts, 100).Error
}

func (r *shiftRepo) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	var s model.Shift
	err := r.db.WithContext(ctx).
		Preload("Person").
		Preload("Location").
		Where("shift_id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *shiftRepo) List(ctx context.Context, f ShiftFilters) ([]model.Shift, error) {
	var shifts []model.Shift
	db := r.db.WithContext(ctx).Preload("Person").Preload("Location")

	if f.PersonID != "" {
		db = db.Where("person_id = ?", f.PersonID)
	}
	if f.From != nil {
		db = db.Where("start_time >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("start_time < ?", *f.To)
	}

	err := db.Order("start_time ASC").Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) Update(ctx context.Context, s *model.Shift) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(s).Error
}

// ShiftChangeRequestRepository 换班申请数据访问接口
type ShiftChangeRequestRepository interface {
	Create(ctx context.Context, req *model.ShiftChangeRequest) error
	GetByID(ctx context.Context, id string) (*model.ShiftChangeRequest, error)
	// ListByApproved 按审批状态列出；待审批按提交时间升序，已审批按审批时间倒序
	ListByApproved(ctx context.Context, approved bool) ([]model.ShiftChangeRequest, error)
	// MarkApproved 仅当申请仍为待审批时写入审批信息，返回是否发生了状态变更
	MarkApproved(ctx context.Context, id, approverID string, at time.Time) (bool, error)
	CountPending(ctx context.Context) (int64, error)
}

type shiftChangeRequestRepo struct {
	db *gorm.DB
}

// NewShiftChangeRequestRepo 创建 ShiftChangeRequestRepository 实例
func NewShiftChangeRequestRepo(db *gorm.DB) ShiftChangeRequestRepository {
	return &shiftChangeRequestRepo{db: db}
}

func (r *shiftChangeRequestRepo) Create(ctx context.Context, req *model.ShiftChangeRequest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error
}

func (r *shiftChangeRequestRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Shift").
		Preload("Shift.Person").
		Preload("Shift.Location").
		Preload("RequestedBy").
		Preload("NewPerson").
		Preload("NewLocation").
		Preload("ApprovedBy")
}

func (r *shiftChangeRequestRepo) GetByID(ctx context.Context, id string) (*model.ShiftChangeRequest, error) {
	var req model.ShiftChangeRequest
	err := r.preloaded(ctx).
		Where("shift_change_request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *shiftChangeRequestRepo) ListByApproved(ctx context.Context, approved bool) ([]model.ShiftChangeRequest, error) {
	var reqs []model.ShiftChangeRequest
	order := "created_at ASC"
	if approved {
		order = "approved_on DESC"
	}
	err := r.preloaded(ctx).
		Where("approved = ?", approved).
		Order(order).
		Find(&reqs).Error
	return reqs, err
}

func (r *shiftChangeRequestRepo) MarkApproved(ctx context.Context, id, approverID string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.ShiftChangeRequest{}).
		Where("shift_change_request_id = ? AND approved = ?", id, false).
		Updates(map[string]interface{}{
			"approved":       true,
			"approved_by_id": approverID,
			"approved_on":    at,
			"updated_by":     approverID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *shiftChangeRequestRepo) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ShiftChangeRequest{}).Where("approved = ?", false).Count(&n).Error
	return n, err
}
