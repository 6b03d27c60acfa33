package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/umass-lrc/database/internal/model"
)

// HardwareRepository 设备数据访问接口
type HardwareRepository interface {
	Create(ctx context.Context, h *model.Hardware) error
	GetByID(ctx context.Context, id string) (*model.Hardware, error)
	List(ctx context.Context) ([]model.Hardware, error)
	Update(ctx context.Context, h *model.Hardware) error
	CountAvailable(ctx context.Context) (int64, error)
}

type hardwareRepo struct {
	db *gorm.DB
}

// NewHardwareRepo 创建 HardwareRepository 实例
func NewHardwareRepo(db *gorm.DB) HardwareRepository {
	return &hardwareRepo{db: db}
}

func (r *hardwareRepo) Create(ctx context.Context, h *model.Hardware) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *hardwareRepo) GetByID(ctx context.Context, id string) (*model.Hardware, error) {
	var h model.Hardware
	err := r.db.WithContext(ctx).Where("hardware_id = ?", id).First(&h).Error
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *hardwareRepo) List(ctx context.Context) ([]model.Hardware, error) {
	var items []model.Hardware
	err := r.db.WithContext(ctx).Order("name ASC, created_at ASC").Find(&items).Error
	return items, err
}

func (r *hardwareRepo) Update(ctx context.Context, h *model.Hardware) error {
	return r.db.WithContext(ctx).Save(h).Error
}

func (r *hardwareRepo) CountAvailable(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Hardware{}).Where("is_available = ?", true).Count(&n).Error
	return n, err
}

// LoanRepository 借用记录数据访问接口
type LoanRepository interface {
	Create(ctx context.Context, l *model.Loan) error
	GetByID(ctx context.Context, id string) (*model.Loan, error)
	// List 全部借用记录，最近借出的在前
	List(ctx context.Context) ([]model.Loan, error)
	ListOpenByUser(ctx context.Context, userID string) ([]model.Loan, error)
	Update(ctx context.Context, l *model.Loan) error
	CountOpen(ctx context.Context) (int64, error)
}

type loanRepo struct {
	db *gorm.DB
}

// NewLoanRepo 创建 LoanRepository 实例
func NewLoanRepo(db *gorm.DB) LoanRepository {
	return &loanRepo{db: db}
}

func (r *loanRepo) Create(ctx context.Context, l *model.Loan) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(l).Error
}

func (r *loanRepo) GetByID(ctx context.Context, id string) (*model.Loan, error) {
	var l model.Loan
	err := r.db.WithContext(ctx).
		Preload("Hardware").
		Preload("User").
		Where("loan_id = ?", id).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *loanRepo) List(ctx context.Context) ([]model.Loan, error) {
	var loans []model.Loan
	err := r.db.WithContext(ctx).
		Preload("Hardware").
		Preload("User").
		Order("start_time DESC").
		Find(&loans).Error
	return loans, err
}

func (r *loanRepo) ListOpenByUser(ctx context.Context, userID string) ([]model.Loan, error) {
	var loans []model.Loan
	err := r.db.WithContext(ctx).
		Preload("Hardware").
		Where("user_id = ? AND return_time IS NULL", userID).
		Order("start_time DESC").
		Find(&loans).Error
	return loans, err
}

func (r *loanRepo) Update(ctx context.Context, l *model.Loan) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(l).Error
}

func (r *loanRepo) CountOpen(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Loan{}).Where("return_time IS NULL").Count(&n).Error
	return n, err
}
