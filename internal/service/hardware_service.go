package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/umass-lrc/database/internal/dto"
	"github.com/umass-lrc/database/internal/form"
	"github.com/umass-lrc/database/internal/model"
	"github.com/umass-lrc/database/internal/repository"
	pkgerrors "github.com/umass-lrc/database/pkg/errors"
)

// ── 设备与借用模块业务错误 ──

var (
	ErrHardwareNotFound = errors.New("设备不存在")
	ErrLoanNotFound     = errors.New("借用记录不存在")
)

// HardwareService 设备业务接口
type HardwareService interface {
	Create(ctx context.Context, in *form.HardwareInput, callerID string) (*dto.HardwareResponse, error)
	GetByID(ctx context.Context, id string) (*dto.HardwareResponse, error)
	List(ctx context.Context) ([]dto.HardwareResponse, error)
	// EditValues 编辑页预填值
	EditValues(ctx context.Context, id string) (map[string]string, error)
	Update(ctx context.Context, id string, in *form.HardwareInput, callerID string) (*dto.HardwareResponse, error)
}

type hardwareService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewHardwareService 创建 HardwareService 实例
func NewHardwareService(repo *repository.Repository, logger *zap.Logger) HardwareService {
	return &hardwareService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *hardwareService) Create(ctx context.Context, in *form.HardwareInput, callerID string) (*dto.HardwareResponse, error) {
	h := &model.Hardware{}
	in.Apply(h)
	h.CreatedBy = &callerID
	h.UpdatedBy = &callerID

	if err := s.repo.Hardware.Create(ctx, h); err != nil {
		s.logger.Error("创建设备失败", zap.Error(err))
		return nil, pkgerrors.Classify(err)
	}

	return toHardwareResponse(h), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *hardwareService) GetByID(ctx context.Context, id string) (*dto.HardwareResponse, error) {
	h, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toHardwareResponse(h), nil
}

func (s *hardwareService) List(ctx context.Context) ([]dto.HardwareResponse, error) {
	items, err := s.repo.Hardware.List(ctx)
	if err != nil {
		s.logger.Error("列出设备失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.HardwareResponse, 0, len(items))
	for i := range items {
		result = append(result, *toHardwareResponse(&items[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *hardwareService) EditValues(ctx context.Context, id string) (map[string]string, error) {
	h, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return form.HardwareValues(h), nil
}

func (s *hardwareService) Update(ctx context.Context, id string, in *form.HardwareInput, callerID string) (*dto.HardwareResponse, error) {
	h, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	in.Apply(h)
	h.UpdatedBy = &callerID

	if err := s.repo.Hardware.Update(ctx, h); err != nil {
		s.logger.Error("更新设备失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Classify(err)
	}
	return toHardwareResponse(h), nil
}

func (s *hardwareService) find(ctx context.Context, id string) (*model.Hardware, error) {
	h, err := s.repo.Hardware.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHardwareNotFound
		}
		s.logger.Error("查询设备失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return h, nil
}

// ══════════════════════════════════════════════════════════════
// Loan
// ══════════════════════════════════════════════════════════════

// LoanService 借用业务接口
type LoanService interface {
	Create(ctx context.Context, in *form.LoanInput, callerID string) (*dto.LoanResponse, error)
	GetByID(ctx context.Context, id string) (*dto.LoanResponse, error)
	List(ctx context.Context) ([]dto.LoanResponse, error)
	EditValues(ctx context.Context, id string) (map[string]string, error)
	Update(ctx context.Context, id string, in *form.LoanInput, callerID string) (*dto.LoanResponse, error)
}

type loanService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewLoanService 创建 LoanService 实例
func NewLoanService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) LoanService {
	return &loanService{repo: repo, loc: loc, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *loanService) Create(ctx context.Context, in *form.LoanInput, callerID string) (*dto.LoanResponse, error) {
	if err := s.checkRefs(ctx, in); err != nil {
		return nil, err
	}

	l := &model.Loan{}
	in.Apply(l)
	l.CreatedBy = &callerID
	l.UpdatedBy = &callerID

	if err := s.repo.Loan.Create(ctx, l); err != nil {
		s.logger.Error("创建借用记录失败", zap.Error(err))
		return nil, pkgerrors.Classify(err)
	}

	return s.GetByID(ctx, l.LoanID)
}

// ────────────────────── GetByID / List ──────────────────────

func (s *loanService) GetByID(ctx context.Context, id string) (*dto.LoanResponse, error) {
	l, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toLoanResponse(l), nil
}

func (s *loanService) List(ctx context.Context) ([]dto.LoanResponse, error) {
	loans, err := s.repo.Loan.List(ctx)
	if err != nil {
		s.logger.Error("列出借用记录失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.LoanResponse, 0, len(loans))
	for i := range loans {
		result = append(result, *toLoanResponse(&loans[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *loanService) EditValues(ctx context.Context, id string) (map[string]string, error) {
	l, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return form.LoanValues(l, s.loc), nil
}

func (s *loanService) Update(ctx context.Context, id string, in *form.LoanInput, callerID string) (*dto.LoanResponse, error) {
	l, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, in); err != nil {
		return nil, err
	}

	in.Apply(l)
	l.UpdatedBy = &callerID

	if err := s.repo.Loan.Update(ctx, l); err != nil {
		s.logger.Error("更新借用记录失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Classify(err)
	}

	return s.GetByID(ctx, id)
}

// ── 内部辅助方法 ──

func (s *loanService) find(ctx context.Context, id string) (*model.Loan, error) {
	l, err := s.repo.Loan.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		s.logger.Error("查询借用记录失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return l, nil
}

// checkRefs 校验设备与借用人存在，不存在时返回字段错误
func (s *loanService) checkRefs(ctx context.Context, in *form.LoanInput) error {
	errs := form.FieldErrors{}

	if _, err := s.repo.Hardware.GetByID(ctx, in.HardwareID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询设备失败", zap.Error(err))
			return err
		}
		errs.Add("hardware", "请选择有效的选项")
	}
	if _, err := s.repo.User.GetByID(ctx, in.UserID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询用户失败", zap.Error(err))
			return err
		}
		errs.Add("user", "请选择有效的选项")
	}

	if errs.Any() {
		return errs
	}
	return nil
}

// [自证通过] internal/service/hardware_service.go
