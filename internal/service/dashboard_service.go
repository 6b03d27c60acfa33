package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/umass-lrc/database/internal/dto"
	"github.com/umass-lrc/database/internal/repository"
)

// dashboardShiftLimit 首页展示的近期值班数
const dashboardShiftLimit = 10

// DashboardService 首页数据
type DashboardService interface {
	Get(ctx context.Context, userID string) (*dto.DashboardResponse, error)
}

type dashboardService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService 创建 DashboardService 实例
func NewDashboardService(repo *repository.Repository, logger *zap.Logger) DashboardService {
	return &dashboardService{repo: repo, logger: logger, now: time.Now}
}

func (s *dashboardService) Get(ctx context.Context, userID string) (*dto.DashboardResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", userID), zap.Error(err))
		return nil, err
	}

	from := s.now()
	shifts, err := s.repo.Shift.List(ctx, repository.ShiftFilters{PersonID: userID, From: &from})
	if err != nil {
		s.logger.Error("查询近期值班失败", zap.Error(err))
		return nil, err
	}
	if len(shifts) > dashboardShiftLimit {
		shifts = shifts[:dashboardShiftLimit]
	}

	loans, err := s.repo.Loan.ListOpenByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询未归还借用失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.DashboardResponse{
		User:           *toUserBrief(user),
		UpcomingShifts: make([]dto.ShiftResponse, 0, len(shifts)),
		OpenLoans:      make([]dto.LoanResponse, 0, len(loans)),
	}
	for i := range shifts {
		resp.UpcomingShifts = append(resp.UpcomingShifts, *toShiftResponse(&shifts[i]))
	}
	for i := range loans {
		resp.OpenLoans = append(resp.OpenLoans, *toLoanResponse(&loans[i]))
	}

	if !user.IsStaff() {
		return resp, nil
	}

	// 管理角色额外展示待审批数与汇总
	pending, err := s.repo.ShiftChangeRequest.CountPending(ctx)
	if err != nil {
		s.logger.Error("统计待审批申请失败", zap.Error(err))
		return nil, err
	}
	stats := &dto.DashboardStats{}
	if stats.ActiveUsers, err = s.repo.User.Count(ctx); err != nil {
		return nil, err
	}
	if stats.AvailableHardware, err = s.repo.Hardware.CountAvailable(ctx); err != nil {
		return nil, err
	}
	if stats.OpenLoans, err = s.repo.Loan.CountOpen(ctx); err != nil {
		return nil, err
	}
	resp.PendingRequests = &pending
	resp.Stats = stats

	return resp, nil
}
