package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/umass-lrc/database/internal/service"
	"github.com/umass-lrc/database/pkg/response"
)

// Pinger 存储健康检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// DashboardHandler 首页与健康检查
type DashboardHandler struct {
	dashboardSvc service.DashboardService
	db           Pinger
}

// NewDashboardHandler 创建 DashboardHandler；db 为 nil 时健康检查不探测数据库
func NewDashboardHandler(dashboardSvc service.DashboardService, db Pinger) *DashboardHandler {
	return &DashboardHandler{dashboardSvc: dashboardSvc, db: db}
}

// Dashboard 首页：本人近期值班、未归还借用，管理角色附带待审批数与统计
// GET /
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	data, err := h.dashboardSvc.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 20001, "用户不存在")
			return
		}
		internalError(c, err)
		return
	}
	response.OK(c, data)
}

// Health 存活检查
// GET /health
func (h *DashboardHandler) Health(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "db": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
