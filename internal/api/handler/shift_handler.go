package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/umass-lrc/database/internal/form"
	"github.com/umass-lrc/database/internal/service"
	"github.com/umass-lrc/database/pkg/response"
)

// ShiftHandler 值班模块 HTTP 处理器
type ShiftHandler struct {
	shiftSvc service.ShiftService
	loc      *time.Location
	forms    forms
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(shiftSvc service.ShiftService, choiceSvc service.ChoiceService, loc *time.Location) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc, loc: loc, forms: forms{choiceSvc: choiceSvc}}
}

const shiftChoices = service.ChoiceUsers | service.ChoiceLocations

// ListShifts 值班列表：默认本人，管理角色可通过 ?person= 查看他人
// GET /shifts
func (h *ShiftHandler) ListShifts(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	person := c.Query("person")
	if person != "" {
		if person, ok = canonicalUUID(person); !ok {
			h.handleShiftError(c, service.ErrUserNotFound)
			return
		}
	}

	shifts, err := h.shiftSvc.List(c.Request.Context(), callerID, person)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}
	response.OK(c, gin.H{"list": shifts})
}

// GetShift 值班详情
// GET /shifts/:id
func (h *ShiftHandler) GetShift(c *gin.Context) {
	id, ok := pathID(c, service.ErrShiftNotFound, h.handleShiftError)
	if !ok {
		return
	}

	shift, err := h.shiftSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}
	response.OK(c, shift)
}

// CreateForm 新建值班表单
// GET /shifts/add
func (h *ShiftHandler) CreateForm(c *gin.Context) {
	h.forms.show(c, nil, shiftChoices)
}

// CreateShift 新建值班，可带 RRULE 批量生成
// POST /shifts/add
func (h *ShiftHandler) CreateShift(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	raw, ok := readForm(c)
	if !ok {
		return
	}

	in, errs := form.ParseShift(raw, h.loc)
	if errs != nil {
		h.forms.invalid(c, raw, errs, shiftChoices)
		return
	}

	result, err := h.shiftSvc.Create(c.Request.Context(), in, callerID)
	if err != nil {
		h.forms.submitFailed(c, raw, err, shiftChoices, h.handleShiftError)
		return
	}

	if len(result.Shifts) == 1 {
		response.SeeOther(c, "/shifts/"+result.Shifts[0].ID)
		return
	}
	response.SeeOther(c, "/shifts?person="+in.PersonID)
}

// Calendar 本人值班的 iCalendar 订阅
// GET /shifts/calendar.ics
func (h *ShiftHandler) Calendar(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	data, err := h.shiftSvc.Calendar(c.Request.Context(), userID)
	if err != nil {
		internalError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="shifts.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

func (h *ShiftHandler) handleShiftError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 23001, "值班不存在")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, "用户不存在")
	default:
		internalError(c, err)
	}
}
