package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/umass-lrc/database/internal/form"
	"github.com/umass-lrc/database/internal/service"
	"github.com/umass-lrc/database/pkg/response"
)

// CourseHandler 课程模块 HTTP 处理器
type CourseHandler struct {
	courseSvc service.CourseService
	forms     forms
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// ListCourses 课程列表
// GET /courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	courses, err := h.courseSvc.List(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	response.OK(c, gin.H{"list": courses})
}

// GetCourse 课程详情（含 SI leader 与辅导员）
// GET /courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, ok := pathID(c, service.ErrCourseNotFound, h.handleCourseError)
	if !ok {
		return
	}

	course, err := h.courseSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}
	response.OK(c, course)
}

// CreateForm 新建课程表单
// GET /courses/add
func (h *CourseHandler) CreateForm(c *gin.Context) {
	h.forms.show(c, nil, 0)
}

// CreateCourse 新建课程
// POST /courses/add
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	raw, ok := readForm(c)
	if !ok {
		return
	}

	in, errs := form.ParseCourse(raw)
	if errs != nil {
		h.forms.invalid(c, raw, errs, 0)
		return
	}

	course, err := h.courseSvc.Create(c.Request.Context(), in, callerID)
	if err != nil {
		h.forms.submitFailed(c, raw, err, 0, h.handleCourseError)
		return
	}
	response.SeeOther(c, "/courses/"+course.ID)
}

// EditForm 编辑课程表单
// GET /courses/:id/edit
func (h *CourseHandler) EditForm(c *gin.Context) {
	id, ok := pathID(c, service.ErrCourseNotFound, h.handleCourseError)
	if !ok {
		return
	}

	values, err := h.courseSvc.EditValues(c.Request.Context(), id)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}
	h.forms.show(c, values, 0)
}

// UpdateCourse 保存课程
// POST /courses/:id/edit
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, service.ErrCourseNotFound, h.handleCourseError)
	if !ok {
		return
	}
	raw, ok := readForm(c)
	if !ok {
		return
	}

	in, errs := form.ParseCourse(raw)
	if errs != nil {
		h.forms.invalid(c, raw, errs, 0)
		return
	}

	course, err := h.courseSvc.Update(c.Request.Context(), id, in, callerID)
	if err != nil {
		h.forms.submitFailed(c, raw, err, 0, h.handleCourseError)
		return
	}
	response.SeeOther(c, "/courses/"+course.ID)
}

// handleCourseError 统一处理课程模块业务错误
func (h *CourseHandler) handleCourseError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 21001, "课程不存在")
	default:
		internalError(c, err)
	}
}
