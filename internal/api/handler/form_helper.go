package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/umass-lrc/database/internal/api/middleware"
	"github.com/umass-lrc/database/internal/form"
	"github.com/umass-lrc/database/internal/service"
	pkgerrors "github.com/umass-lrc/database/pkg/errors"
	"github.com/umass-lrc/database/pkg/response"
)

// forms 表单页面渲染：空白表单、预填表单与校验失败回显
type forms struct {
	choiceSvc service.ChoiceService
}

// show 返回表单页面数据（200）
func (f forms) show(c *gin.Context, values map[string]string, kinds service.ChoiceKind) {
	data, ok := f.data(c, values, nil, kinds)
	if !ok {
		return
	}
	response.OK(c, data)
}

// invalid 校验失败：400，带字段错误与原始提交值（密码与 CSRF 字段不回显）
func (f forms) invalid(c *gin.Context, raw url.Values, errs form.FieldErrors, kinds service.ChoiceKind) {
	omit := append([]string{middleware.CSRFFieldName}, form.PasswordFields...)
	data, ok := f.data(c, form.Echo(raw, omit...), errs, kinds)
	if !ok {
		return
	}
	response.FormInvalid(c, data)
}

func (f forms) data(c *gin.Context, values map[string]string, errs form.FieldErrors, kinds service.ChoiceKind) (response.FormData, bool) {
	if values == nil {
		values = map[string]string{}
	}
	data := response.FormData{
		Values:    values,
		Errors:    errs,
		CSRFToken: middleware.CSRFToken(c),
	}
	if kinds != 0 && f.choiceSvc != nil {
		choices, err := f.choiceSvc.Load(c.Request.Context(), kinds)
		if err != nil {
			internalError(c, err)
			return data, false
		}
		data.Choices = choices
	}
	return data, true
}

// handleCommonError 处理各模块共有的业务错误，已处理时返回 true
func handleCommonError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "无权限访问")
	case errors.Is(err, pkgerrors.ErrIntegrityViolation):
		response.Error(c, http.StatusConflict, 10006, "数据完整性约束冲突，请检查后重新提交")
	default:
		return false
	}
	return true
}

// submitFailed 写操作失败：字段错误回显表单，其余交给模块错误处理
func (f forms) submitFailed(c *gin.Context, raw url.Values, err error, kinds service.ChoiceKind, fallback func(*gin.Context, error)) {
	if errs, ok := form.AsFieldErrors(err); ok {
		f.invalid(c, raw, errs, kinds)
		return
	}
	if handleCommonError(c, err) {
		return
	}
	fallback(c, err)
}

// internalError 记录错误（由日志中间件输出）并返回 500
func internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	response.InternalError(c)
}
