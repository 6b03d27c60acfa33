package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"

	"github.com/umass-lrc/database/pkg/response"
)

// CSRFFieldName 表单中 CSRF Token 的字段名
const CSRFFieldName = "csrf_token"

// CSRF 表单提交的 CSRF 校验
// 携带 Authorization: Bearer 的请求不依赖 Cookie，不做校验
func CSRF(authKey []byte, secure bool) gin.HandlerFunc {
	protect := csrf.Protect(
		authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.FieldName(CSRFFieldName),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailure)),
	)

	return func(c *gin.Context) {
		if bearerToken(c) != "" {
			c.Next()
			return
		}

		req := c.Request
		if !secure {
			req = csrf.PlaintextHTTPRequest(req)
		}

		passed := false
		protect(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, req)

		if !passed {
			c.Abort()
		}
	}
}

func csrfFailure(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	msg := "CSRF 校验失败"
	if reason := csrf.FailureReason(r); reason != nil {
		msg += ": " + reason.Error()
	}
	_ = json.NewEncoder(w).Encode(response.Response{Code: 10007, Message: msg})
}

// CSRFToken 当前请求的 CSRF Token；未启用时为空
func CSRFToken(c *gin.Context) string {
	return csrf.Token(c.Request)
}
