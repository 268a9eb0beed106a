package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	currentUserContextKey = "current-user-id"
)

// OptionalAuth 解析 Authorization 头；缺失时以匿名身份继续，格式错误或令牌无效时返回 401
func (h *HTTPHandler) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.resolveCaller(c) {
			return
		}
		c.Next()
	}
}

// RequireAuth JWT 认证中间件，要求有效的会话令牌
func (h *HTTPHandler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.resolveCaller(c) {
			return
		}
		if CurrentUserID(c) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    ErrCodeUnauthorized,
				Message: "authorization header is required",
			})
			return
		}
		c.Next()
	}
}

// resolveCaller stores the caller id on the context. It aborts and returns false
// when the header is present but unusable.
func (h *HTTPHandler) resolveCaller(c *gin.Context) bool {
	id, ok, err := h.accounts.ResolveCaller(c.GetHeader("Authorization"))
	if err != nil {
		logrus.WithError(err).WithField("path", c.FullPath()).Debug("rejected bearer token")
		status, code := StatusForError(err)
		c.AbortWithStatusJSON(status, APIError{
			Code:    code,
			Message: "token is invalid or expired",
		})
		return false
	}
	if ok {
		c.Set(currentUserContextKey, id)
	}
	return true
}

// CurrentUserID 从上下文获取当前认证用户 ID，匿名时为 0
func CurrentUserID(c *gin.Context) uint {
	value, exists := c.Get(currentUserContextKey)
	if !exists {
		return 0
	}
	id, ok := value.(uint)
	if !ok {
		return 0
	}
	return id
}
