package api

import (
	"accounts/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	accounts *service.AccountService
}

// NewHTTPHandler 创建 HTTP 处理器实例
func NewHTTPHandler(accounts *service.AccountService) (*HTTPHandler, error) {
	if accounts == nil {
		return nil, errors.New("account service is required")
	}
	return &HTTPHandler{
		accounts: accounts,
	}, nil
}

// RegisterRoutes 注册健康检查与账户相关路由
func (h *HTTPHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	apiGroup := r.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/signup", h.SignUp)
	authGroup.POST("/activate", h.Activate)
	authGroup.POST("/activation/resend", h.ResendActivation)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/password/forgot", h.ForgotPassword)
	authGroup.POST("/password/reset", h.ResetPassword)
	authGroup.GET("/me", h.RequireAuth(), h.Me)
	authGroup.PATCH("/me", h.RequireAuth(), h.UpdateMe)

	apiGroup.GET("/users", h.OptionalAuth(), h.ListUsers)
}
