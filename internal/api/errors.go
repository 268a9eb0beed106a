package api

import (
	"errors"
	"net/http"

	"accounts/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 错误码定义
const (
	// 通用错误码
	ErrCodeInvalidRequest = "ERR_INVALID_REQUEST"
	ErrCodeUnauthorized   = "ERR_UNAUTHORIZED"
	ErrCodeNotFound       = "ERR_NOT_FOUND"
	ErrCodeInternalError  = "ERR_INTERNAL_ERROR"

	// 账户错误码
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeConflict           = "ERR_CONFLICT"
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeInvalidToken       = "ERR_INVALID_TOKEN"
	ErrCodeEmailNotConfirmed  = "ERR_EMAIL_NOT_CONFIRMED"
)

// APIError 统一的 API 错误响应结构
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse 返回统一格式的错误响应
func ErrorResponse(c *gin.Context, status int, code string, message string) {
	c.JSON(status, APIError{
		Code:    code,
		Message: message,
	})
}

// ErrorResponseWithDetails 返回带详情的错误响应
func ErrorResponseWithDetails(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, APIError{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// InternalError 500 服务器内部错误
func InternalError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// InvalidPayload 无效的请求体
func InvalidPayload(c *gin.Context) {
	ErrorResponse(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request payload")
}

// StatusForError maps a classified error to its HTTP status and error code.
// Unclassified errors are internal.
func StatusForError(err error) (int, string) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		return http.StatusInternalServerError, ErrCodeInternalError
	}
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest, ErrCodeValidation
	case apperr.KindConflict:
		return http.StatusConflict, ErrCodeConflict
	case apperr.KindAuthentication:
		return http.StatusUnauthorized, ErrCodeInvalidCredentials
	case apperr.KindInvalidToken:
		return http.StatusUnauthorized, ErrCodeInvalidToken
	case apperr.KindForbidden:
		return http.StatusForbidden, ErrCodeEmailNotConfirmed
	case apperr.KindNotFound:
		return http.StatusNotFound, ErrCodeNotFound
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

// RespondError 将服务层错误写成统一响应；内部错误只记录日志，不向客户端暴露细节
func RespondError(c *gin.Context, err error) {
	status, code := StatusForError(err)
	if status == http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		InternalError(c, "something went wrong, please try again later")
		return
	}

	var appErr *apperr.Error
	errors.As(err, &appErr)
	if appErr.Field != "" {
		ErrorResponseWithDetails(c, status, code, appErr.Message, gin.H{"field": appErr.Field})
		return
	}
	ErrorResponse(c, status, code, appErr.Message)
}
