package apperr

import (
	"errors"
	"fmt"
)

// Kind 标识业务错误类别，调用方据此分支处理而不依赖具体类型
type Kind string

const (
	KindValidation     Kind = "validation"
	KindConflict       Kind = "conflict"
	KindAuthentication Kind = "authentication"
	KindInvalidToken   Kind = "invalid_token"
	KindForbidden      Kind = "forbidden"
	KindNotFound       Kind = "not_found"
)

// Error is a classified failure. Field names the offending input when there is one.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation 输入格式错误
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// Conflict 状态前置条件不满足
func Conflict(field, message string) *Error {
	return &Error{Kind: KindConflict, Field: field, Message: message}
}

// Authentication 凭证或令牌校验失败
func Authentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

// InvalidToken wraps a token decode failure.
func InvalidToken(err error) *Error {
	return &Error{Kind: KindInvalidToken, Message: "invalid token", Err: err}
}

// Forbidden 已识别身份但不满足前置条件
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NotFound 引用的资源不存在
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	got, ok := KindOf(err)
	return ok && got == kind
}

// IsAuthentication treats an invalid token as an authentication failure.
func IsAuthentication(err error) bool {
	kind, ok := KindOf(err)
	return ok && (kind == KindAuthentication || kind == KindInvalidToken)
}
