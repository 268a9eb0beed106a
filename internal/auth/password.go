package auth

import (
	"errors"
	"unicode/utf8"

	"accounts/internal/apperr"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength 密码最小长度
	MinPasswordLength = 8

	passwordBcryptCost = 10
)

// HashPassword 对明文密码进行哈希处理，长度不足时返回校验错误
func HashPassword(password string) (string, error) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return "", apperr.Validation("password", "Password must be 8 characters or longer")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), passwordBcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperr.Validation("password", "Password must be at most 72 bytes long")
		}
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword 验证密码是否与存储的哈希值匹配
func VerifyPassword(hash, candidate string) error {
	if hash == "" {
		return errors.New("stored password hash is empty")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate))
}
