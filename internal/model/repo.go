package model

import (
	"accounts/internal/entity"
	"context"
)

// Repository 定义账户数据库操作接口
type Repository interface {
	CreateUser(ctx context.Context, user *entity.DbUser) error
	UpdateUser(ctx context.Context, id uint, updates entity.UserUpdates) error
	GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error)
	GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error)
	GetUserByResetToken(ctx context.Context, token string) (*entity.DbUser, error)
	ConfirmEmail(ctx context.Context, email string) error
	SetResetToken(ctx context.Context, id uint, token string) error
	// ConsumeResetToken replaces the password hash and clears the reset token only
	// while the stored token still equals token. It reports whether a row changed.
	ConsumeResetToken(ctx context.Context, id uint, token, passwordHash string) (bool, error)
	ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error)
	CountUsers(ctx context.Context) (int64, error)
}
