package sql

import (
	"accounts/internal/entity"
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// CreateUser persists a new user record.
func (r *GormRepository) CreateUser(ctx context.Context, user *entity.DbUser) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}
	return db.Create(user).Error
}

// UpdateUser updates an existing user entry.
func (r *GormRepository) UpdateUser(ctx context.Context, id uint, updates entity.UserUpdates) error {
	users, err := r.users(ctx)
	if err != nil {
		return err
	}
	if id == 0 {
		return errors.New("invalid user")
	}
	if updates.IsEmpty() {
		return nil
	}
	result := users.Where("id = ?", id).Updates(updates.ToMap())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// firstUser loads the first account matching query. A blank lookup key never matches.
func (r *GormRepository) firstUser(ctx context.Context, blank bool, query string, args ...any) (*entity.DbUser, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	if blank {
		return nil, gorm.ErrRecordNotFound
	}
	var user entity.DbUser
	if err := db.Where(query, args...).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail loads a user by email. Emails are compared exactly as stored.
func (r *GormRepository) GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error) {
	return r.firstUser(ctx, email == "", "email = ?", email)
}

func (r *GormRepository) GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error) {
	return r.firstUser(ctx, id == 0, "id = ?", id)
}

// GetUserByResetToken loads the user currently holding the given reset token.
func (r *GormRepository) GetUserByResetToken(ctx context.Context, token string) (*entity.DbUser, error) {
	return r.firstUser(ctx, token == "", "reset_password_token = ?", token)
}

// ConfirmEmail marks the account owning email as confirmed.
func (r *GormRepository) ConfirmEmail(ctx context.Context, email string) error {
	users, err := r.users(ctx)
	if err != nil {
		return err
	}
	result := users.Where("email = ?", email).Update("is_email_confirmed", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	// 已确认的账户在部分数据库上不计入影响行数
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DbUser{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetResetToken stores the most recently issued reset token.
func (r *GormRepository) SetResetToken(ctx context.Context, id uint, token string) error {
	return r.UpdateUser(ctx, id, entity.UserUpdates{ResetPasswordToken: &token})
}

// ConsumeResetToken swaps the password hash in one conditional update.
func (r *GormRepository) ConsumeResetToken(ctx context.Context, id uint, token, passwordHash string) (bool, error) {
	users, err := r.users(ctx)
	if err != nil {
		return false, err
	}
	if id == 0 || token == "" {
		return false, nil
	}
	result := users.
		Where("id = ? AND reset_password_token = ?", id, token).
		Updates(map[string]interface{}{
			"password_hash":        passwordHash,
			"reset_password_token": "",
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListUsers returns users, paginated when params ask for it.
func (r *GormRepository) ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error) {
	query, err := r.users(ctx)
	if err != nil {
		return nil, nil, err
	}

	var window pageWindow
	if params != nil {
		if trimmed := strings.TrimSpace(params.Role); trimmed != "" {
			query = query.Where("role = ?", strings.ToUpper(trimmed))
		}
		if keyword := strings.TrimSpace(params.Keyword); keyword != "" {
			kw := "%" + strings.ToLower(keyword) + "%"
			query = query.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", kw, kw)
		}
		window = newPageWindow(params.BaseParams)
	} else {
		window = newPageWindow(entity.BaseParams{})
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	var users []entity.DbUser
	if err := query.Order("id ASC").Scopes(window.scope).Find(&users).Error; err != nil {
		return nil, nil, err
	}
	return users, window.meta(total), nil
}

// CountUsers returns total user count.
func (r *GormRepository) CountUsers(ctx context.Context) (int64, error) {
	users, err := r.users(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := users.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
