package entity

// UserUpdates 用户更新字段
type UserUpdates struct {
	Name               *string
	Email              *string
	PasswordHash       *string
	IsEmailConfirmed   *bool
	ResetPasswordToken *string
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u UserUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Name != nil {
		updates["name"] = *u.Name
	}
	if u.Email != nil {
		updates["email"] = *u.Email
	}
	if u.PasswordHash != nil {
		updates["password_hash"] = *u.PasswordHash
	}
	if u.IsEmailConfirmed != nil {
		updates["is_email_confirmed"] = *u.IsEmailConfirmed
	}
	if u.ResetPasswordToken != nil {
		updates["reset_password_token"] = *u.ResetPasswordToken
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u UserUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}
