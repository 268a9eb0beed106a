package entity

import "time"

const (
	UserRoleAdmin = "ADMIN"
	UserRoleUser  = "USER"
)

// DbUser represents a persisted user account.
// An empty ResetPasswordToken means no password reset is in flight.
type DbUser struct {
	ID                 uint      `gorm:"primarykey" json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	Name               string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Email              string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash       string    `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	IsEmailConfirmed   bool      `gorm:"column:is_email_confirmed;not null;default:false" json:"is_email_confirmed"`
	Role               string    `gorm:"column:role;type:varchar(16);index;not null;default:'USER'" json:"role"`
	ResetPasswordToken string    `gorm:"column:reset_password_token;type:varchar(512);index;not null;default:''" json:"-"`
}

// TableName overrides default pluralised name.
func (DbUser) TableName() string {
	return "users"
}

// IsAdmin 判断账户是否为管理员
func (u *DbUser) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}

// UserSummary is the account projection returned to clients.
type UserSummary struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	IsEmailConfirmed bool      `json:"is_email_confirmed"`
	Role             string    `json:"role"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// UserToSummary 转换为对外输出结构
func UserToSummary(user *DbUser) UserSummary {
	if user == nil {
		return UserSummary{}
	}
	return UserSummary{
		ID:               user.ID,
		Name:             user.Name,
		Email:            user.Email,
		IsEmailConfirmed: user.IsEmailConfirmed,
		Role:             user.Role,
		CreatedAt:        user.CreatedAt,
		UpdatedAt:        user.UpdatedAt,
	}
}

// UserQuery filters the admin account listing. A zero PageSize returns every match.
type UserQuery struct {
	BaseParams
	Role    string `json:"role" form:"role" query:"role"`
	Keyword string `json:"keyword" form:"keyword" query:"keyword"`
}

type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ActivateRequest struct {
	Token string `json:"token" binding:"required"`
}

type EmailRequest struct {
	Email string `json:"email" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// UpdateSelfRequest carries optional profile changes; nil or empty fields are left untouched.
type UpdateSelfRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      UserSummary `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UserListResponse struct {
	Users []UserSummary `json:"users"`
	Meta  *Meta         `json:"meta"`
}
