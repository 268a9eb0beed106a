package service

import (
	"accounts/internal/apperr"
	"accounts/internal/auth"
	"accounts/internal/entity"
	"accounts/internal/mailer"
	"accounts/internal/model"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	msgInvalidEmail        = "Please enter a valid email"
	msgNameRequired        = "Please enter your name"
	msgEmailTaken          = "Email is already taken"
	msgInvalidCredentials  = "Email or password does not match"
	msgEmailNotConfirmed   = "You need to confirm your email before your first login"
	msgInvalidConfirmLink  = "Email confirmation link is invalid"
	msgInvalidResetLink    = "Your reset link is invalid."
	msgResetTokenNotFound  = "Your reset link has already been used or replaced."
	msgNotAuthenticated    = "You need to sign in first"
	msgAccountCreated      = "Your account has been created! We've sent an email to %s. Please follow the instruction on the email to activate your account"
	msgActivationSucceeded = "Activation succeeded, you can now sign-in."
	msgActivationResent    = "If the email you provided belongs to an account awaiting activation, you'll receive a new activation email."
	msgResetRequested      = "If the email you provided is valid, you'll receive an email with instructions to reset your password."
	msgPasswordUpdated     = "Your password has been updated. You can now sign-in!"
)

// 邮件在请求返回后异步发送，独立于请求上下文但有自己的超时
const mailTimeout = 30 * time.Second

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// timingHash 返回一个固定的 bcrypt 摘要，用于账户不存在时做等价的比较
func timingHash() string {
	dummyHashOnce.Do(func() {
		hash, err := auth.HashPassword("timing-equaliser-password")
		if err != nil {
			logrus.WithError(err).Error("failed to prepare timing hash")
			return
		}
		dummyHash = hash
	})
	return dummyHash
}

// AccountService 账户生命周期服务：注册、激活、登录、找回密码与资料修改
type AccountService struct {
	repo     model.Repository
	tokens   *auth.Tokens
	notifier mailer.Notifier
	composer *mailer.Composer

	mail sync.WaitGroup
}

// NewAccountService 创建账户服务实例
func NewAccountService(repo model.Repository, tokens *auth.Tokens, notifier mailer.Notifier, composer *mailer.Composer) *AccountService {
	return &AccountService{
		repo:     repo,
		tokens:   tokens,
		notifier: notifier,
		composer: composer,
	}
}

func validateEmail(email string) error {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return apperr.Validation("email", msgInvalidEmail)
	}
	return nil
}

// findByEmail returns (nil, nil) when no account matches.
func (s *AccountService) findByEmail(ctx context.Context, email string) (*entity.DbUser, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup account by email: %w", err)
	}
	return user, nil
}

// SignUp creates an unconfirmed account and mails an activation link.
func (s *AccountService) SignUp(ctx context.Context, req entity.SignUpRequest) (*entity.MessageResponse, error) {
	name := strings.TrimSpace(req.Name)
	if err := validation.Validate(name, validation.Required); err != nil {
		return nil, apperr.Validation("name", msgNameRequired)
	}
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}

	existing, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("email", msgEmailTaken)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.DbUser{
		Name:         name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         entity.UserRoleUser,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("email", msgEmailTaken)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.sendActivation(ctx, user.Email)

	return &entity.MessageResponse{Message: fmt.Sprintf(msgAccountCreated, req.Email)}, nil
}

// ConfirmEmail marks the account named by an activation token as confirmed.
// Replaying a token inside its lifetime is harmless.
func (s *AccountService) ConfirmEmail(ctx context.Context, token string) (*entity.MessageResponse, error) {
	claims, err := s.tokens.ParseActivation(token)
	if err != nil {
		return nil, apperr.Authentication(msgInvalidConfirmLink)
	}

	if err := s.repo.ConfirmEmail(ctx, claims.Email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Authentication(msgInvalidConfirmLink)
		}
		return nil, fmt.Errorf("confirm email: %w", err)
	}

	logrus.WithField("email", claims.Email).Info("email confirmed")
	return &entity.MessageResponse{Message: msgActivationSucceeded}, nil
}

// ResendActivation re-issues an activation link. The response is the same
// whether the account is missing, already confirmed or a link was sent.
func (s *AccountService) ResendActivation(ctx context.Context, email string) (*entity.MessageResponse, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	response := &entity.MessageResponse{Message: msgActivationResent}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsEmailConfirmed {
		// 与发送分支做等量的签名工作
		_, _ = s.tokens.IssueActivation(email)
		return response, nil
	}

	s.sendActivation(ctx, user.Email)
	return response, nil
}

// Login verifies credentials and issues a session token.
func (s *AccountService) Login(ctx context.Context, req entity.LoginRequest) (*entity.AuthResponse, error) {
	user, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = auth.VerifyPassword(timingHash(), req.Password)
		return nil, apperr.Authentication(msgInvalidCredentials)
	}
	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		return nil, apperr.Authentication(msgInvalidCredentials)
	}
	if !user.IsEmailConfirmed {
		return nil, apperr.Forbidden(msgEmailNotConfirmed)
	}

	token, expiresAt, err := s.tokens.IssueSession(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	return &entity.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      entity.UserToSummary(user),
	}, nil
}

// ForgotPassword stores a fresh reset token and mails it. The response never
// reveals whether the email belongs to an account.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) (*entity.MessageResponse, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	response := &entity.MessageResponse{Message: msgResetRequested}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// 签名后丢弃，使两个分支的耗时接近
		_, _ = s.tokens.IssueReset(1, email)
		return response, nil
	}

	token, err := s.tokens.IssueReset(user.ID, user.Name)
	if err != nil {
		return nil, fmt.Errorf("issue reset token: %w", err)
	}
	if err := s.repo.SetResetToken(ctx, user.ID, token); err != nil {
		return nil, fmt.Errorf("store reset token: %w", err)
	}

	msg, err := s.composer.ResetPasswordEmail(user.Email, token)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to render reset email")
		return response, nil
	}
	s.dispatch(ctx, msg, user.ID)
	return response, nil
}

// ResetPassword replaces the password of the account currently holding token.
// A token works once: success clears it.
func (s *AccountService) ResetPassword(ctx context.Context, req entity.ResetPasswordRequest) (*entity.MessageResponse, error) {
	if _, err := s.tokens.ParseReset(req.Token); err != nil {
		return nil, apperr.Authentication(msgInvalidResetLink)
	}

	user, err := s.repo.GetUserByResetToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(msgResetTokenNotFound)
		}
		return nil, fmt.Errorf("lookup reset token: %w", err)
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return nil, err
	}

	consumed, err := s.repo.ConsumeResetToken(ctx, user.ID, req.Token, hash)
	if err != nil {
		return nil, fmt.Errorf("consume reset token: %w", err)
	}
	if !consumed {
		return nil, apperr.NotFound(msgResetTokenNotFound)
	}

	logrus.WithField("user_id", user.ID).Info("password reset")
	return &entity.MessageResponse{Message: msgPasswordUpdated}, nil
}

// Me returns the caller's own account. callerID 0 means anonymous.
func (s *AccountService) Me(ctx context.Context, callerID uint) (*entity.UserSummary, error) {
	user, err := s.loadCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	summary := entity.UserToSummary(user)
	return &summary, nil
}

// UpdateSelf applies the supplied profile changes to the caller's account.
// Every field is checked before anything is written.
func (s *AccountService) UpdateSelf(ctx context.Context, callerID uint, req entity.UpdateSelfRequest) (*entity.UserSummary, error) {
	user, err := s.loadCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}

	var updates entity.UserUpdates
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" && name != user.Name {
			updates.Name = &name
		}
	}
	if req.Email != nil && *req.Email != "" && *req.Email != user.Email {
		email := *req.Email
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		owner, err := s.findByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if owner != nil && owner.ID != user.ID {
			return nil, apperr.Conflict("email", msgEmailTaken)
		}
		updates.Email = &email
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		updates.PasswordHash = &hash
	}

	if !updates.IsEmpty() {
		if err := s.repo.UpdateUser(ctx, user.ID, updates); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, apperr.Conflict("email", msgEmailTaken)
			}
			return nil, fmt.Errorf("update account: %w", err)
		}
		if user, err = s.repo.GetUserByID(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("reload account: %w", err)
		}
	}

	summary := entity.UserToSummary(user)
	return &summary, nil
}

func (s *AccountService) loadCaller(ctx context.Context, callerID uint) (*entity.DbUser, error) {
	if callerID == 0 {
		return nil, apperr.Authentication(msgNotAuthenticated)
	}
	user, err := s.repo.GetUserByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Authentication(msgNotAuthenticated)
		}
		return nil, fmt.Errorf("lookup caller: %w", err)
	}
	return user, nil
}

// sendActivation issues and mails an activation token. Failures are logged only:
// the account is already persisted and the caller's response must not vary.
func (s *AccountService) sendActivation(ctx context.Context, email string) {
	token, err := s.tokens.IssueActivation(email)
	if err != nil {
		logrus.WithError(err).WithField("email", email).Error("failed to issue activation token")
		return
	}
	msg, err := s.composer.ActivationEmail(email, token)
	if err != nil {
		logrus.WithError(err).WithField("email", email).Error("failed to render activation email")
		return
	}
	s.dispatch(ctx, msg, 0)
}

// dispatch hands msg to the notifier on its own goroutine so the caller's
// latency does not depend on delivery. Wait drains pending sends.
func (s *AccountService) dispatch(ctx context.Context, msg mailer.Message, userID uint) {
	if s.notifier == nil {
		logrus.WithField("tag", msg.Tag).Warn("no notifier configured, email dropped")
		return
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailTimeout)
	s.mail.Add(1)
	go func() {
		defer s.mail.Done()
		defer cancel()
		if err := s.notifier.Send(sendCtx, msg); err != nil {
			entry := logrus.WithError(err).WithFields(logrus.Fields{
				"to":  msg.To,
				"tag": msg.Tag,
			})
			if userID != 0 {
				entry = entry.WithField("user_id", userID)
			}
			entry.Error("failed to send email")
		}
	}()
}

// Wait blocks until every email dispatched so far has been handed off.
func (s *AccountService) Wait() {
	s.mail.Wait()
}
