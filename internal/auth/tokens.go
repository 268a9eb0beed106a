package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"accounts/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
)

// TokenConfig carries the secrets and lifetimes of the three token kinds.
type TokenConfig struct {
	Issuer string

	ActivationSecret string
	ActivationTTL    time.Duration

	SessionSecret string
	SessionTTL    time.Duration

	ResetSecret string
	ResetTTL    time.Duration
}

// ActivationClaims proves control of an email address during sign-up.
type ActivationClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SessionClaims identifies the authenticated account.
type SessionClaims struct {
	UserID uint `json:"userId"`
	jwt.RegisteredClaims
}

// ResetClaims authorises a single password change.
type ResetClaims struct {
	UserID uint   `json:"userId"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies activation, session and reset tokens.
// Each kind is signed with its own secret, so a token never decodes as another kind.
type Tokens struct {
	activation *Signer
	session    *Signer
	reset      *Signer
}

// NewTokens builds the three codecs from explicit configuration.
func NewTokens(cfg TokenConfig) (*Tokens, error) {
	activation, err := NewSigner(cfg.ActivationSecret, cfg.Issuer, cfg.ActivationTTL)
	if err != nil {
		return nil, fmt.Errorf("activation token: %w", err)
	}
	session, err := NewSigner(cfg.SessionSecret, cfg.Issuer, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("session token: %w", err)
	}
	reset, err := NewSigner(cfg.ResetSecret, cfg.Issuer, cfg.ResetTTL)
	if err != nil {
		return nil, fmt.Errorf("reset token: %w", err)
	}
	return &Tokens{activation: activation, session: session, reset: reset}, nil
}

// WithClock replaces the time source of every codec.
func (t *Tokens) WithClock(now func() time.Time) *Tokens {
	for _, s := range []*Signer{t.activation, t.session, t.reset} {
		s.now = now
	}
	return t
}

// IssueActivation 生成邮箱激活令牌
func (t *Tokens) IssueActivation(email string) (string, error) {
	if email == "" {
		return "", errors.New("activation token requires an email")
	}
	return t.activation.sign(ActivationClaims{
		Email:            email,
		RegisteredClaims: t.activation.registered(email),
	})
}

// ParseActivation 校验邮箱激活令牌
func (t *Tokens) ParseActivation(token string) (*ActivationClaims, error) {
	claims := &ActivationClaims{}
	if err := t.activation.parse(token, claims); err != nil {
		return nil, apperr.InvalidToken(err)
	}
	if claims.Email == "" {
		return nil, apperr.InvalidToken(errors.New("activation token has no email"))
	}
	return claims, nil
}

// IssueSession returns a session token and its expiry.
func (t *Tokens) IssueSession(userID uint) (string, time.Time, error) {
	if userID == 0 {
		return "", time.Time{}, errors.New("invalid user for token generation")
	}
	claims := SessionClaims{
		UserID:           userID,
		RegisteredClaims: t.session.registered(strconv.FormatUint(uint64(userID), 10)),
	}
	signed, err := t.session.sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}

// ParseSession 校验会话令牌
func (t *Tokens) ParseSession(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := t.session.parse(token, claims); err != nil {
		return nil, apperr.InvalidToken(err)
	}
	if claims.UserID == 0 {
		return nil, apperr.InvalidToken(errors.New("session token has no user"))
	}
	return claims, nil
}

// IssueReset 生成重置密码令牌
func (t *Tokens) IssueReset(userID uint, name string) (string, error) {
	if userID == 0 {
		return "", errors.New("invalid user for reset token")
	}
	return t.reset.sign(ResetClaims{
		UserID:           userID,
		Name:             name,
		RegisteredClaims: t.reset.registered(strconv.FormatUint(uint64(userID), 10)),
	})
}

// ParseReset 校验重置密码令牌
func (t *Tokens) ParseReset(token string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := t.reset.parse(token, claims); err != nil {
		return nil, apperr.InvalidToken(err)
	}
	if claims.UserID == 0 {
		return nil, apperr.InvalidToken(errors.New("reset token has no user"))
	}
	return claims, nil
}
