package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Signer encapsulates HS256 JWT generation and validation for one token kind.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a signer. A zero ttl produces tokens that are already expired.
func NewSigner(secret, issuer string, ttl time.Duration) (*Signer, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if ttl < 0 {
		return nil, fmt.Errorf("jwt ttl must not be negative: %s", ttl)
	}
	if strings.TrimSpace(issuer) == "" {
		issuer = "accounts"
	}
	return &Signer{
		secret: []byte(trimmed),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// registered stamps the standard claims for a token issued now.
func (s *Signer) registered(subject string) jwt.RegisteredClaims {
	now := s.now().UTC()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
}

func (s *Signer) sign(claims jwt.Claims) (string, error) {
	if s == nil {
		return "", errors.New("jwt signer is nil")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// parse validates signature, issuer and expiry and fills claims.
func (s *Signer) parse(tokenString string, claims jwt.Claims) error {
	if s == nil {
		return errors.New("jwt signer is nil")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	token, err := parser.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token claims")
	}
	return nil
}
