package model

import (
	"accounts/internal/auth"
	"accounts/internal/config"
	"accounts/internal/entity"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SeedAdmin creates the configured administrator on first start.
// Nothing happens when ADMIN_EMAIL is unset or the email is already registered;
// an existing account is never promoted or modified.
func SeedAdmin(ctx context.Context, repo Repository, cfg config.Config) error {
	if repo == nil {
		return nil
	}
	email := strings.TrimSpace(cfg.AdminEmail)
	if email == "" {
		return nil
	}

	existing, err := repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if !existing.IsAdmin() {
			logrus.WithField("email", email).Warn("admin seed skipped: email belongs to a non-admin account")
		}
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return fmt.Errorf("lookup admin account: %w", err)
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	name := strings.TrimSpace(cfg.AdminName)
	if name == "" {
		name = "Admin"
	}

	admin := &entity.DbUser{
		Name:             name,
		Email:            email,
		PasswordHash:     hash,
		IsEmailConfirmed: true,
		Role:             entity.UserRoleAdmin,
	}
	if err := repo.CreateUser(ctx, admin); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("create admin account: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"email":   email,
		"user_id": admin.ID,
	}).Info("admin account created")
	return nil
}
