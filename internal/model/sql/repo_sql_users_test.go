package sql

import (
	"accounts/internal/entity"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *GormRepository {
	t.Helper()

	path := filepath.Join(t.TempDir(), "accounts.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&entity.DbUser{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewGormRepository(db)
}

func createTestUser(t *testing.T, repo *GormRepository, email string) *entity.DbUser {
	t.Helper()
	user := &entity.DbUser{
		Name:         "Ada",
		Email:        email,
		PasswordHash: "hash",
		Role:         entity.UserRoleUser,
	}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%q): %v", email, err)
	}
	return user
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	repo := newTestRepository(t)
	createTestUser(t, repo, "ada@example.com")

	err := repo.CreateUser(context.Background(), &entity.DbUser{
		Name:         "Other",
		Email:        "ada@example.com",
		PasswordHash: "hash",
	})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected ErrDuplicatedKey, got %v", err)
	}
}

func TestCreateUserDefaults(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	user := &entity.DbUser{Name: "Ada", Email: "ada@example.com", PasswordHash: "hash"}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	stored, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if stored.IsEmailConfirmed {
		t.Fatalf("new account should start unconfirmed")
	}
	if stored.Role != entity.UserRoleUser {
		t.Fatalf("expected default role USER, got %q", stored.Role)
	}
	if stored.ResetPasswordToken != "" {
		t.Fatalf("expected empty reset token, got %q", stored.ResetPasswordToken)
	}
}

func TestGetUserByEmailIsExact(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	createTestUser(t, repo, "ada@example.com")

	if _, err := repo.GetUserByEmail(ctx, "ada@example.com"); err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if _, err := repo.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if _, err := repo.GetUserByEmail(ctx, ""); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for empty email, got %v", err)
	}
}

func TestConfirmEmail(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	user := createTestUser(t, repo, "ada@example.com")

	for i := 0; i < 2; i++ {
		if err := repo.ConfirmEmail(ctx, "ada@example.com"); err != nil {
			t.Fatalf("ConfirmEmail attempt %d: %v", i+1, err)
		}
	}

	stored, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !stored.IsEmailConfirmed {
		t.Fatalf("expected account to be confirmed")
	}

	if err := repo.ConfirmEmail(ctx, "nobody@example.com"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestResetTokenLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	user := createTestUser(t, repo, "ada@example.com")

	if err := repo.SetResetToken(ctx, user.ID, "token-1"); err != nil {
		t.Fatalf("SetResetToken: %v", err)
	}
	if err := repo.SetResetToken(ctx, user.ID, "token-2"); err != nil {
		t.Fatalf("SetResetToken: %v", err)
	}

	if _, err := repo.GetUserByResetToken(ctx, "token-1"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("superseded token should not resolve, got %v", err)
	}
	found, err := repo.GetUserByResetToken(ctx, "token-2")
	if err != nil {
		t.Fatalf("GetUserByResetToken: %v", err)
	}
	if found.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, found.ID)
	}

	ok, err := repo.ConsumeResetToken(ctx, user.ID, "token-1", "new-hash")
	if err != nil {
		t.Fatalf("ConsumeResetToken: %v", err)
	}
	if ok {
		t.Fatalf("stale token must not be consumed")
	}

	ok, err = repo.ConsumeResetToken(ctx, user.ID, "token-2", "new-hash")
	if err != nil {
		t.Fatalf("ConsumeResetToken: %v", err)
	}
	if !ok {
		t.Fatalf("expected current token to be consumed")
	}

	ok, err = repo.ConsumeResetToken(ctx, user.ID, "token-2", "other-hash")
	if err != nil {
		t.Fatalf("ConsumeResetToken replay: %v", err)
	}
	if ok {
		t.Fatalf("token must be single use")
	}

	stored, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if stored.PasswordHash != "new-hash" {
		t.Fatalf("expected password hash to be replaced, got %q", stored.PasswordHash)
	}
	if stored.ResetPasswordToken != "" {
		t.Fatalf("expected reset token to be cleared, got %q", stored.ResetPasswordToken)
	}
	if _, err := repo.GetUserByResetToken(ctx, ""); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("empty token must never resolve, got %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	user := createTestUser(t, repo, "ada@example.com")
	other := createTestUser(t, repo, "bob@example.com")

	name := "Ada Lovelace"
	if err := repo.UpdateUser(ctx, user.ID, entity.UserUpdates{Name: &name}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	stored, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if stored.Name != name || stored.Email != "ada@example.com" {
		t.Fatalf("unexpected stored user: %+v", stored)
	}

	taken := other.Email
	err = repo.UpdateUser(ctx, user.ID, entity.UserUpdates{Email: &taken})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected ErrDuplicatedKey, got %v", err)
	}

	if err := repo.UpdateUser(ctx, user.ID, entity.UserUpdates{}); err != nil {
		t.Fatalf("empty update should be a no-op, got %v", err)
	}
	if err := repo.UpdateUser(ctx, 9999, entity.UserUpdates{Name: &name}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	createTestUser(t, repo, "ada@example.com")
	createTestUser(t, repo, "bob@example.com")
	admin := &entity.DbUser{Name: "Root", Email: "root@example.com", PasswordHash: "hash", Role: entity.UserRoleAdmin}
	if err := repo.CreateUser(ctx, admin); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	users, meta, err := repo.ListUsers(ctx, nil)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 3 || meta.Total != 3 {
		t.Fatalf("expected 3 users, got %d (total %d)", len(users), meta.Total)
	}
	if users[0].Email != "ada@example.com" {
		t.Fatalf("expected id ordering, first was %q", users[0].Email)
	}

	users, _, err = repo.ListUsers(ctx, &entity.UserQuery{Role: "admin"})
	if err != nil {
		t.Fatalf("ListUsers role: %v", err)
	}
	if len(users) != 1 || users[0].Email != "root@example.com" {
		t.Fatalf("unexpected role filter result: %+v", users)
	}

	users, _, err = repo.ListUsers(ctx, &entity.UserQuery{Keyword: "BOB"})
	if err != nil {
		t.Fatalf("ListUsers keyword: %v", err)
	}
	if len(users) != 1 || users[0].Email != "bob@example.com" {
		t.Fatalf("unexpected keyword filter result: %+v", users)
	}

	users, meta, err = repo.ListUsers(ctx, &entity.UserQuery{BaseParams: entity.BaseParams{Page: 2, PageSize: 2}})
	if err != nil {
		t.Fatalf("ListUsers paged: %v", err)
	}
	if len(users) != 1 || meta.Page != 2 || meta.PageSize != 2 || meta.Total != 3 {
		t.Fatalf("unexpected page: %d users, meta %+v", len(users), meta)
	}

	count, err := repo.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 users, got %d", count)
	}
}

func TestNilRepository(t *testing.T) {
	var repo *GormRepository
	if _, err := repo.GetUserByID(context.Background(), 1); !errors.Is(err, errRepositoryNotReady) {
		t.Fatalf("expected errRepositoryNotReady, got %v", err)
	}
	if _, _, err := repo.ListUsers(context.Background(), nil); !errors.Is(err, errRepositoryNotReady) {
		t.Fatalf("expected errRepositoryNotReady from ListUsers, got %v", err)
	}
}

func TestPageWindow(t *testing.T) {
	tests := []struct {
		name     string
		params   entity.BaseParams
		total    int64
		wantPage int64
		wantSize int64
	}{
		{name: "unpaginated returns everything", params: entity.BaseParams{}, total: 7, wantPage: 1, wantSize: 7},
		{name: "page defaults to first", params: entity.BaseParams{PageSize: 3}, total: 7, wantPage: 1, wantSize: 3},
		{name: "explicit page", params: entity.BaseParams{Page: 3, PageSize: 2}, total: 7, wantPage: 3, wantSize: 2},
		{name: "negative size ignored", params: entity.BaseParams{Page: 4, PageSize: -1}, total: 2, wantPage: 1, wantSize: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := newPageWindow(tt.params).meta(tt.total)
			if meta.Page != tt.wantPage || meta.PageSize != tt.wantSize || meta.Total != tt.total {
				t.Fatalf("unexpected meta %+v", meta)
			}
		})
	}
}
