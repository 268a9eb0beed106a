package service

import (
	"accounts/internal/auth"
	"accounts/internal/entity"
	"accounts/internal/mailer"
	"context"
	"path"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"
)

// memoryRepository is an in-memory model.Repository.
type memoryRepository struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*entity.DbUser
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{users: make(map[uint]*entity.DbUser)}
}

func (r *memoryRepository) CreateUser(_ context.Context, user *entity.DbUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	user.ID = r.nextID
	if user.Role == "" {
		user.Role = entity.UserRoleUser
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *memoryRepository) UpdateUser(_ context.Context, id uint, updates entity.UserUpdates) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if updates.Email != nil {
		for otherID, other := range r.users {
			if otherID != id && other.Email == *updates.Email {
				return gorm.ErrDuplicatedKey
			}
		}
		user.Email = *updates.Email
	}
	if updates.Name != nil {
		user.Name = *updates.Name
	}
	if updates.PasswordHash != nil {
		user.PasswordHash = *updates.PasswordHash
	}
	if updates.IsEmailConfirmed != nil {
		user.IsEmailConfirmed = *updates.IsEmailConfirmed
	}
	if updates.ResetPasswordToken != nil {
		user.ResetPasswordToken = *updates.ResetPasswordToken
	}
	user.UpdatedAt = time.Now()
	return nil
}

func (r *memoryRepository) find(match func(*entity.DbUser) bool) (*entity.DbUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if match(user) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryRepository) GetUserByEmail(_ context.Context, email string) (*entity.DbUser, error) {
	return r.find(func(u *entity.DbUser) bool { return email != "" && u.Email == email })
}

func (r *memoryRepository) GetUserByID(_ context.Context, id uint) (*entity.DbUser, error) {
	return r.find(func(u *entity.DbUser) bool { return u.ID == id })
}

func (r *memoryRepository) GetUserByResetToken(_ context.Context, token string) (*entity.DbUser, error) {
	return r.find(func(u *entity.DbUser) bool { return token != "" && u.ResetPasswordToken == token })
}

func (r *memoryRepository) ConfirmEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			user.IsEmailConfirmed = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memoryRepository) SetResetToken(ctx context.Context, id uint, token string) error {
	return r.UpdateUser(ctx, id, entity.UserUpdates{ResetPasswordToken: &token})
}

func (r *memoryRepository) ConsumeResetToken(_ context.Context, id uint, token, passwordHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || token == "" || user.ResetPasswordToken != token {
		return false, nil
	}
	user.PasswordHash = passwordHash
	user.ResetPasswordToken = ""
	return true, nil
}

func (r *memoryRepository) ListUsers(_ context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]entity.DbUser, 0, len(r.users))
	for _, user := range r.users {
		if params != nil && params.Role != "" && !strings.EqualFold(params.Role, user.Role) {
			continue
		}
		users = append(users, *user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	total := int64(len(users))
	return users, &entity.Meta{Page: 1, PageSize: total, Total: total}, nil
}

func (r *memoryRepository) CountUsers(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *memoryRepository) snapshot(id uint) entity.DbUser {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		return *user
	}
	return entity.DbUser{}
}

// capturingNotifier records every message it is asked to send. Reads drain
// the service's pending sends first.
type capturingNotifier struct {
	mu    sync.Mutex
	sent  []mailer.Message
	err   error
	delay time.Duration
	drain func()
}

func (n *capturingNotifier) Send(ctx context.Context, msg mailer.Message) error {
	if n.delay > 0 {
		select {
		case <-time.After(n.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *capturingNotifier) settle() {
	if n.drain != nil {
		n.drain()
	}
}

func (n *capturingNotifier) count() int {
	n.settle()
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *capturingNotifier) messages() []mailer.Message {
	n.settle()
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]mailer.Message(nil), n.sent...)
}

// lastToken returns the token embedded in the most recent link with the given tag.
func (n *capturingNotifier) lastToken(t *testing.T, tag string) string {
	t.Helper()
	n.settle()
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].Tag == tag {
			return path.Base(n.sent[i].Link)
		}
	}
	t.Fatalf("no %s email captured", tag)
	return ""
}

type testEnv struct {
	svc      *AccountService
	repo     *memoryRepository
	notifier *capturingNotifier
	tokens   *auth.Tokens
	now      *time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tokens, err := auth.NewTokens(auth.TokenConfig{
		Issuer:           "accounts-test",
		ActivationSecret: "activation-secret",
		ActivationTTL:    10 * time.Minute,
		SessionSecret:    "session-secret",
		SessionTTL:       7 * 24 * time.Hour,
		ResetSecret:      "reset-secret",
		ResetTTL:         10 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	now := time.Now()
	tokens = tokens.WithClock(func() time.Time { return now })

	repo := newMemoryRepository()
	notifier := &capturingNotifier{}
	composer := mailer.NewComposer("http://localhost:3000", "noreply@example.com")
	svc := NewAccountService(repo, tokens, notifier, composer)
	notifier.drain = svc.Wait
	t.Cleanup(svc.Wait)
	return &testEnv{
		svc:      svc,
		repo:     repo,
		notifier: notifier,
		tokens:   tokens,
		now:      &now,
	}
}

// signUpConfirmed registers and activates an account, returning its id.
func (e *testEnv) signUpConfirmed(t *testing.T, name, email, password string) uint {
	t.Helper()
	ctx := context.Background()
	if _, err := e.svc.SignUp(ctx, entity.SignUpRequest{Name: name, Email: email, Password: password}); err != nil {
		t.Fatalf("SignUp(%s): %v", email, err)
	}
	if _, err := e.svc.ConfirmEmail(ctx, e.notifier.lastToken(t, mailer.TagActivation)); err != nil {
		t.Fatalf("ConfirmEmail(%s): %v", email, err)
	}
	user, err := e.repo.GetUserByEmail(ctx, email)
	if err != nil {
		t.Fatalf("GetUserByEmail(%s): %v", email, err)
	}
	return user.ID
}
