// Package session keeps the mock-authenticated user of the current session.
// Credentials are trusted as given; there is no password and no verification.
//
// Package session 保存当前会话中模拟认证的用户。凭据按原样信任，没有密码也没有校验。
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	hserrors "github.com/Humphrey-He/hshop/pkg/errors"
	"github.com/Humphrey-He/hshop/pkg/storage"
)

// DefaultKey is the session storage key of the user.
const DefaultKey = "user"

// User is the signed-in user.
//
// User 是已登录的用户。
type User struct {
	Name       string    `json:"name" validate:"required"`
	Email      string    `json:"email" validate:"required,email"`
	Token      string    `json:"token,omitempty"`
	LoggedInAt time.Time `json:"loggedInAt"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used to stamp logins.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Manager stores the current user in a session-scoped store, which should be
// a storage.MemoryBackend so the user is forgotten when the process ends.
//
// Manager 把当前用户保存在会话级存储中（应使用storage.MemoryBackend，
// 以便进程结束时忘记该用户）。
type Manager struct {
	store    *storage.Adapter
	key      string
	validate *validator.Validate
	now      func() time.Time
	logger   *zap.Logger
}

// NewManager creates a session Manager.
//
// NewManager 创建会话Manager。
func NewManager(store *storage.Adapter, key string, opts ...Option) *Manager {
	if key == "" {
		key = DefaultKey
	}
	m := &Manager{
		store:    store,
		key:      key,
		validate: validator.New(),
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Login signs in name/email, replacing any current user, and returns the user
// with a fresh token.
//
// Login 使用name/email登录（替换当前用户），并返回带有新令牌的用户。
func (m *Manager) Login(ctx context.Context, name, email string) (User, error) {
	u := User{
		Name:       strings.TrimSpace(name),
		Email:      strings.TrimSpace(email),
		Token:      uuid.NewString(),
		LoggedInAt: m.now(),
	}
	if err := m.validate.Struct(u); err != nil {
		return User{}, fmt.Errorf("%w: %v", hserrors.ErrInvalidCredentials, err)
	}

	if err := m.store.Write(ctx, m.key, u); err != nil {
		return User{}, err
	}

	m.logger.Info("user signed in", zap.String("email", u.Email))
	return u, nil
}

// Current returns the signed-in user.
//
// Current 返回已登录的用户。
func (m *Manager) Current(ctx context.Context) (User, bool) {
	var u User
	if !m.store.Read(ctx, m.key, &u) || u.Name == "" {
		return User{}, false
	}
	return u, true
}

// Authenticate returns the current user if token belongs to it.
//
// Authenticate 如果token属于当前用户，则返回该用户。
func (m *Manager) Authenticate(ctx context.Context, token string) (User, bool) {
	u, ok := m.Current(ctx)
	if !ok || token == "" || u.Token != token {
		return User{}, false
	}
	return u, true
}

// Logout forgets the current user.
//
// Logout 忘记当前用户。
func (m *Manager) Logout(ctx context.Context) error {
	return m.store.Remove(ctx, m.key)
}
