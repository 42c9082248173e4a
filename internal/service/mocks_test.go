package service_test

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"snippet-sharing-server/internal/model"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error) {
	args := m.Called(ctx, exec, user)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*model.User, error) {
	args := m.Called(ctx, exec, id)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByLogin(ctx context.Context, exec sqlx.ExtContext, login string) (*model.User, error) {
	args := m.Called(ctx, exec, login)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error) {
	args := m.Called(ctx, exec, email)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Activate(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	args := m.Called(ctx, exec, id)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, exec sqlx.ExtContext, id int64, hash string) error {
	args := m.Called(ctx, exec, id, hash)
	return args.Error(0)
}

type MockTokenRepository struct {
	mock.Mock
	kind model.TokenKind
}

func (m *MockTokenRepository) Kind() model.TokenKind {
	return m.kind
}

func (m *MockTokenRepository) Create(ctx context.Context, exec sqlx.ExtContext, userID int64, token string, expiresAt time.Time) (*model.ExpiringToken, error) {
	args := m.Called(ctx, exec, userID, token, expiresAt)
	if t := args.Get(0); t != nil {
		return t.(*model.ExpiringToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenRepository) GetByToken(ctx context.Context, exec sqlx.ExtContext, token string) (*model.ExpiringToken, error) {
	args := m.Called(ctx, exec, token)
	if t := args.Get(0); t != nil {
		return t.(*model.ExpiringToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenRepository) ListByUser(ctx context.Context, exec sqlx.ExtContext, userID int64) ([]model.ExpiringToken, error) {
	args := m.Called(ctx, exec, userID)
	if t := args.Get(0); t != nil {
		return t.([]model.ExpiringToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenRepository) Delete(ctx context.Context, exec sqlx.ExtContext, token string) (bool, error) {
	args := m.Called(ctx, exec, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenRepository) DeleteByUser(ctx context.Context, exec sqlx.ExtContext, userID int64) (int64, error) {
	args := m.Called(ctx, exec, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenRepository) DeleteExpired(ctx context.Context, exec sqlx.ExtContext, now time.Time) (int64, error) {
	args := m.Called(ctx, exec, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockRevocationStore struct {
	mock.Mock
}

func (m *MockRevocationStore) Blacklist(ctx context.Context, jti string, expiresAt int64) error {
	args := m.Called(ctx, jti, expiresAt)
	return args.Error(0)
}

func (m *MockRevocationStore) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

func (m *MockRevocationStore) RegisterActive(ctx context.Context, jti string, userID int64, ttl time.Duration) error {
	args := m.Called(ctx, jti, userID, ttl)
	return args.Error(0)
}

func (m *MockRevocationStore) LookupActiveOwner(ctx context.Context, jti string) (int64, bool, error) {
	args := m.Called(ctx, jti)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockRevocationStore) ScanActiveForUser(ctx context.Context, userID int64) ([]model.ActiveAccessToken, error) {
	args := m.Called(ctx, userID)
	if t := args.Get(0); t != nil {
		return t.([]model.ActiveAccessToken), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockTagRepository struct {
	mock.Mock
}

func (m *MockTagRepository) FindByNames(ctx context.Context, exec sqlx.ExtContext, names []string) ([]model.Tag, error) {
	args := m.Called(ctx, exec, names)
	if t := args.Get(0); t != nil {
		return t.([]model.Tag), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTagRepository) GetOrCreate(ctx context.Context, exec sqlx.ExtContext, name string) (*model.Tag, error) {
	args := m.Called(ctx, exec, name)
	if t := args.Get(0); t != nil {
		return t.(*model.Tag), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTagRepository) DeleteUnused(ctx context.Context, exec sqlx.ExtContext) (int64, error) {
	args := m.Called(ctx, exec)
	return args.Get(0).(int64), args.Error(1)
}

type MockSessionRevoker struct {
	mock.Mock
}

func (m *MockSessionRevoker) RevokeAll(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
