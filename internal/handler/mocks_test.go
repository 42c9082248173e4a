package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"snippet-sharing-server/internal/model"
)

type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Login(ctx context.Context, login, password string) (*model.TokensPair, error) {
	args := m.Called(ctx, login, password)
	if t := args.Get(0); t != nil {
		return t.(*model.TokensPair), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionService) Refresh(ctx context.Context, refreshToken string) (*model.TokensPair, error) {
	args := m.Called(ctx, refreshToken)
	if t := args.Get(0); t != nil {
		return t.(*model.TokensPair), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionService) Logout(ctx context.Context, refreshToken, accessToken string) error {
	return m.Called(ctx, refreshToken, accessToken).Error(0)
}

func (m *MockSessionService) RevokeAll(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, email, username, password string) (*model.User, error) {
	args := m.Called(ctx, email, username, password)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) Activate(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockUserService) RequestPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockUserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return m.Called(ctx, token, newPassword).Error(0)
}

func (m *MockUserService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	return m.Called(ctx, userID, oldPassword, newPassword).Error(0)
}

func (m *MockUserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSnippetService struct {
	mock.Mock
}

func (m *MockSnippetService) Create(ctx context.Context, in model.CreateSnippetInput) (*model.Snippet, error) {
	args := m.Called(ctx, in)
	if s := args.Get(0); s != nil {
		return s.(*model.Snippet), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSnippetService) Get(ctx context.Context, uuid string, requester model.Requester) (*model.Snippet, error) {
	args := m.Called(ctx, uuid, requester)
	if s := args.Get(0); s != nil {
		return s.(*model.Snippet), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSnippetService) List(ctx context.Context, filter model.SnippetFilter, requester model.Requester) ([]model.Snippet, error) {
	args := m.Called(ctx, filter, requester)
	if s := args.Get(0); s != nil {
		return s.([]model.Snippet), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSnippetService) Update(ctx context.Context, uuid string, in model.UpdateSnippetInput, requester model.Requester) (*model.Snippet, error) {
	args := m.Called(ctx, uuid, in, requester)
	if s := args.Get(0); s != nil {
		return s.(*model.Snippet), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSnippetService) Delete(ctx context.Context, uuid string, requester model.Requester) error {
	return m.Called(ctx, uuid, requester).Error(0)
}

func (m *MockSnippetService) AddFavorite(ctx context.Context, uuid string, requester model.Requester) error {
	return m.Called(ctx, uuid, requester).Error(0)
}

func (m *MockSnippetService) RemoveFavorite(ctx context.Context, uuid string, requester model.Requester) error {
	return m.Called(ctx, uuid, requester).Error(0)
}

func (m *MockSnippetService) ListFavorites(ctx context.Context, filter model.FavoritesFilter, requester model.Requester) ([]model.Snippet, error) {
	args := m.Called(ctx, filter, requester)
	if s := args.Get(0); s != nil {
		return s.([]model.Snippet), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSnippetService) Search(ctx context.Context, title string, limit int, requester model.Requester) ([]model.SnippetSearchItem, error) {
	args := m.Called(ctx, title, limit, requester)
	if s := args.Get(0); s != nil {
		return s.([]model.SnippetSearchItem), args.Error(1)
	}
	return nil, args.Error(1)
}
