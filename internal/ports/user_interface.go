package ports

import (
	"context"

	"github.com/jmoiron/sqlx"

	"snippet-sharing-server/internal/model"
)

type UserRepository interface {
	CreateUser(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*model.User, error)
	FindByLogin(ctx context.Context, exec sqlx.ExtContext, login string) (*model.User, error)
	FindByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error)
	Activate(ctx context.Context, exec sqlx.ExtContext, id int64) error
	UpdatePassword(ctx context.Context, exec sqlx.ExtContext, id int64, newPasswordHash string) error
}

type UserService interface {
	Register(ctx context.Context, email, username, password string) (*model.User, error)
	Activate(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
}

// Notifier : доставка токенов активации и сброса пароля
type Notifier interface {
	NotifyActivation(ctx context.Context, user *model.User, token string) error
	NotifyPasswordReset(ctx context.Context, user *model.User, token string) error
}
