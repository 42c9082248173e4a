package ports

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"snippet-sharing-server/internal/model"
	"snippet-sharing-server/internal/security"
)

// RevocationStore : deny-list отозванных jti и индекс живых access-токенов
type RevocationStore interface {
	Blacklist(ctx context.Context, jti string, expiresAt int64) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	RegisterActive(ctx context.Context, jti string, userID int64, ttl time.Duration) error
	LookupActiveOwner(ctx context.Context, jti string) (int64, bool, error)
	ScanActiveForUser(ctx context.Context, userID int64) ([]model.ActiveAccessToken, error)
}

type TokenIssuer interface {
	IssueAccess(ctx context.Context, user *model.User) (string, error)
	IssueRefresh(user *model.User) (string, *security.Claims, error)
	Verify(ctx context.Context, token string, kind security.TokenType) (*security.Claims, error)
	DecodeForRevocation(token string, kind security.TokenType) *security.Claims
}

// ExpiringTokenRepository : одна реализация на каждый model.TokenKind
type ExpiringTokenRepository interface {
	Kind() model.TokenKind
	Create(ctx context.Context, exec sqlx.ExtContext, userID int64, token string, expiresAt time.Time) (*model.ExpiringToken, error)
	GetByToken(ctx context.Context, exec sqlx.ExtContext, token string) (*model.ExpiringToken, error)
	ListByUser(ctx context.Context, exec sqlx.ExtContext, userID int64) ([]model.ExpiringToken, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, token string) (bool, error)
	DeleteByUser(ctx context.Context, exec sqlx.ExtContext, userID int64) (int64, error)
	DeleteExpired(ctx context.Context, exec sqlx.ExtContext, now time.Time) (int64, error)
}

type SessionService interface {
	Login(ctx context.Context, login, password string) (*model.TokensPair, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokensPair, error)
	Logout(ctx context.Context, refreshToken, accessToken string) error
	RevokeAll(ctx context.Context, userID int64) error
}
