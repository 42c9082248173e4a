package model

import "time"

// TokenKind : вид хранимого токена с ограниченным сроком жизни
type TokenKind string

const (
	TokenKindActivation    TokenKind = "activation"
	TokenKindPasswordReset TokenKind = "password_reset"
	TokenKindRefresh       TokenKind = "refresh"
)

// TokenKinds : все виды, которые чистит фоновая задача
var TokenKinds = []TokenKind{TokenKindActivation, TokenKindPasswordReset, TokenKindRefresh}

// ExpiringToken : строка одной из таблиц токенов (активация, сброс пароля, refresh)
type ExpiringToken struct {
	ID        int64     `db:"id"`
	Kind      TokenKind `db:"-"`
	Token     string    `db:"token"`
	UserID    int64     `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

func (t *ExpiringToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// ActiveAccessToken : живой access-токен из индекса в Redis
type ActiveAccessToken struct {
	JTI       string
	ExpiresAt time.Time
}

// TokensPair содержит пару access и refresh токенов.
// При refresh RefreshToken пустой: refresh-токен не ротируется
type TokensPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}
