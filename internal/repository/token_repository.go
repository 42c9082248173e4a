package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"snippet-sharing-server/internal/model"
	"snippet-sharing-server/internal/util"
)

// TokenRepository : токены с ограниченным сроком жизни. Одна структура на все виды,
// вид определяет таблицу и то, может ли у пользователя быть несколько токенов
type TokenRepository struct {
	kind          model.TokenKind
	table         string
	singlePerUser bool
}

func NewTokenRepository(kind model.TokenKind) (*TokenRepository, error) {
	switch kind {
	case model.TokenKindRefresh:
		return &TokenRepository{kind: kind, table: "refresh_tokens"}, nil
	case model.TokenKindActivation:
		return &TokenRepository{kind: kind, table: "activation_tokens", singlePerUser: true}, nil
	case model.TokenKindPasswordReset:
		return &TokenRepository{kind: kind, table: "password_reset_tokens", singlePerUser: true}, nil
	default:
		return nil, fmt.Errorf("[TokenRepo] неизвестный вид токена %q", kind)
	}
}

func (r *TokenRepository) Kind() model.TokenKind {
	return r.kind
}

// Create : сохраняет токен. Для видов "один на пользователя" предыдущий токен заменяется
func (r *TokenRepository) Create(ctx context.Context, exec sqlx.ExtContext, userID int64, token string, expiresAt time.Time) (*model.ExpiringToken, error) {
	query := fmt.Sprintf(`INSERT INTO %s (token, user_id, expires_at) VALUES ($1, $2, $3)`, r.table)
	if r.singlePerUser {
		query += ` ON CONFLICT (user_id) DO UPDATE SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at, created_at = NOW()`
	}
	query += ` RETURNING id, token, user_id, expires_at, created_at`

	created := &model.ExpiringToken{}
	if err := sqlx.GetContext(ctx, exec, created, query, token, userID, expiresAt); err != nil {
		return nil, util.LogError(r.prefix()+" ошибка сохранения токена", err)
	}
	created.Kind = r.kind

	return created, nil
}

func (r *TokenRepository) GetByToken(ctx context.Context, exec sqlx.ExtContext, token string) (*model.ExpiringToken, error) {
	query := fmt.Sprintf(`SELECT id, token, user_id, expires_at, created_at FROM %s WHERE token = $1`, r.table)

	found := &model.ExpiringToken{}
	if err := sqlx.GetContext(ctx, exec, found, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrTokenNotFound
		}
		return nil, util.LogError(r.prefix()+" ошибка поиска токена", err)
	}
	found.Kind = r.kind

	return found, nil
}

func (r *TokenRepository) ListByUser(ctx context.Context, exec sqlx.ExtContext, userID int64) ([]model.ExpiringToken, error) {
	query := fmt.Sprintf(`SELECT id, token, user_id, expires_at, created_at FROM %s WHERE user_id = $1 ORDER BY id`, r.table)

	var tokens []model.ExpiringToken
	if err := sqlx.SelectContext(ctx, exec, &tokens, query, userID); err != nil {
		return nil, util.LogError(r.prefix()+" ошибка получения токенов пользователя", err)
	}
	for i := range tokens {
		tokens[i].Kind = r.kind
	}

	return tokens, nil
}

// Delete : удаляет токен, если он есть. Отсутствие токена ошибкой не считается
func (r *TokenRepository) Delete(ctx context.Context, exec sqlx.ExtContext, token string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE token = $1`, r.table)
	n, err := r.exec(ctx, exec, query, token)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *TokenRepository) DeleteByUser(ctx context.Context, exec sqlx.ExtContext, userID int64) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, r.table)
	return r.exec(ctx, exec, query, userID)
}

func (r *TokenRepository) DeleteExpired(ctx context.Context, exec sqlx.ExtContext, now time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at < $1`, r.table)
	return r.exec(ctx, exec, query, now)
}

func (r *TokenRepository) exec(ctx context.Context, exec sqlx.ExtContext, query string, args ...any) (int64, error) {
	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, util.LogError(r.prefix()+" ошибка удаления токенов", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, util.LogError(r.prefix()+" не удалось получить число удалённых строк", err)
	}
	return rowsAffected, nil
}

func (r *TokenRepository) prefix() string {
	return "[TokenRepo:" + string(r.kind) + "]"
}
