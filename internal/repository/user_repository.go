package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"snippet-sharing-server/internal/model"
	"snippet-sharing-server/internal/util"
)

const userColumns = `id, email, username, hashed_password, is_active, is_admin, created_at, updated_at`

type UserRepository struct{}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// CreateUser : сохраняет нового пользователя
func (r *UserRepository) CreateUser(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error) {
	query := `
	INSERT INTO users (email, username, hashed_password, is_active, is_admin)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING ` + userColumns

	createdUser := &model.User{}
	err := sqlx.GetContext(ctx, exec, createdUser, query,
		user.Email, user.Username, user.PasswordHash, user.IsActive, user.IsAdmin)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, model.ErrUserAlreadyExists
		}
		return nil, util.LogError("[UserRepo] ошибка вставки данных в БД", err)
	}

	return createdUser, nil
}

// FindByID : ищет пользователя по id
func (r *UserRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.findOne(ctx, exec, query, id)
}

// FindByLogin : ищет пользователя по email или username
func (r *UserRepository) FindByLogin(ctx context.Context, exec sqlx.ExtContext, login string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 OR username = $1 LIMIT 1`
	return r.findOne(ctx, exec, query, login)
}

// FindByEmail : ищет пользователя по email
func (r *UserRepository) FindByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.findOne(ctx, exec, query, email)
}

func (r *UserRepository) findOne(ctx context.Context, exec sqlx.ExtContext, query string, arg any) (*model.User, error) {
	var user model.User
	err := sqlx.GetContext(ctx, exec, &user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, util.LogError("[UserRepo] не удалось найти пользователя в БД", err)
	}
	return &user, nil
}

// Activate : помечает пользователя активным
func (r *UserRepository) Activate(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	query := `UPDATE users SET is_active = TRUE, updated_at = NOW() WHERE id = $1`
	return r.updateOne(ctx, exec, "[UserRepo] не удалось активировать пользователя", query, id)
}

// UpdatePassword : меняет хэш пароля пользователя
func (r *UserRepository) UpdatePassword(ctx context.Context, exec sqlx.ExtContext, id int64, newPasswordHash string) error {
	query := `UPDATE users SET hashed_password = $2, updated_at = NOW() WHERE id = $1`
	return r.updateOne(ctx, exec, "[UserRepo] не удалось обновить пароль", query, id, newPasswordHash)
}

func (r *UserRepository) updateOne(ctx context.Context, exec sqlx.ExtContext, message, query string, args ...any) error {
	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return util.LogError(message, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return util.LogError(message, err)
	}
	if rowsAffected == 0 {
		return model.ErrUserNotFound
	}
	return nil
}
