package config

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type Database struct {
	*sqlx.DB
}

func NewDatabaseConnection(dbDriver string, dbConnectionStr string) (*Database, error) {
	database, err := sqlx.Connect(dbDriver, dbConnectionStr)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := database.Ping(); err != nil {
		return nil, fmt.Errorf("ошибка пинга БД: %w", err)
	}

	zap.L().Info("подключение к БД успешно выполнено")
	return &Database{
		database,
	}, nil
}

// Conn : исполнитель запросов вне транзакции
func (db *Database) Conn() sqlx.ExtContext {
	return db.DB
}

// BeginTX : открывает транзакцию и возвращает исполнитель, rollback и commit.
// rollback после успешного commit безопасен и ничего не делает
func (db *Database) BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error) {
	tx, err := db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("не удалось начать транзакцию: %w", err)
	}

	done := false
	rollback := func() error {
		if done {
			return nil
		}
		done = true
		return tx.Rollback()
	}
	commit := func() error {
		if done {
			return fmt.Errorf("транзакция уже завершена")
		}
		done = true
		return tx.Commit()
	}

	return tx, rollback, commit, nil
}

func (db *Database) Close() error {
	err := db.DB.Close()
	if err != nil {
		return fmt.Errorf("ошибка закрытия соединения с БД: %w", err)
	}

	return nil
}
