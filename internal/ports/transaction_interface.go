package ports

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Transactor : доступ к реляционной БД. Транзакция никогда не охватывает другие хранилища
type Transactor interface {
	Conn() sqlx.ExtContext
	BeginTX(ctx context.Context) (exec sqlx.ExtContext, rollback func() error, commit func() error, err error)
}
