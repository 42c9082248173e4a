// Package worker : фоновая очистка просроченных токенов и неиспользуемых тегов
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"snippet-sharing-server/internal/metrics"
	"snippet-sharing-server/internal/ports"
)

const cleanupTargetTags = "tags"

// Cleanup : удаляет строки токенов с истёкшим сроком и теги без сниппетов.
// Повторный запуск без новых данных ничего не удаляет и не ошибается
type Cleanup struct {
	tokens  []ports.ExpiringTokenRepository
	tags    ports.TagRepository
	tx      ports.Transactor
	logger  *zap.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

func NewCleanup(
	tokens []ports.ExpiringTokenRepository,
	tags ports.TagRepository,
	tx ports.Transactor,
	logger *zap.Logger,
	recorder metrics.Recorder,
) *Cleanup {
	return &Cleanup{
		tokens:  tokens,
		tags:    tags,
		tx:      tx,
		logger:  logger.Named("cleanup"),
		metrics: recorder,
		now:     time.Now,
	}
}

// RunOnce : один проход. Ошибка одной таблицы не мешает остальным
func (c *Cleanup) RunOnce(ctx context.Context) error {
	start := time.Now()
	now := c.now()
	var errs []error

	for _, repo := range c.tokens {
		deleted, err := repo.DeleteExpired(ctx, c.tx.Conn(), now)
		if err != nil {
			errs = append(errs, fmt.Errorf("[Cleanup] токены %s: %w", repo.Kind(), err))
			continue
		}
		c.metrics.RecordCleanup(string(repo.Kind()), deleted)
		if deleted > 0 {
			c.logger.Info("удалены просроченные токены",
				zap.String("kind", string(repo.Kind())),
				zap.Int64("deleted", deleted),
			)
		}
	}

	deleted, err := c.tags.DeleteUnused(ctx, c.tx.Conn())
	if err != nil {
		errs = append(errs, fmt.Errorf("[Cleanup] теги: %w", err))
	} else {
		c.metrics.RecordCleanup(cleanupTargetTags, deleted)
		if deleted > 0 {
			c.logger.Info("удалены неиспользуемые теги", zap.Int64("deleted", deleted))
		}
	}

	c.logger.Debug("проход очистки завершён", zap.Duration("took", time.Since(start)))
	return errors.Join(errs...)
}

// Start : запускает RunOnce сразу и затем по тикеру, пока ctx не отменён
func (c *Cleanup) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Info("фоновая очистка запущена", zap.Duration("interval", interval))

	c.run(ctx)
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("фоновая очистка остановлена")
			return
		case <-ticker.C:
			c.run(ctx)
		}
	}
}

func (c *Cleanup) run(ctx context.Context) {
	if err := c.RunOnce(ctx); err != nil {
		c.logger.Error("проход очистки завершился с ошибкой", zap.Error(err))
	}
}
