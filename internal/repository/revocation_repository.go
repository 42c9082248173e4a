package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"snippet-sharing-server/config"
	"snippet-sharing-server/internal/model"
	"snippet-sharing-server/internal/util"
)

const (
	blacklistPrefix = "bl:"
	accessPrefix    = "access:"
	scanBatch       = 100
)

// RevocationRepository : чёрный список jti и индекс живых access-токенов в Redis.
// Все записи живут ровно до естественного истечения токена
type RevocationRepository struct {
	client *config.RedisClient
	now    func() time.Time
}

func NewRevocationRepository(rdb *config.RedisClient) *RevocationRepository {
	return &RevocationRepository{client: rdb, now: time.Now}
}

// Blacklist : TTL = exp - now. Уже истёкший токен не записывается
func (r *RevocationRepository) Blacklist(ctx context.Context, jti string, expiresAt int64) error {
	ttl := time.Unix(expiresAt, 0).Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	// SETEX работает в секундах, округляем вверх, чтобы запись не пропала раньше токена
	if rem := ttl % time.Second; rem != 0 {
		ttl += time.Second - rem
	}

	if err := r.client.Client.SetEx(ctx, blacklistKey(jti), "true", ttl).Err(); err != nil {
		return util.LogError("[RevocationRepo] ошибка записи в чёрный список", err)
	}
	return nil
}

func (r *RevocationRepository) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Client.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, util.LogError("[RevocationRepo] ошибка проверки чёрного списка", err)
	}
	return n > 0, nil
}

func (r *RevocationRepository) RegisterActive(ctx context.Context, jti string, userID int64, ttl time.Duration) error {
	if err := r.client.Client.SetEx(ctx, accessKey(jti), strconv.FormatInt(userID, 10), ttl).Err(); err != nil {
		return util.LogError("[RevocationRepo] ошибка регистрации access токена", err)
	}
	return nil
}

func (r *RevocationRepository) LookupActiveOwner(ctx context.Context, jti string) (int64, bool, error) {
	val, err := r.client.Client.Get(ctx, accessKey(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, util.LogError("[RevocationRepo] ошибка чтения индекса access токенов", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("[RevocationRepo] некорректный владелец токена %q: %w", val, err)
	}
	return userID, true, nil
}

// ScanActiveForUser : обходит access:* через SCAN. Не для горячего пути запросов.
// Ошибка чтения отдельного ключа пропускается, ошибка самого SCAN возвращается вместе с уже найденным
func (r *RevocationRepository) ScanActiveForUser(ctx context.Context, userID int64) ([]model.ActiveAccessToken, error) {
	var active []model.ActiveAccessToken

	iter := r.client.Client.Scan(ctx, 0, accessPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		jti := strings.TrimPrefix(key, accessPrefix)

		owner, found, err := r.LookupActiveOwner(ctx, jti)
		if err != nil {
			zap.L().Warn("[RevocationRepo] пропуск ключа при сканировании", zap.String("key", key), zap.Error(err))
			continue
		}
		if !found || owner != userID {
			continue
		}

		ttl, err := r.client.Client.PTTL(ctx, key).Result()
		if err != nil {
			zap.L().Warn("[RevocationRepo] не удалось получить TTL", zap.String("key", key), zap.Error(err))
			continue
		}
		if ttl <= 0 {
			continue
		}

		active = append(active, model.ActiveAccessToken{
			JTI:       jti,
			ExpiresAt: r.now().Add(ttl),
		})
	}

	if err := iter.Err(); err != nil {
		return active, util.LogError("[RevocationRepo] ошибка сканирования индекса access токенов", err)
	}

	return active, nil
}

func blacklistKey(jti string) string {
	return blacklistPrefix + jti
}

func accessKey(jti string) string {
	return accessPrefix + jti
}
