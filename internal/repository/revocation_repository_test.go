package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snippet-sharing-server/config"
	"snippet-sharing-server/internal/repository"
)

func newTestRevocationRepository(t *testing.T) (*repository.RevocationRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return repository.NewRevocationRepository(&config.RedisClient{Client: client}), mr
}

func TestBlacklist_SetsKeyWithRemainingLifetime(t *testing.T) {
	repo, mr := newTestRevocationRepository(t)
	ctx := context.Background()

	err := repo.Blacklist(ctx, "jti-1", time.Now().Add(time.Minute).Unix())
	require.NoError(t, err)

	assert.True(t, mr.Exists("bl:jti-1"))
	ttl := mr.TTL("bl:jti-1")
	assert.LessOrEqual(t, ttl, 61*time.Second)
	assert.GreaterOrEqual(t, ttl, 59*time.Second)

	blacklisted, err := repo.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, blacklisted)

	// повторный вызов ничего не ломает
	require.NoError(t, repo.Blacklist(ctx, "jti-1", time.Now().Add(time.Minute).Unix()))
	blacklisted, err = repo.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, blacklisted)
}

func TestBlacklist_ExpiredTokenIsNoop(t *testing.T) {
	repo, mr := newTestRevocationRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Blacklist(ctx, "old", time.Now().Add(-time.Minute).Unix()))
	require.NoError(t, repo.Blacklist(ctx, "now", time.Now().Unix()-1))

	assert.False(t, mr.Exists("bl:old"))
	assert.False(t, mr.Exists("bl:now"))
}

func TestBlacklist_SelfExpires(t *testing.T) {
	repo, mr := newTestRevocationRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Blacklist(ctx, "jti", time.Now().Add(10*time.Second).Unix()))
	mr.FastForward(11 * time.Second)

	blacklisted, err := repo.IsBlacklisted(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, blacklisted)
}

func TestIsBlacklisted_Unknown(t *testing.T) {
	repo, _ := newTestRevocationRepository(t)

	blacklisted, err := repo.IsBlacklisted(context.Background(), "missing")

	require.NoError(t, err)
	assert.False(t, blacklisted)
}

func TestRegisterActive_LookupOwner(t *testing.T) {
	repo, mr := newTestRevocationRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.RegisterActive(ctx, "jti-a", 7, 30*time.Minute))

	val, err := mr.Get("access:jti-a")
	require.NoError(t, err)
	assert.Equal(t, "7", val)
	assert.Equal(t, 30*time.Minute, mr.TTL("access:jti-a"))

	owner, found, err := repo.LookupActiveOwner(ctx, "jti-a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(7), owner)

	_, found, err = repo.LookupActiveOwner(ctx, "jti-missing")
	require.NoError(t, err)
	assert.False(t, found)

	mr.FastForward(31 * time.Minute)
	_, found, err = repo.LookupActiveOwner(ctx, "jti-a")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLookupActiveOwner_Corrupted(t *testing.T) {
	repo, mr := newTestRevocationRepository(t)
	require.NoError(t, mr.Set("access:bad", "not-a-number"))

	_, found, err := repo.LookupActiveOwner(context.Background(), "bad")

	assert.False(t, found)
	assert.Error(t, err)
}

func TestScanActiveForUser(t *testing.T) {
	repo, mr := newTestRevocationRepository(t)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		owner := int64(2)
		if i%50 == 0 {
			owner = 1
		}
		require.NoError(t, repo.RegisterActive(ctx, fmt.Sprintf("jti-%d", i), owner, 30*time.Minute))
	}
	require.NoError(t, mr.Set("bl:jti-0", "true"))
	require.NoError(t, mr.Set("access:broken", "x"))

	active, err := repo.ScanActiveForUser(ctx, 1)
	require.NoError(t, err)

	var jtis []string
	for _, token := range active {
		jtis = append(jtis, token.JTI)
		assert.True(t, token.ExpiresAt.After(time.Now().Add(29*time.Minute)))
	}
	assert.ElementsMatch(t, []string{"jti-0", "jti-50", "jti-100", "jti-150", "jti-200"}, jtis)

	none, err := repo.ScanActiveForUser(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestScanActiveForUser_MillisecondLifetime(t *testing.T) {
	repo, mr := newTestRevocationRepository(t)
	require.NoError(t, mr.Set("access:short", "1"))
	mr.SetTTL("access:short", 1500*time.Millisecond)

	before := time.Now()
	active, err := repo.ScanActiveForUser(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, active, 1)
	assert.False(t, active[0].ExpiresAt.Before(before.Add(1500*time.Millisecond)))
	assert.True(t, active[0].ExpiresAt.Before(time.Now().Add(1600*time.Millisecond)))
}

func TestRevocationRepository_RedisDown(t *testing.T) {
	repo, mr := newTestRevocationRepository(t)
	ctx := context.Background()
	mr.Close()

	_, err := repo.IsBlacklisted(ctx, "jti")
	assert.Error(t, err)

	err = repo.Blacklist(ctx, "jti", time.Now().Add(time.Minute).Unix())
	assert.Error(t, err)

	err = repo.RegisterActive(ctx, "jti", 1, time.Minute)
	assert.Error(t, err)

	_, err = repo.ScanActiveForUser(ctx, 1)
	assert.Error(t, err)
}
