package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmationTokenStoreAndConsume(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	repo := NewConfirmationTokenRepository(rdb)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, "alice@example.com", "tok-abc", 24*time.Hour))

	record, err := repo.Consume(ctx, "tok-abc")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", record.Email)
	assert.WithinDuration(t, time.Now(), record.CreatedAt, time.Minute)

	// Single use: the same token cannot be consumed twice.
	_, err = repo.Consume(ctx, "tok-abc")
	assert.ErrorIs(t, err, ErrConfirmationTokenNotFound)
}

func TestConfirmationTokenUnknown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	repo := NewConfirmationTokenRepository(rdb)

	_, err := repo.Consume(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrConfirmationTokenNotFound)
}

func TestConfirmationTokenReissueInvalidatesOld(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	repo := NewConfirmationTokenRepository(rdb)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, "alice@example.com", "tok-old", 24*time.Hour))
	require.NoError(t, repo.Store(ctx, "alice@example.com", "tok-new", 24*time.Hour))

	_, err := repo.Consume(ctx, "tok-old")
	assert.ErrorIs(t, err, ErrConfirmationTokenNotFound, "reissuing must invalidate the previous token")

	record, err := repo.Consume(ctx, "tok-new")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", record.Email)
}

func TestConfirmationTokenExpiry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	repo := NewConfirmationTokenRepository(rdb)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, "alice@example.com", "tok-abc", 24*time.Hour))

	mr.FastForward(24*time.Hour + time.Minute)

	_, err := repo.Consume(ctx, "tok-abc")
	assert.ErrorIs(t, err, ErrConfirmationTokenNotFound)
}

func TestConfirmationTokenDeleteByEmail(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	repo := NewConfirmationTokenRepository(rdb)
	ctx := context.Background()

	// Deleting when nothing was issued is not an error.
	require.NoError(t, repo.DeleteByEmail(ctx, "nobody@example.com"))

	require.NoError(t, repo.Store(ctx, "alice@example.com", "tok-abc", 24*time.Hour))
	require.NoError(t, repo.DeleteByEmail(ctx, "alice@example.com"))

	_, err := repo.Consume(ctx, "tok-abc")
	assert.ErrorIs(t, err, ErrConfirmationTokenNotFound)
}

func TestConfirmationTokenStoredUnderDigest(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	repo := NewConfirmationTokenRepository(rdb)
	ctx := context.Background()

	token := "plain-token-value"
	require.NoError(t, repo.Store(ctx, "alice@example.com", token, 24*time.Hour))

	keys := mr.Keys()
	assert.Contains(t, keys, confirmationTokenKey(hashToken(token)))
	for _, key := range keys {
		assert.NotContains(t, key, token, "the raw token must never appear in storage")
	}
}

func TestConfirmationTokenConcurrentConsume(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	repo := NewConfirmationTokenRepository(rdb)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, "alice@example.com", "tok-abc", 24*time.Hour))

	const callers = 4
	results := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = repo.Consume(ctx, "tok-abc")
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrConfirmationTokenNotFound)
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent consume must win")
}
