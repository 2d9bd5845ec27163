package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func TestCodeRepositoryStoreAndGet(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	repo := NewResetCodeRepository(rdb)
	ctx := context.Background()

	expiresAt := time.Now().Add(15 * time.Minute)
	require.NoError(t, repo.Store(ctx, "alice@example.com", "483920", expiresAt))

	record, err := repo.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "483920", record.Code)
	assert.Equal(t, expiresAt.Unix(), record.ExpiresAt.Unix())
	assert.False(t, record.Expired())
}

func TestCodeRepositoryGetMissing(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	repo := NewResetCodeRepository(rdb)

	_, err := repo.Get(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestCodeRepositoryStoreRejectsPastExpiry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	repo := NewResetCodeRepository(rdb)

	err := repo.Store(context.Background(), "alice@example.com", "483920", time.Now().Add(-time.Minute))
	assert.Error(t, err)
}

func TestCodeRepositoryReplaceOnReissue(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	repo := NewVerificationCodeRepository(rdb)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, "alice@example.com", "111111", time.Now().Add(15*time.Minute)))
	require.NoError(t, repo.Store(ctx, "alice@example.com", "222222", time.Now().Add(15*time.Minute)))

	record, err := repo.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "222222", record.Code, "reissuing must replace the previous code")
}

func TestCodeRepositoryConsumeOnce(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	repo := NewResetCodeRepository(rdb)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, "alice@example.com", "483920", time.Now().Add(15*time.Minute)))

	require.NoError(t, repo.Consume(ctx, "alice@example.com"))
	assert.ErrorIs(t, repo.Consume(ctx, "alice@example.com"), ErrCodeNotFound)

	_, err := repo.Get(ctx, "alice@example.com")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestCodeRepositoryConcurrentConsume(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	repo := NewResetCodeRepository(rdb)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, "alice@example.com", "483920", time.Now().Add(15*time.Minute)))

	const callers = 8
	results := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = repo.Consume(ctx, "alice@example.com")
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrCodeNotFound)
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent consume must win")
}

func TestCodeRepositoryRetentionWindow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	repo := NewResetCodeRepository(rdb)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, "alice@example.com", "483920", time.Now().Add(15*time.Minute)))

	// Past the logical expiry the record must still answer lookups, so an
	// expired code reports "expired" rather than "not found".
	mr.FastForward(20 * time.Minute)
	record, err := repo.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "483920", record.Code)

	// Once the retention window lapses Redis drops the key entirely.
	mr.FastForward(time.Hour)
	_, err = repo.Get(ctx, "alice@example.com")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestCodeRepositoryDelete(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	repo := NewResetCodeRepository(rdb)
	ctx := context.Background()

	// Deleting a missing record is not an error.
	require.NoError(t, repo.Delete(ctx, "nobody@example.com"))

	require.NoError(t, repo.Store(ctx, "alice@example.com", "483920", time.Now().Add(15*time.Minute)))
	require.NoError(t, repo.Delete(ctx, "alice@example.com"))

	_, err := repo.Get(ctx, "alice@example.com")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestCodeRepositoryNamespaces(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	resets := NewResetCodeRepository(rdb)
	verifications := NewVerificationCodeRepository(rdb)
	ctx := context.Background()

	require.NoError(t, resets.Store(ctx, "alice@example.com", "111111", time.Now().Add(15*time.Minute)))
	require.NoError(t, verifications.Store(ctx, "alice@example.com", "222222", time.Now().Add(15*time.Minute)))

	resetRecord, err := resets.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "111111", resetRecord.Code)

	verificationRecord, err := verifications.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "222222", verificationRecord.Code)

	// Consuming one flow's code must not touch the other's.
	require.NoError(t, resets.Consume(ctx, "alice@example.com"))
	_, err = verifications.Get(ctx, "alice@example.com")
	assert.NoError(t, err)
}

func TestCodeRecordExpired(t *testing.T) {
	live := &CodeRecord{Code: "483920", ExpiresAt: time.Now().Add(time.Minute)}
	assert.False(t, live.Expired())

	lapsed := &CodeRecord{Code: "483920", ExpiresAt: time.Now().Add(-time.Second)}
	assert.True(t, lapsed.Expired())
}
