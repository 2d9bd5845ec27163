package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// codeRetention is how long a code stays readable past its logical expiry.
// An expired code that is probed must answer "expired", not "not found",
// so the record outlives its expiry until the first probe purges it or
// Redis drops it when the retention window lapses.
const codeRetention = 1 * time.Hour

// CodeRecord is a stored one-time code and its expiry.
type CodeRecord struct {
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the code's lifetime has passed.
func (c *CodeRecord) Expired() bool {
	return time.Now().After(c.ExpiresAt)
}

// CodeStore persists single-use numeric codes keyed by email.
type CodeStore interface {
	Store(ctx context.Context, email, code string, expiresAt time.Time) error
	Get(ctx context.Context, email string) (*CodeRecord, error)
	Consume(ctx context.Context, email string) error
	Delete(ctx context.Context, email string) error
}

// CodeRepository stores one-time codes in Redis under a namespace prefix.
// Writing replaces any previous code for the same email, so at most one
// code per email is ever live.
type CodeRepository struct {
	client *redis.Client
	prefix string
}

// NewResetCodeRepository creates the store for password reset codes
func NewResetCodeRepository(client *redis.Client) *CodeRepository {
	return &CodeRepository{client: client, prefix: "reset_code"}
}

// NewVerificationCodeRepository creates the store for email verification codes
func NewVerificationCodeRepository(client *redis.Client) *CodeRepository {
	return &CodeRepository{client: client, prefix: "verification_code"}
}

func (r *CodeRepository) key(email string) string {
	return fmt.Sprintf("%s:%s", r.prefix, email)
}

// Store saves a code for the email, replacing any previous one
func (r *CodeRepository) Store(ctx context.Context, email, code string, expiresAt time.Time) error {
	key := r.key(email)

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("code expiration time is in the past")
	}

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"code":       code,
		"expires_at": expiresAt.Unix(),
	})
	pipe.Expire(ctx, key, ttl+codeRetention)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	return nil
}

// Get returns the stored code for the email, including one whose logical
// expiry has already passed. Callers decide how to report expiry.
func (r *CodeRepository) Get(ctx context.Context, email string) (*CodeRecord, error) {
	data, err := r.client.HGetAll(ctx, r.key(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get code: %w", err)
	}

	if len(data) == 0 {
		return nil, ErrCodeNotFound
	}

	var expiresAtUnix int64
	fmt.Sscanf(data["expires_at"], "%d", &expiresAtUnix)

	return &CodeRecord{
		Code:      data["code"],
		ExpiresAt: time.Unix(expiresAtUnix, 0),
	}, nil
}

// Consume deletes the code. The delete is atomic, so with concurrent
// callers exactly one observes it; the rest get ErrCodeNotFound.
func (r *CodeRepository) Consume(ctx context.Context, email string) error {
	deleted, err := r.client.Del(ctx, r.key(email)).Result()
	if err != nil {
		return fmt.Errorf("failed to consume code: %w", err)
	}

	if deleted == 0 {
		return ErrCodeNotFound
	}

	return nil
}

// Delete removes the code regardless of whether it existed
func (r *CodeRepository) Delete(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, r.key(email)).Err(); err != nil {
		return fmt.Errorf("failed to delete code: %w", err)
	}

	return nil
}
