package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// watchRetries bounds optimistic-transaction retries against Redis
const watchRetries = 4

// ConfirmationRecord is a stored account confirmation token entry.
type ConfirmationRecord struct {
	Email     string
	CreatedAt time.Time
}

// ConfirmationTokenStore persists account confirmation tokens. Lookup is by
// token value; the per-email pointer exists to enforce replace-on-reissue.
type ConfirmationTokenStore interface {
	Store(ctx context.Context, email, token string, ttl time.Duration) error
	Consume(ctx context.Context, token string) (*ConfirmationRecord, error)
	DeleteByEmail(ctx context.Context, email string) error
}

// ConfirmationTokenRepository stores confirmation tokens in Redis.
// Tokens are keyed by their SHA-256 digest, and a companion key per email
// points at the live digest so a reissue can invalidate the old token.
type ConfirmationTokenRepository struct {
	client *redis.Client
}

func NewConfirmationTokenRepository(client *redis.Client) *ConfirmationTokenRepository {
	return &ConfirmationTokenRepository{client: client}
}

// confirmationTokenKey generates the Redis key for a confirmation token
func confirmationTokenKey(tokenHash string) string {
	return fmt.Sprintf("confirmation_token:%s", tokenHash)
}

// confirmationEmailKey generates the Redis key for the per-email pointer
func confirmationEmailKey(email string) string {
	return fmt.Sprintf("confirmation_email:%s", email)
}

// Store saves a confirmation token for the email. Any token previously
// issued to the same email stops working the moment the new one is stored.
func (r *ConfirmationTokenRepository) Store(ctx context.Context, email, token string, ttl time.Duration) error {
	tokenHash := hashToken(token)
	emailKey := confirmationEmailKey(email)

	for i := 0; i < watchRetries; i++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			oldHash, err := tx.Get(ctx, emailKey).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if oldHash != "" {
					pipe.Del(ctx, confirmationTokenKey(oldHash))
				}
				pipe.HSet(ctx, confirmationTokenKey(tokenHash), map[string]interface{}{
					"email":      email,
					"created_at": time.Now().Unix(),
				})
				pipe.Expire(ctx, confirmationTokenKey(tokenHash), ttl)
				pipe.Set(ctx, emailKey, tokenHash, ttl)
				return nil
			})
			return err
		}, emailKey)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to store confirmation token: %w", err)
		}

		return nil
	}

	return fmt.Errorf("failed to store confirmation token: too many conflicts")
}

// Consume looks up a token, deletes it, and returns its record. A token
// that is absent, already consumed, or past its TTL yields
// ErrConfirmationTokenNotFound. With concurrent callers exactly one
// receives the record.
func (r *ConfirmationTokenRepository) Consume(ctx context.Context, token string) (*ConfirmationRecord, error) {
	tokenKey := confirmationTokenKey(hashToken(token))

	var record *ConfirmationRecord

	for i := 0; i < watchRetries; i++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.HGetAll(ctx, tokenKey).Result()
			if err != nil {
				return err
			}
			if len(data) == 0 {
				return ErrConfirmationTokenNotFound
			}

			var createdAtUnix int64
			fmt.Sscanf(data["created_at"], "%d", &createdAtUnix)

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, tokenKey)
				pipe.Del(ctx, confirmationEmailKey(data["email"]))
				return nil
			})
			if err != nil {
				return err
			}

			record = &ConfirmationRecord{
				Email:     data["email"],
				CreatedAt: time.Unix(createdAtUnix, 0),
			}
			return nil
		}, tokenKey)

		if errors.Is(err, redis.TxFailedErr) {
			record = nil
			continue
		}
		if errors.Is(err, ErrConfirmationTokenNotFound) {
			return nil, ErrConfirmationTokenNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to consume confirmation token: %w", err)
		}

		return record, nil
	}

	return nil, ErrConfirmationTokenNotFound
}

// DeleteByEmail removes the live confirmation token for an email, if any
func (r *ConfirmationTokenRepository) DeleteByEmail(ctx context.Context, email string) error {
	emailKey := confirmationEmailKey(email)

	tokenHash, err := r.client.Get(ctx, emailKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up confirmation token: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, confirmationTokenKey(tokenHash))
	pipe.Del(ctx, emailKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete confirmation token: %w", err)
	}

	return nil
}
