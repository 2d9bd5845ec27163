package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redmonkez12/shop-api/internal/user"
)

// RequestPasswordReset issues a reset code for the account and emails it.
// Any previously issued code for the email stops working. Returns the
// expiry of the new code.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (time.Time, error) {
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return time.Time{}, ErrUserNotFound
		}
		return time.Time{}, fmt.Errorf("failed to get user: %w", err)
	}

	code, err := generateNumericCode()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to generate reset code: %w", err)
	}

	expiresAt := time.Now().Add(s.resetCodeTTL)
	if err := s.resetCodes.Store(ctx, email, code, expiresAt); err != nil {
		return time.Time{}, fmt.Errorf("failed to store reset code: %w", err)
	}

	// Send the reset code in a goroutine (non-blocking)
	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendPasswordResetEmail(emailCtx, email, code); err != nil {
			s.logger.Warn("failed to send password reset email", "email", email, "error", err)
		}
	}()

	return expiresAt, nil
}

// ResetPassword sets a new password after validating the reset code.
//
// Checks run in a fixed order: account existence, code presence, code
// match, expiry. The match runs before the expiry check so a correct but
// expired code reports expiry, while a wrong code never discloses whether
// the real one expired. A mismatched code is left in place for further
// attempts; an expired one is purged on first probe. The code is consumed
// before the password is written, so with concurrent calls exactly one
// wins the atomic delete and writes its password.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	// Validate input
	if newPassword == "" {
		return ErrPasswordRequired
	}
	if len(newPassword) < 8 {
		return ErrPasswordTooShort
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	record, err := s.resetCodes.Get(ctx, email)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return ErrResetCodeNotFound
		}
		return fmt.Errorf("failed to get reset code: %w", err)
	}

	if !secureCompare(record.Code, code) {
		return ErrInvalidResetCode
	}

	if record.Expired() {
		if err := s.resetCodes.Delete(ctx, email); err != nil {
			s.logger.Warn("failed to purge expired reset code", "email", email, "error", err)
		}
		return ErrResetCodeExpired
	}

	if err := s.resetCodes.Consume(ctx, email); err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			// Another request with the same code got here first
			return ErrResetCodeNotFound
		}
		return fmt.Errorf("failed to consume reset code: %w", err)
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, existingUser.ID, passwordHash); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}
