package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redmonkez12/shop-api/internal/user"
)

// RequestEmailVerification issues a verification OTP for the account and
// emails it. Any previously issued OTP for the email stops working.
// Returns the expiry of the new code.
func (s *Service) RequestEmailVerification(ctx context.Context, email string) (time.Time, error) {
	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return time.Time{}, ErrUserNotFound
		}
		return time.Time{}, fmt.Errorf("failed to get user: %w", err)
	}

	if existingUser.EmailVerified {
		return time.Time{}, ErrAlreadyVerified
	}

	code, err := generateNumericCode()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to generate verification code: %w", err)
	}

	expiresAt := time.Now().Add(s.verificationCodeTTL)
	if err := s.verificationCodes.Store(ctx, email, code, expiresAt); err != nil {
		return time.Time{}, fmt.Errorf("failed to store verification code: %w", err)
	}

	// Send the verification code in a goroutine (non-blocking)
	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendVerificationEmail(emailCtx, email, code); err != nil {
			s.logger.Warn("failed to send verification email", "email", email, "error", err)
		}
	}()

	return expiresAt, nil
}

// VerifyEmail marks the account verified after validating the OTP.
//
// The code format is checked before any store access, then the checks run
// in the same fixed order as the password reset flow: account existence,
// code presence, match, expiry. The code is consumed before the verified
// flag is written.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	if !isSixDigitCode(code) {
		return ErrInvalidCodeFormat
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	record, err := s.verificationCodes.Get(ctx, email)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return ErrVerificationCodeNotFound
		}
		return fmt.Errorf("failed to get verification code: %w", err)
	}

	if !secureCompare(record.Code, code) {
		return ErrInvalidVerificationCode
	}

	if record.Expired() {
		if err := s.verificationCodes.Delete(ctx, email); err != nil {
			s.logger.Warn("failed to purge expired verification code", "email", email, "error", err)
		}
		return ErrVerificationCodeExpired
	}

	if err := s.verificationCodes.Consume(ctx, email); err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return ErrVerificationCodeNotFound
		}
		return fmt.Errorf("failed to consume verification code: %w", err)
	}

	if err := s.userRepo.MarkEmailAsVerified(ctx, existingUser.ID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to mark email as verified: %w", err)
	}

	return nil
}

// ConfirmAccount marks an account verified using the confirmation token
// from the emailed link. The token is single-use: consuming it again, or
// after it lapsed, reports it as not found.
func (s *Service) ConfirmAccount(ctx context.Context, token string) error {
	record, err := s.confirmationTokens.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, ErrConfirmationTokenNotFound) {
			return ErrConfirmationTokenNotFound
		}
		return fmt.Errorf("failed to consume confirmation token: %w", err)
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, record.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.userRepo.MarkEmailAsVerified(ctx, existingUser.ID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to mark email as verified: %w", err)
	}

	return nil
}

// ResendConfirmation issues a fresh confirmation token and emails the
// link. The previous token stops working.
func (s *Service) ResendConfirmation(ctx context.Context, email string) error {
	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if existingUser.EmailVerified {
		return ErrAlreadyVerified
	}

	token, err := generateRandomToken()
	if err != nil {
		return fmt.Errorf("failed to generate confirmation token: %w", err)
	}

	if err := s.confirmationTokens.Store(ctx, email, token, s.confirmationTokenTTL); err != nil {
		return fmt.Errorf("failed to store confirmation token: %w", err)
	}

	// Send the confirmation link in a goroutine (non-blocking)
	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendConfirmationEmail(emailCtx, email, token); err != nil {
			s.logger.Warn("failed to resend confirmation email", "email", email, "error", err)
		}
	}()

	return nil
}
