package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/shop-api/internal/logging"
	"github.com/redmonkez12/shop-api/internal/user"
)

// EmailService defines the interface for email operations
type EmailService interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, code string) error
	SendVerificationEmail(ctx context.Context, toEmail, code string) error
	SendConfirmationEmail(ctx context.Context, toEmail, token string) error
}

// Service handles accounts and the one-time-secret flows around them
type Service struct {
	userRepo             UserStore
	resetCodes           CodeStore
	verificationCodes    CodeStore
	confirmationTokens   ConfirmationTokenStore
	emailService         EmailService
	logger               *logging.Logger
	resetCodeTTL         time.Duration
	verificationCodeTTL  time.Duration
	confirmationTokenTTL time.Duration
}

func NewService(
	userRepo UserStore,
	resetCodes CodeStore,
	verificationCodes CodeStore,
	confirmationTokens ConfirmationTokenStore,
	emailService EmailService,
	logger *logging.Logger,
	resetCodeTTL time.Duration,
	verificationCodeTTL time.Duration,
	confirmationTokenTTL time.Duration,
) *Service {
	return &Service{
		userRepo:             userRepo,
		resetCodes:           resetCodes,
		verificationCodes:    verificationCodes,
		confirmationTokens:   confirmationTokens,
		emailService:         emailService,
		logger:               logger,
		resetCodeTTL:         resetCodeTTL,
		verificationCodeTTL:  verificationCodeTTL,
		confirmationTokenTTL: confirmationTokenTTL,
	}
}

// Register creates a new user account and sends a confirmation link
func (s *Service) Register(ctx context.Context, email, password string) (*user.User, error) {
	// Validate input
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if len(password) < 8 {
		return nil, ErrPasswordTooShort
	}

	// Hash password using argon2id
	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Create user in database
	newUser, err := s.userRepo.Create(ctx, email, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Issue the account confirmation token
	token, err := generateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate confirmation token: %w", err)
	}
	if err := s.confirmationTokens.Store(ctx, email, token, s.confirmationTokenTTL); err != nil {
		return nil, fmt.Errorf("failed to store confirmation token: %w", err)
	}

	// Send the confirmation link in a goroutine (non-blocking)
	go func() {
		// Create a new context for the goroutine to avoid cancellation issues
		emailCtx := context.Background()
		if err := s.emailService.SendConfirmationEmail(emailCtx, email, token); err != nil {
			// Log error but don't fail registration
			// User can request a new confirmation link later
			s.logger.Warn("failed to send confirmation email", "email", email, "error", err)
		}
	}()

	return newUser, nil
}

// Login authenticates a user by email and password
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, error) {
	// Validate input
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	// Get user from database
	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Verify password
	if !verifyPassword(existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return existingUser, nil
}

// UpdateAccountParams carries the optional fields of an account update.
// Empty strings mean "leave unchanged".
type UpdateAccountParams struct {
	Email    string
	Password string
}

// UpdateAccount changes a user's email and/or password
func (s *Service) UpdateAccount(ctx context.Context, userID uuid.UUID, params UpdateAccountParams) (*user.User, error) {
	existingUser, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if params.Email != "" && params.Email != existingUser.Email {
		if len(params.Email) > 254 {
			return nil, ErrInvalidEmailFormat
		}
		if _, err := mail.ParseAddress(params.Email); err != nil {
			return nil, ErrInvalidEmailFormat
		}

		if err := s.userRepo.UpdateEmail(ctx, userID, params.Email); err != nil {
			if errors.Is(err, user.ErrDuplicateEmail) {
				return nil, ErrEmailInUse
			}
			if errors.Is(err, user.ErrNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to update email: %w", err)
		}
	}

	if params.Password != "" {
		if len(params.Password) < 8 {
			return nil, ErrPasswordTooShort
		}

		passwordHash, err := hashPassword(params.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}

		if err := s.userRepo.UpdatePassword(ctx, userID, passwordHash); err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to update password: %w", err)
		}
	}

	updatedUser, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	return updatedUser, nil
}

// DeleteAccount removes a user and purges any live one-time secrets.
// Orders go with the account through the database cascade.
func (s *Service) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	existingUser, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	// Secrets issued to the deleted account must stop working immediately
	email := existingUser.Email
	if err := s.resetCodes.Delete(ctx, email); err != nil {
		s.logger.Warn("failed to purge reset code on account deletion", "email", email, "error", err)
	}
	if err := s.verificationCodes.Delete(ctx, email); err != nil {
		s.logger.Warn("failed to purge verification code on account deletion", "email", email, "error", err)
	}
	if err := s.confirmationTokens.DeleteByEmail(ctx, email); err != nil {
		s.logger.Warn("failed to purge confirmation token on account deletion", "email", email, "error", err)
	}

	return nil
}
