package auth

import "errors"

// Validation errors returned before any store access.
var (
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
)

// Flow errors surfaced to the route layer.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailInUse         = errors.New("email is already in use")
	ErrAlreadyVerified    = errors.New("email already verified")

	ErrResetCodeNotFound = errors.New("reset code not found")
	ErrInvalidResetCode  = errors.New("invalid reset code")
	ErrResetCodeExpired  = errors.New("reset code has expired")

	ErrVerificationCodeNotFound = errors.New("verification code not found")
	ErrInvalidVerificationCode  = errors.New("invalid verification code")
	ErrVerificationCodeExpired  = errors.New("verification code has expired")
	ErrInvalidCodeFormat        = errors.New("code must be exactly six digits")

	ErrConfirmationTokenNotFound = errors.New("confirmation token not found")
)

// ErrCodeNotFound is the storage-level sentinel shared by the reset and
// verification code repositories. Services translate it to the flow error.
var ErrCodeNotFound = errors.New("code not found")
