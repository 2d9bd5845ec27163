package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/shop-api/internal/httputil"
	"github.com/redmonkez12/shop-api/internal/logging"
	"github.com/redmonkez12/shop-api/internal/user"
)

// Handler contains HTTP handlers for account and auth endpoints
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest represents the password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the password reset confirmation
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// RequestVerificationRequest represents the verification code request
type RequestVerificationRequest struct {
	Email string `json:"email"`
}

// VerifyEmailRequest represents the email verification request
type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResendConfirmationRequest represents the resend confirmation link request
type ResendConfirmationRequest struct {
	Email string `json:"email"`
}

// UpdateAccountRequest represents the account update request body.
// Omitted fields are left unchanged.
type UpdateAccountRequest struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// RegisterResponse represents the registration response
type RegisterResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}

// CodeIssuedResponse reports when the freshly issued code stops working
type CodeIssuedResponse struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new user account with email and password. A confirmation link will be sent by email.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration credentials"
// @Success      201 {object} RegisterResponse
// @Failure      400 {object} ErrorResponse "Invalid request or validation error"
// @Failure      409 {object} ErrorResponse "Email already exists"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	newUser, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("registration failed: email already exists")
			respondError(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
			return
		}
		if errors.Is(err, ErrEmailRequired) {
			logger.Warn("registration failed: validation error", "error", err.Error())
			respondError(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrPasswordRequired) {
			logger.Warn("registration failed: validation error", "error", err.Error())
			respondError(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrPasswordTooShort) {
			logger.Warn("registration failed: validation error", "error", err.Error())
			respondError(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrInvalidEmailFormat) {
			logger.Warn("registration failed: validation error", "error", err.Error())
			respondError(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
			return
		}
		logger.Error("registration failed: internal error", "error", err.Error())
		respondError(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)

	respondJSON(w, RegisterResponse{
		User:    toUserResponse(newUser),
		Message: "Registration successful. Please check your email to confirm your account.",
	}, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate a user by email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} UserResponse
// @Failure      400 {object} ErrorResponse "Invalid request body"
// @Failure      401 {object} ErrorResponse "Invalid credentials"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	loggedIn, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			respondError(w, "invalid email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		respondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully")

	respondJSON(w, toUserResponse(loggedIn), http.StatusOK)
}

// ForgotPassword handles password reset code requests
// @Summary      Request password reset code
// @Description  Send a six-digit password reset code to the user's email. The code replaces any previously issued one.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Email address"
// @Success      200 {object} CodeIssuedResponse
// @Failure      400 {object} ErrorResponse "Invalid request body"
// @Failure      404 {object} ErrorResponse "User not found"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid forgot password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	expiresAt, err := h.service.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			logger.Warn("password reset request failed: user not found")
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("password reset request failed: internal error", "error", err.Error())
		respondError(w, "failed to request password reset", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("password reset code issued")

	respondJSON(w, CodeIssuedResponse{
		Message:   "A password reset code has been sent to your email.",
		ExpiresAt: expiresAt,
	}, http.StatusOK)
}

// ResetPassword handles password reset with a code
// @Summary      Reset password
// @Description  Set a new password using the six-digit reset code sent by email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Email, reset code and new password"
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Invalid request, code mismatch, or expired code"
// @Failure      404 {object} ErrorResponse "User not found"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	err := h.service.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			logger.Warn("password reset failed: user not found")
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrResetCodeNotFound) {
			logger.Warn("password reset failed: code not found")
			respondError(w, "no reset code found, please request a new one", httputil.CodeResetCodeNotFound, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrInvalidResetCode) {
			logger.Warn("password reset failed: code mismatch")
			respondError(w, "invalid reset code", httputil.CodeInvalidResetCode, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrResetCodeExpired) {
			logger.Warn("password reset failed: code expired")
			respondError(w, "reset code has expired, please request a new one", httputil.CodeResetCodeExpired, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrPasswordRequired) {
			logger.Warn("password reset failed: validation error", "error", err.Error())
			respondError(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrPasswordTooShort) {
			logger.Warn("password reset failed: validation error", "error", err.Error())
			respondError(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
			return
		}
		logger.Error("password reset failed: internal error", "error", err.Error())
		respondError(w, "failed to reset password", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("password reset successfully")

	respondJSON(w, map[string]string{
		"message": "Password reset successfully. You can now login with your new password.",
	}, http.StatusOK)
}

// RequestVerification handles email verification code requests
// @Summary      Request email verification code
// @Description  Send a six-digit verification code to the user's email. The code replaces any previously issued one.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RequestVerificationRequest true "Email address"
// @Success      200 {object} CodeIssuedResponse
// @Failure      400 {object} ErrorResponse "Invalid request body or email already verified"
// @Failure      404 {object} ErrorResponse "User not found"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/request-verification [post]
func (h *Handler) RequestVerification(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RequestVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid verification request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	expiresAt, err := h.service.RequestEmailVerification(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			logger.Warn("verification request failed: user not found")
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrAlreadyVerified) {
			logger.Warn("verification request failed: already verified")
			respondError(w, "this email is already verified", httputil.CodeAlreadyVerified, http.StatusBadRequest)
			return
		}
		logger.Error("verification request failed: internal error", "error", err.Error())
		respondError(w, "failed to request verification code", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("verification code issued")

	respondJSON(w, CodeIssuedResponse{
		Message:   "A verification code has been sent to your email.",
		ExpiresAt: expiresAt,
	}, http.StatusOK)
}

// VerifyEmail handles email verification with a code
// @Summary      Verify email address
// @Description  Mark the user's email as verified using the six-digit code sent by email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body VerifyEmailRequest true "Email and verification code"
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Invalid request, malformed code, code mismatch, or expired code"
// @Failure      404 {object} ErrorResponse "User not found"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/verify-email [post]
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid verify email request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	err := h.service.VerifyEmail(r.Context(), req.Email, req.Code)
	if err != nil {
		if errors.Is(err, ErrInvalidCodeFormat) {
			logger.Warn("email verification failed: malformed code")
			respondError(w, err.Error(), httputil.CodeInvalidCodeFormat, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrUserNotFound) {
			logger.Warn("email verification failed: user not found")
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrVerificationCodeNotFound) {
			logger.Warn("email verification failed: code not found")
			respondError(w, "no verification code found, please request a new one", httputil.CodeVerificationCodeNotFound, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrInvalidVerificationCode) {
			logger.Warn("email verification failed: code mismatch")
			respondError(w, "invalid verification code", httputil.CodeInvalidVerificationCode, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrVerificationCodeExpired) {
			logger.Warn("email verification failed: code expired")
			respondError(w, "verification code has expired, please request a new one", httputil.CodeVerificationCodeExpired, http.StatusBadRequest)
			return
		}
		logger.Error("email verification failed: internal error", "error", err.Error())
		respondError(w, "failed to verify email", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("email verified successfully")

	respondJSON(w, map[string]string{
		"message": "Email verified successfully.",
	}, http.StatusOK)
}

// ConfirmAccount handles account confirmation links
// @Summary      Confirm account
// @Description  Activate an account using the confirmation token from the emailed link
// @Tags         auth
// @Produce      json
// @Param        token query string true "Confirmation token"
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Missing, unknown, already used, or expired token"
// @Failure      404 {object} ErrorResponse "User not found"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/confirm [get]
func (h *Handler) ConfirmAccount(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Get token from query parameter
	token := r.URL.Query().Get("token")
	if token == "" {
		logger.Warn("account confirmation failed: token missing")
		respondError(w, "confirmation token required", httputil.CodeConfirmationTokenNotFound, http.StatusBadRequest)
		return
	}

	err := h.service.ConfirmAccount(r.Context(), token)
	if err != nil {
		if errors.Is(err, ErrConfirmationTokenNotFound) {
			logger.Warn("account confirmation failed: token not found")
			respondError(w, "confirmation link is invalid or has already been used", httputil.CodeConfirmationTokenNotFound, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrUserNotFound) {
			logger.Warn("account confirmation failed: user not found")
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("account confirmation failed: internal error", "error", err.Error())
		respondError(w, "failed to confirm account", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("account confirmed successfully")

	respondJSON(w, map[string]string{
		"message": "Account confirmed successfully. You can now login.",
	}, http.StatusOK)
}

// ResendConfirmation handles resending the confirmation link
// @Summary      Resend confirmation link
// @Description  Send a fresh confirmation link to the user's email. The previous link stops working.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResendConfirmationRequest true "Email address"
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Invalid request body or email already verified"
// @Failure      404 {object} ErrorResponse "User not found"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/resend-confirmation [post]
func (h *Handler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResendConfirmationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid resend confirmation request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	err := h.service.ResendConfirmation(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			logger.Warn("resend confirmation failed: user not found")
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrAlreadyVerified) {
			logger.Warn("resend confirmation failed: already verified")
			respondError(w, "this email is already verified", httputil.CodeAlreadyVerified, http.StatusBadRequest)
			return
		}
		logger.Error("resend confirmation failed: internal error", "error", err.Error())
		respondError(w, "failed to resend confirmation link", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("confirmation link reissued")

	respondJSON(w, map[string]string{
		"message": "A new confirmation link has been sent to your email.",
	}, http.StatusOK)
}

// UpdateAccount handles account updates
// @Summary      Update account
// @Description  Change the account's email and/or password. Omitted fields are left unchanged.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        userID path string true "User ID"
// @Param        request body UpdateAccountRequest true "Fields to update"
// @Success      200 {object} UserResponse
// @Failure      400 {object} ErrorResponse "Invalid request or validation error"
// @Failure      404 {object} ErrorResponse "User not found"
// @Failure      409 {object} ErrorResponse "Email already in use"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /users/{userID} [patch]
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		logger.Warn("invalid user id in path", "error", err.Error())
		respondError(w, "invalid user id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update account request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"user_id": userID})

	updatedUser, err := h.service.UpdateAccount(r.Context(), userID, UpdateAccountParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			logger.Warn("account update failed: user not found")
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrEmailInUse) {
			logger.Warn("account update failed: email in use")
			respondError(w, "email is already in use", httputil.CodeEmailInUse, http.StatusConflict)
			return
		}
		if errors.Is(err, ErrInvalidEmailFormat) {
			logger.Warn("account update failed: validation error", "error", err.Error())
			respondError(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrPasswordTooShort) {
			logger.Warn("account update failed: validation error", "error", err.Error())
			respondError(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
			return
		}
		logger.Error("account update failed: internal error", "error", err.Error())
		respondError(w, "failed to update account", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("account updated successfully")

	respondJSON(w, toUserResponse(updatedUser), http.StatusOK)
}

// DeleteAccount handles account deletion
// @Summary      Delete account
// @Description  Delete the account along with its orders and any live one-time secrets
// @Tags         users
// @Produce      json
// @Param        userID path string true "User ID"
// @Success      204 "No Content"
// @Failure      400 {object} ErrorResponse "Invalid user id"
// @Failure      404 {object} ErrorResponse "User not found"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /users/{userID} [delete]
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		logger.Warn("invalid user id in path", "error", err.Error())
		respondError(w, "invalid user id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"user_id": userID})

	if err := h.service.DeleteAccount(r.Context(), userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			logger.Warn("account deletion failed: user not found")
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("account deletion failed: internal error", "error", err.Error())
		respondError(w, "failed to delete account", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("account deleted successfully")

	w.WriteHeader(http.StatusNoContent)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}
