package httputil

// Machine-readable error codes returned in the "code" field of error
// responses. Clients should branch on these, not on message text.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"

	CodeEmailRequired      = "EMAIL_REQUIRED"
	CodePasswordRequired   = "PASSWORD_REQUIRED"
	CodePasswordTooShort   = "PASSWORD_TOO_SHORT"
	CodeInvalidEmailFormat = "INVALID_EMAIL_FORMAT"

	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeEmailInUse         = "EMAIL_IN_USE"

	CodeResetCodeNotFound = "RESET_CODE_NOT_FOUND"
	CodeInvalidResetCode  = "INVALID_RESET_CODE"
	CodeResetCodeExpired  = "RESET_CODE_EXPIRED"

	CodeVerificationCodeNotFound = "VERIFICATION_CODE_NOT_FOUND"
	CodeInvalidVerificationCode  = "INVALID_VERIFICATION_CODE"
	CodeVerificationCodeExpired  = "VERIFICATION_CODE_EXPIRED"
	CodeInvalidCodeFormat        = "INVALID_CODE_FORMAT"

	CodeConfirmationTokenNotFound = "CONFIRMATION_TOKEN_NOT_FOUND"
	CodeAlreadyVerified           = "ALREADY_VERIFIED"

	CodeOrderNotFound = "ORDER_NOT_FOUND"

	CodeInternalError = "INTERNAL_ERROR"
)
