package models

// Error codes returned alongside HTTP statuses in error responses.
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeWrongCredentials = "WRONG_CREDENTIALS"
	ErrCodeDuplicateEmail   = "DUPLICATE_EMAIL"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeTokenInvalid     = "TOKEN_INVALID"
	ErrCodeTokenScope       = "TOKEN_SCOPE"
	ErrCodeEmailToken       = "EMAIL_TOKEN_INVALID"
	ErrCodeVerification     = "VERIFICATION_ERROR"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// ErrorResponse - standard JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MessageResponse - standard JSON body for informational responses
// (idempotent confirmations, resend acknowledgements, health checks).
type MessageResponse struct {
	Message string `json:"message"`
}
