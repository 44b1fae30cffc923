package models

import "errors"

// Application-wide standard errors
var (
	// User & Authentication Errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email not confirmed")

	// Token Errors
	ErrTokenInvalid         = errors.New("could not validate credentials")
	ErrTokenExpired         = errors.New("token has expired")
	ErrTokenMalformed       = errors.New("token is malformed")
	ErrTokenScope           = errors.New("invalid scope for token")
	ErrRefreshTokenMismatch = errors.New("refresh token does not match stored token")
	ErrEmailTokenInvalid    = errors.New("invalid token for email verification")
	ErrVerificationFailed   = errors.New("verification error")

	// Contact Errors
	ErrContactNotFound = errors.New("contact not found")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
)
