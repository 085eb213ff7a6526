package auth

import "errors"

var (
	// ErrInvalidCredentials is deliberately generic: unknown email and
	// wrong password are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrProviderAccountOnly means the account exists but was created
	// through the identity provider and holds no password.
	ErrProviderAccountOnly = errors.New("account uses provider sign-in")
)

// Error codes surfaced in JSON error bodies.
const (
	ErrCodeValidation          = "validation_error"
	ErrCodeInvalidCreds        = "invalid_credentials"
	ErrCodeProviderAccountOnly = "provider_account_only"
	ErrCodeDuplicateIdentity   = "duplicate_identity"
	ErrCodeStoreError          = "store_error"
)

// AuthError is the HTTP-facing error shape. Field names the failing request
// field for validation errors.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *AuthError) Error() string { return e.Message }

func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

// OAuth flow failure reasons. These are carried to the login page as a
// URL-encoded description, never as a raw error response.
const (
	FailProviderError = "provider_error"
	FailCSRFMismatch  = "csrf_mismatch"
	FailTokenExchange = "token_exchange_error"
	FailProfileFetch  = "profile_fetch_error"
	FailMissingEmail  = "missing_email"
	FailLogin         = "login_error"
)
