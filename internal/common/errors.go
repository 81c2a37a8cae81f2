// Package common defines sentinel errors and shared constants used across
// the todoapi server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal         = errors.New("internal error")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrorForbidden        = errors.New("forbidden")
	ErrorValidation       = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token lifecycle errors.
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenNotFound = errors.New("token not found")
)

// Error pairs a sentinel kind with a message that is safe to show to API clients.
type Error struct {
	Kind    error
	Message string
}

// NewError returns an error that matches kind under errors.Is and carries msg
// as its client-facing text.
func NewError(kind error, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Message extracts the client-facing message of err. When err carries no
// explicit message, fallback is returned.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
