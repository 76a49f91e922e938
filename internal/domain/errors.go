package domain

import "errors"

// Error kinds surfaced to callers. Services wrap these with context;
// match them with errors.Is.
var (
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrGatewayUnavailable = errors.New("completion gateway unavailable")
	ErrGatewayTimeout     = errors.New("completion gateway timed out")

	ErrInvalidTitle     = errors.New("title must not be empty")
	ErrTitleTooLong     = errors.New("title is too long")
	ErrInvalidDirection = errors.New("direction must be up or down")
	ErrInvalidRole      = errors.New("role must be user or assistant")
	ErrEmptyContent     = errors.New("content must not be empty")
	ErrEmptyChat        = errors.New("chat has no messages to summarize")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// IsValidation reports whether err is a caller input error
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidTitle,
		ErrTitleTooLong,
		ErrInvalidDirection,
		ErrInvalidRole,
		ErrEmptyContent,
		ErrEmptyChat,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
