package llm

import (
	"errors"
	"fmt"
)

// FallbackContent replaces a completion that came back without text.
const FallbackContent = "I couldn't generate a response. Please try again or rephrase your question."

var (
	// ErrNotConfigured is returned before any network call when a provider
	// has no credential.
	ErrNotConfigured = errors.New("provider not configured")

	ErrProviderNotFound = errors.New("provider not found")
)

// StatusError is a non-2xx answer from a provider API.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}
