package errx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// RetrievalErrorMessage describes knowledge index failures.
	RetrievalErrorMessage = "knowledge retrieval failed"
	// SearchProviderErrorMessage describes web search failures.
	SearchProviderErrorMessage = "web search failed"
	// GenerationErrorMessage describes text generation failures.
	GenerationErrorMessage = "text generation failed"
	// ConfigurationErrorMessage describes missing or invalid startup configuration.
	ConfigurationErrorMessage = "invalid configuration"
)

// Kind tags an AppError so callers can branch on the failure class
// instead of matching on message text.
type Kind string

const (
	KindUnknown        Kind = "unknown"
	KindRetrieval      Kind = "retrieval"
	KindSearchProvider Kind = "search_provider"
	KindGeneration     Kind = "generation"
	KindConfiguration  Kind = "configuration"
	KindStorage        Kind = "storage"
)

// AppError wraps an underlying error with a kind, an HTTP status and a safe message.
type AppError struct {
	Kind    Kind
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(kind Kind, err error, status int, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// Retrieval wraps a knowledge index failure.
func Retrieval(err error) error {
	if err == nil {
		return nil
	}
	return New(KindRetrieval, err, http.StatusBadGateway, RetrievalErrorMessage)
}

// SearchProvider wraps a web search failure.
func SearchProvider(err error) error {
	if err == nil {
		return nil
	}
	return New(KindSearchProvider, err, http.StatusBadGateway, SearchProviderErrorMessage)
}

// Generation wraps a chat/generation model failure.
func Generation(err error) error {
	if err == nil {
		return nil
	}
	return New(KindGeneration, err, http.StatusBadGateway, GenerationErrorMessage)
}

// Configuration wraps a startup configuration failure. It is always fatal.
func Configuration(err error) error {
	if err == nil {
		return nil
	}
	return New(KindConfiguration, err, http.StatusServiceUnavailable, ConfigurationErrorMessage)
}

// KindOf reports the kind of the first AppError in err's chain.
// Deadline and cancellation errors outside an AppError report KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// IsTimeout reports whether err was caused by a per-call deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return errors.As(e.Err, target)
}
