package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// ErrorKind classifies a provider failure.
type ErrorKind int

const (
	// KindRateLimited means the backend rejected the call for quota reasons.
	KindRateLimited ErrorKind = iota
	// KindTimeout means the call exceeded its wall-clock budget.
	KindTimeout
	// KindUnavailable covers network failures and backend 5xx responses.
	KindUnavailable
	// KindMalformed means the backend answered but the payload was unusable.
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	case KindUnavailable:
		return "unavailable"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// ProviderError is a classified failure from a generation backend.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Transient reports whether retrying against another provider makes sense.
func (e *ProviderError) Transient() bool {
	switch e.Kind {
	case KindRateLimited, KindTimeout, KindUnavailable:
		return true
	}
	return false
}

// ErrNoProviders is returned when no configured provider holds a credential.
var ErrNoProviders = errors.New("no generation provider available")

// Classify wraps a raw provider failure in a ProviderError. Errors that are
// already classified pass through unchanged.
func Classify(provider string, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}

	kind := KindUnavailable

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case isStatus(err, http.StatusTooManyRequests):
		kind = KindRateLimited
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			kind = KindTimeout
		}
	}

	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// isStatus checks whether err carries the given HTTP status code from either
// the go-openai client or our direct-HTTP Gemini client.
func isStatus(err error, code int) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == code
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == code
	}
	var gemErr *geminiAPIError
	if errors.As(err, &gemErr) {
		return gemErr.Code == code
	}
	return false
}
