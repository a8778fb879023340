package ai

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
)

// APIError is the provider's error body plus response metadata.
type APIError struct {
	StatusCode int            `json:"-"`
	Code       string         `json:"code,omitempty"`
	Message    string         `json:"message,omitempty"`
	Raw        map[string]any `json:"-"`
	RequestID  string         `json:"-"`
}

func (e *APIError) Error() string {
	parts := []string{fmt.Sprintf("status=%d", e.StatusCode)}
	if e.Code != "" {
		parts = append(parts, "code="+e.Code)
	}
	if e.RequestID != "" {
		parts = append(parts, "request_id="+e.RequestID)
	}
	if e.Message != "" {
		parts = append(parts, "message="+e.Message)
	}
	return "api error: " + strings.Join(parts, " ")
}

// The typed errors below unwrap to both the APIError and the app error
// category, so callers can errors.As for details or errors.Is for a code.

// AuthError is a 401/403: the key is missing, wrong or revoked.
type AuthError struct{ *APIError }

func (e *AuthError) Error() string { return "chat provider rejected the API key: " + e.APIError.Error() }
func (e *AuthError) Unwrap() []error { return []error{e.APIError, apperrors.ErrInvalidArgument} }

// RateLimitError is a 429, with the server's Retry-After when it sent one.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("chat provider rate limited (retry in %s): %s", e.RetryAfter, e.APIError.Error())
	}
	return "chat provider rate limited: " + e.APIError.Error()
}

func (e *RateLimitError) Unwrap() []error { return []error{e.APIError, apperrors.ErrUpstreamUnavailable} }

// ModelNotFoundError means the configured default_model or --model is unknown.
type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string {
	return "model not available (check default_model or --model): " + e.APIError.Error()
}

func (e *ModelNotFoundError) Unwrap() []error {
	return []error{e.APIError, apperrors.ErrInvalidArgument}
}

// BadRequestError is a 400, usually max_tokens or temperature out of range.
type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return "chat request rejected: " + e.APIError.Error() }
func (e *BadRequestError) Unwrap() []error { return []error{e.APIError, apperrors.ErrInvalidArgument} }

// QuotaExceededError is a billing or credit problem on the account.
type QuotaExceededError struct{ *APIError }

func (e *QuotaExceededError) Error() string { return "chat quota exceeded: " + e.APIError.Error() }
func (e *QuotaExceededError) Unwrap() []error {
	return []error{e.APIError, apperrors.ErrUpstreamUnavailable}
}

// ServerError is a 5xx that survived every retry.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return "chat provider unavailable: " + e.APIError.Error() }
func (e *ServerError) Unwrap() []error { return []error{e.APIError, apperrors.ErrUpstreamUnavailable} }

// classifyAPIError maps a provider error onto the typed errors above.
func classifyAPIError(apiErr *APIError, resp *http.Response) error {
	sc := apiErr.StatusCode
	msg := strings.ToLower(apiErr.Message)
	switch {
	case sc == http.StatusUnauthorized || sc == http.StatusForbidden:
		return &AuthError{APIError: apiErr}
	case sc == http.StatusTooManyRequests:
		var ra time.Duration
		if secs, err := parseRetryAfterSeconds(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			ra = time.Duration(secs) * time.Second
		}
		return &RateLimitError{APIError: apiErr, RetryAfter: ra}
	case sc == http.StatusNotFound && (apiErr.Code == "model_not_found" || strings.Contains(msg, "model")):
		return &ModelNotFoundError{APIError: apiErr}
	case sc == http.StatusBadRequest:
		return &BadRequestError{APIError: apiErr}
	case sc == http.StatusPaymentRequired || apiErr.Code == "quota_exceeded" || strings.Contains(msg, "quota") || strings.Contains(msg, "credits"):
		return &QuotaExceededError{APIError: apiErr}
	case sc >= 500:
		return &ServerError{APIError: apiErr}
	}
	return apiErr
}
