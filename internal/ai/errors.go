package ai

import (
	"errors"
	"fmt"
	"time"
)

// AuthError is a 401/403: the API key is missing, wrong or lacks access to the model.
type AuthError struct{ *APIError }

func (e *AuthError) Error() string { return "authentication failed: " + e.APIError.Error() }
func (e *AuthError) Unwrap() error { return e.APIError }

// RateLimitError is a 429 that survived the retry budget. RetryAfter is zero when the
// provider did not say how long to wait.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %s", e.RetryAfter.Round(time.Second), e.APIError.Error())
	}
	return "rate limited: " + e.APIError.Error()
}
func (e *RateLimitError) Unwrap() error { return e.APIError }

// ModelNotFoundError means the provider does not serve the requested model name.
type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string { return "model not found: " + e.APIError.Error() }
func (e *ModelNotFoundError) Unwrap() error { return e.APIError }

// BadRequestError is a rejected request, most often a conversation longer than the model's
// context window or a model that refuses tool definitions.
type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return "request rejected: " + e.APIError.Error() }
func (e *BadRequestError) Unwrap() error { return e.APIError }

// QuotaExceededError signals exhausted credits or a billing limit.
type QuotaExceededError struct{ *APIError }

func (e *QuotaExceededError) Error() string { return "quota exceeded: " + e.APIError.Error() }
func (e *QuotaExceededError) Unwrap() error { return e.APIError }

// ServerError is a 5xx that survived the retry budget.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return "provider error: " + e.APIError.Error() }
func (e *ServerError) Unwrap() error { return e.APIError }

// UnreachableError means no HTTP response arrived at all: wrong host, runtime not started,
// or no network.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e.Host != "" {
		return fmt.Sprintf("cannot reach %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable: %v", e.Err)
}
func (e *UnreachableError) Unwrap() error { return e.Err }

// Failure classifies a model call error.
type Failure string

const (
	FailureUnknown     Failure = "unknown"
	FailureAuth        Failure = "auth"
	FailureRateLimit   Failure = "rate_limit"
	FailureModel       Failure = "model_not_found"
	FailureBadRequest  Failure = "bad_request"
	FailureQuota       Failure = "quota"
	FailureServer      Failure = "server"
	FailureUnreachable Failure = "unreachable"
)

// Classify reports which typed error, if any, is in err's chain.
func Classify(err error) Failure {
	var (
		auth    *AuthError
		rate    *RateLimitError
		model   *ModelNotFoundError
		bad     *BadRequestError
		quota   *QuotaExceededError
		server  *ServerError
		unreach *UnreachableError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &unreach):
		return FailureUnreachable
	case errors.As(err, &auth):
		return FailureAuth
	case errors.As(err, &rate):
		return FailureRateLimit
	case errors.As(err, &model):
		return FailureModel
	case errors.As(err, &bad):
		return FailureBadRequest
	case errors.As(err, &quota):
		return FailureQuota
	case errors.As(err, &server):
		return FailureServer
	}
	return FailureUnknown
}
