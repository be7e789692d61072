package blizzard

import (
	"fmt"
	"time"
)

// NotFoundError means the resource does not exist upstream. Absence is
// not transient, so these are never retried.
type NotFoundError struct {
	Endpoint string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Endpoint)
}

// RateLimitedError means the upstream quota was hit. The executor has
// already slept out the advertised cooldown; resubmitting is the
// caller's decision.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited upstream, waited %s cooldown", e.RetryAfter)
}

// ForbiddenError means authorization was rejected even after one token
// refresh.
type ForbiddenError struct {
	Endpoint string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Endpoint)
}

// ServerError carries any other non-2xx response.
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("api request failed with status %d: %s", e.Status, e.Body)
}

// NetworkError wraps a transport failure. These are the only errors the
// executor retries.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
