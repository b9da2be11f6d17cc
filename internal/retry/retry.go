// Package retry wraps a single network operation with classification-driven
// retries and exponential backoff. Every network call in the resolution
// pipeline goes through an Engine.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Classification is the categorized reason a network operation failed,
// driving the retry decision.
type Classification string

const (
	// Timeout means the attempt did not complete within its deadline.
	Timeout Classification = "timeout"
	// NetworkError is any transport-level failure before a response was
	// received: connection refused, DNS, TLS.
	NetworkError Classification = "network error"
	// ServerError is a received response with a 5xx status.
	ServerError Classification = "server error"
	// ClientError is a received response with a 4xx status. Repeating the
	// identical request will not fix it, so it is never retried.
	ClientError Classification = "client error"
	// MalformedResponse is a success status whose body does not parse into
	// the shape the caller expects. Not retried.
	MalformedResponse Classification = "malformed response"
)

// Retryable reports whether an operation failing with this classification
// should be attempted again.
func (c Classification) Retryable() bool {
	switch c {
	case Timeout, NetworkError, ServerError:
		return true
	}
	return false
}

// Error is a classified failure of one network operation.
type Error struct {
	Class    Classification
	Status   int // HTTP status for client/server errors, 0 otherwise
	Attempts int // attempts consumed when the failure became terminal
	Err      error
}

func (e *Error) Error() string {
	switch e.Class {
	case ServerError, ClientError:
		return fmt.Sprintf("%s (%d)", e.Class, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Class, e.Err)
	}
	return string(e.Class)
}

func (e *Error) Unwrap() error { return e.Err }

// Server builds a ServerError for the given 5xx status.
func Server(status int) *Error {
	return &Error{Class: ServerError, Status: status}
}

// Client builds a ClientError for the given 4xx status.
func Client(status int) *Error {
	return &Error{Class: ClientError, Status: status}
}

// Malformed tags a parse failure of an otherwise successful response.
func Malformed(err error) *Error {
	return &Error{Class: MalformedResponse, Err: err}
}

// FromStatus classifies a received HTTP status. It returns nil for 2xx.
func FromStatus(status int) *Error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status >= 500:
		return Server(status)
	case status >= 400:
		return Client(status)
	default:
		// 1xx and 3xx only reach here when the transport could not
		// resolve them. Retrying may land on a healthy node.
		return Server(status)
	}
}

// Wrap ensures err carries a classification. Errors produced by the
// constructors above pass through; transport errors are classified as
// Timeout or NetworkError.
func Wrap(err error) *Error {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Class: Timeout, Err: err}
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return &Error{Class: Timeout, Err: err}
	}
	return &Error{Class: NetworkError, Err: err}
}

// Policy configures how an operation is retried.
type Policy struct {
	MaxAttempts    int           // total attempts, including the first
	BaseDelay      time.Duration // delay before the first retry
	Multiplier     float64       // backoff factor per retry
	AttemptTimeout time.Duration // deadline per attempt, not per operation
}

// DefaultPolicy is the policy used by search and listing steps.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseDelay:      time.Second,
		Multiplier:     2.0,
		AttemptTimeout: 30 * time.Second,
	}
}

// Validate rejects policies that would silently never run the operation.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry: max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.Multiplier < 1 {
		return fmt.Errorf("retry: multiplier must be at least 1, got %g", p.Multiplier)
	}
	return nil
}

// DelayFor returns the backoff delay after the given failed attempt
// (1-based): BaseDelay * Multiplier^(attempt-1).
func (p Policy) DelayFor(attempt int) time.Duration {
	delay := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		delay *= p.Multiplier
	}
	return time.Duration(delay)
}

// Event is the progress notification emitted before each backoff sleep.
// The UI renders it; the engine keeps no record of it.
type Event struct {
	Stage       string
	Class       Classification
	// Status is the HTTP status behind the failure, zero when none applies.
	Status      int
	Attempt     int
	MaxAttempts int
	NextDelay   time.Duration
}

// Operation is a single idempotent network call. The passed context carries
// the per-attempt deadline.
type Operation func(ctx context.Context) error

// Engine executes operations under a Policy. It is stateless between
// operations; every Do owns its attempt counter alone.
type Engine struct {
	onEvent func(Event)
}

// NewEngine creates an engine. onEvent may be nil when nobody renders
// progress.
func NewEngine(onEvent func(Event)) *Engine {
	return &Engine{onEvent: onEvent}
}

func (e *Engine) emit(ev Event) {
	if e.onEvent != nil {
		e.onEvent(ev)
	}
}

// Do runs op until it succeeds, fails terminally, or the policy is
// exhausted. Retryable failures sleep BaseDelay * Multiplier^(n-1) between
// attempts; non-retryable failures return immediately. The backoff sleep
// and the in-flight attempt are both aborted when ctx is canceled.
func (e *Engine) Do(ctx context.Context, stage string, policy Policy, op Operation) error {
	if err := policy.Validate(); err != nil {
		return err
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		actx := ctx
		cancel := context.CancelFunc(func() {})
		if policy.AttemptTimeout > 0 {
			actx, cancel = context.WithTimeout(ctx, policy.AttemptTimeout)
		}
		err := op(actx)
		cancel()

		if err == nil {
			return nil
		}
		// The caller aborted; surface the cancellation, not a classification.
		if ctx.Err() != nil {
			return ctx.Err()
		}

		cerr := Wrap(err)
		cerr.Attempts = attempt

		if !cerr.Class.Retryable() || attempt == policy.MaxAttempts {
			return cerr
		}

		delay := policy.DelayFor(attempt)
		e.emit(Event{
			Stage:       stage,
			Class:       cerr.Class,
			Status:      cerr.Status,
			Attempt:     attempt,
			MaxAttempts: policy.MaxAttempts,
			NextDelay:   delay,
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
