package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNetwork matches every [BackendError].
	ErrNetwork = errors.New("cache backend unreachable")

	// ErrUnknownBackend is returned by [Open] for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown cache backend")
)

// BackendError reports a network backend that could not be reached.
type BackendError struct {
	Backend  string
	Addr     string
	Attempts int
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s cache at %s: unreachable after %d attempt(s): %v", e.Backend, e.Addr, e.Attempts, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Is reports ErrNetwork as matching so callers need not know the backend.
func (e *BackendError) Is(target error) bool { return target == ErrNetwork }

// dialAttempts bounds how often a network backend is contacted on Open.
const dialAttempts = 3

// retryDelay is the first backoff delay; a variable so tests can shorten it.
var retryDelay = 200 * time.Millisecond

// dial calls connect until it succeeds, backing off exponentially between
// attempts, so a preview server can start alongside a cache server that is
// still coming up.
func dial(ctx context.Context, backend, addr string, connect func(context.Context) error) error {
	delay := retryDelay
	for attempt := 1; ; attempt++ {
		err := connect(ctx)
		if err == nil {
			return nil
		}
		if attempt == dialAttempts {
			return &BackendError{Backend: backend, Addr: addr, Attempts: attempt, Err: err}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
}
