package contracts

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMessage reports that a bounded wait elapsed with nothing to
	// deliver. It is the normal polling outcome on an empty queue, not a
	// failure; sessions translate it into an absent result.
	ErrNoMessage = errors.New("transitq: no message within wait timeout")

	// ErrSessionNotReady is returned when an operation runs before Init.
	ErrSessionNotReady = errors.New("transitq: queue session not initialized")

	// ErrSessionInitialized is returned when Init runs twice on one session.
	ErrSessionInitialized = errors.New("transitq: queue session already initialized")
)

// ConfigurationError reports a queue that cannot be bound as configured.
// It aborts session initialization and is surfaced synchronously.
type ConfigurationError struct {
	Queue  string // Queue name being bound
	Reason string // Human-readable constraint that failed
	Err    error  // Underlying fault, if the check itself failed
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transitq configuration error: queue %q: %s: %v", e.Queue, e.Reason, e.Err)
	}
	return fmt.Sprintf("transitq configuration error: queue %q: %s", e.Queue, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// QueueNotFoundError reports a send target that does not exist. Callers may
// recover, for example by provisioning the queue and retrying.
type QueueNotFoundError struct {
	Queue string // Destination address that failed to resolve
	Err   error  // Underlying native fault
}

func (e *QueueNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transitq: queue %q does not exist: %v", e.Queue, e.Err)
	}
	return fmt.Sprintf("transitq: queue %q does not exist", e.Queue)
}

func (e *QueueNotFoundError) Unwrap() error {
	return e.Err
}

// AccessDeniedError reports that the current principal may not receive from
// the queue. It is not recoverable by the call site: the hosting process is
// expected to log it and terminate (see messaging.FatalPolicy).
type AccessDeniedError struct {
	Queue     string // Queue the receive targeted
	Principal string // Identity the process runs as
	Err       error  // Underlying native fault
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("transitq: access to queue %q denied for principal %q: %v", e.Queue, e.Principal, e.Err)
}

func (e *AccessDeniedError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err means the wait elapsed without a message.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrNoMessage)
}

// IsQueueNotFound reports whether err means the target queue does not exist.
func IsQueueNotFound(err error) bool {
	var e *QueueNotFoundError
	return errors.As(err, &e)
}

// IsAccessDenied reports whether err means the principal lacks receive rights.
func IsAccessDenied(err error) bool {
	var e *AccessDeniedError
	return errors.As(err, &e)
}
