package messaging

import (
	"context"
	"time"

	"github.com/vvsvvt/transitq/contracts"
)

// TransactionType selects how a native queue operation participates in a
// transaction.
type TransactionType int

const (
	// TransactionNone performs the operation outside any transaction.
	TransactionNone TransactionType = iota
	// TransactionSingle wraps the single operation in its own transaction.
	TransactionSingle
	// TransactionAutomatic enlists the operation in the transaction active in
	// the calling context.
	TransactionAutomatic
)

// String returns the transaction type name.
func (t TransactionType) String() string {
	switch t {
	case TransactionSingle:
		return "Single"
	case TransactionAutomatic:
		return "Automatic"
	default:
		return "None"
	}
}

// QueueTransport is the native durable queue primitive. Implementations
// guarantee at-least-once durable delivery and transactional send/receive;
// see transports/rabbitmq for the AMQP-backed adapter.
type QueueTransport interface {
	// Bind opens the session-scoped receive handle for a native path,
	// requesting full property retrieval on receive.
	Bind(ctx context.Context, path string) (BoundQueue, error)

	// OpenSend opens a call-scoped send handle for a native path. The caller
	// must close it on all exit paths.
	OpenSend(ctx context.Context, path string) (SendQueue, error)
}

// BoundQueue is the receive-side handle a session holds for its lifetime.
// It is driven by a single polling loop and is not safe for concurrent use.
type BoundQueue interface {
	// IsTransactional reports the native transactional capability of the
	// bound queue.
	IsTransactional(ctx context.Context) (bool, error)

	// Purge deletes every entry currently on the queue.
	Purge(ctx context.Context) error

	// Peek waits up to wait for an entry without consuming it. It returns nil
	// when one is available and an error wrapping contracts.ErrNoMessage when
	// the wait elapses empty.
	Peek(ctx context.Context, wait time.Duration) error

	// Receive consumes the next entry, waiting up to wait. It returns an
	// error wrapping contracts.ErrNoMessage when the wait elapses empty.
	Receive(ctx context.Context, wait time.Duration, tx TransactionType) (*contracts.QueueEntry, error)

	// Close releases the native handle.
	Close() error
}

// SendQueue is a call-scoped send handle.
type SendQueue interface {
	// Send writes the entry to the queue and returns the native-assigned id.
	Send(ctx context.Context, entry *contracts.QueueEntry, tx TransactionType) (string, error)

	// Close releases the native handle.
	Close() error
}

// AddressResolver maps logical queue addresses to native references and back,
// and owns queue provisioning. Resolution failures on the reverse path are
// not errors: an unknown native reference resolves to the empty address.
type AddressResolver interface {
	// FullPathFor resolves a logical address to a native connection string.
	FullPathFor(logicalAddress string) (string, error)

	// LogicalAddressFor maps a native queue reference back to a logical
	// address, or "" when the reference cannot be resolved.
	LogicalAddressFor(nativeRef string) string

	// EnsureExists provisions the queue when it does not exist yet.
	EnsureExists(ctx context.Context, logicalAddress string) error

	// LocalMachineOwns reports whether the address names a queue hosted on
	// the local machine.
	LocalMachineOwns(logicalAddress string) bool
}
