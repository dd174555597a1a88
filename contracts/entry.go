package contracts

import (
	"time"
)

// QueueEntry is the native queue record unit exchanged with the durable queue
// primitive. Transport adapters map it onto their broker's wire properties;
// the messaging layer never sees broker types directly.
type QueueEntry struct {
	// ID is the native identifier. Assigned by the transport on send.
	ID string

	// CorrelationID is the native correlation field. ZeroCorrelationID marks
	// an entry sent without one.
	CorrelationID string

	// Payload holds the full body bytes. Adapters must populate it from the
	// start of the native stream regardless of any prior reads.
	Payload []byte

	// Recoverable maps to the native durability flag.
	Recoverable bool

	// TimeToBeReceived is the native expiry. Zero means no expiry.
	TimeToBeReceived time.Duration

	// SentAt is stamped by the queue when the entry was accepted.
	SentAt time.Time

	// ResponseQueue is the native reference of the reply queue, empty when
	// the sender set no return address.
	ResponseQueue string

	// AppTag is the general-purpose integer field carrying the message intent.
	AppTag int32

	// Extension is the opaque blob carrying the encoded headers. Empty means
	// no headers were attached.
	Extension []byte
}
