package contracts

import (
	"time"
)

// CorrelationHeader is the reserved header key that carries the
// application-level correlation handle. It is distinct from the native
// correlation-id field, which is used for protocol-level replies.
const CorrelationHeader = "CorrId"

// ZeroCorrelationID is the sentinel the native layer reports on an entry that
// was sent without a correlation id. Receive normalizes it to absent.
const ZeroCorrelationID = "00000000-0000-0000-0000-000000000000\x00"

// MessageIntent classifies the purpose of a message. The intent travels
// out-of-band in the native application-tag field rather than in the body.
type MessageIntent int32

const (
	// IntentSend is a direct point-to-point send. It is also the decoding
	// default for tags this version does not recognize.
	IntentSend MessageIntent = iota
	// IntentPublish is a broadcast to subscribers.
	IntentPublish
	// IntentSubscribe registers interest in a publisher's messages.
	IntentSubscribe
	// IntentUnsubscribe withdraws a subscription.
	IntentUnsubscribe
	// IntentReply answers a prior message.
	IntentReply
)

// String returns the intent name.
func (i MessageIntent) String() string {
	switch i {
	case IntentSend:
		return "Send"
	case IntentPublish:
		return "Publish"
	case IntentSubscribe:
		return "Subscribe"
	case IntentUnsubscribe:
		return "Unsubscribe"
	case IntentReply:
		return "Reply"
	default:
		return "Send"
	}
}

// Tag returns the integer value stored in the native application-tag field.
func (i MessageIntent) Tag() int32 {
	return int32(i)
}

// IntentFromTag maps a native application-tag value back to an intent.
// Values outside the known range map to IntentSend so that entries written by
// newer senders never fail to decode on older receivers.
func IntentFromTag(tag int32) MessageIntent {
	if tag < int32(IntentSend) || tag > int32(IntentReply) {
		return IntentSend
	}
	return MessageIntent(tag)
}

// TransportMessage is the logical unit exchanged with a queue. It is built by
// the caller on the send path or reconstructed fully from a native entry on
// the receive path; instances are not shared across calls.
type TransportMessage struct {
	// ID is assigned by the queue on send and is read-only afterward.
	ID string

	// CorrelationID optionally links this message to a prior one.
	CorrelationID string

	// Body is the opaque payload. May be empty.
	Body []byte

	// Recoverable marks the message as durable: it must survive the sending
	// process crashing once the native send has completed.
	Recoverable bool

	// TimeToBeReceived bounds how long the message may wait unconsumed.
	// Zero means no expiry.
	TimeToBeReceived time.Duration

	// TimeSent is stamped by the queue and populated on receive only.
	TimeSent time.Time

	// ReturnAddress is the logical queue address replies should go to.
	ReturnAddress string

	// Headers holds string metadata pairs. It is never nil after a message
	// has passed through the translator in either direction.
	Headers map[string]string

	// IDForCorrelation is the stable handle used to match the message to a
	// logical conversation. On send it is copied into Headers under
	// CorrelationHeader; on receive it is read back from there, falling back
	// to ID when the header is absent.
	IDForCorrelation string

	// Intent classifies the message purpose.
	Intent MessageIntent
}

// EnsureHeaders initializes Headers when nil so callers always observe a
// concrete, possibly empty, map.
func (m *TransportMessage) EnsureHeaders() {
	if m.Headers == nil {
		m.Headers = make(map[string]string)
	}
}
