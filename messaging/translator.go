package messaging

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vvsvvt/transitq/contracts"
	"github.com/vvsvvt/transitq/internal/wire"
)

// MessageTranslator maps logical transport messages onto native queue entries
// and back. It owns the correlation-handle fallback rules and the intent-tag
// coercion; native faults raised during translation are left for the session
// to classify.
type MessageTranslator struct {
	resolver AddressResolver
}

// NewMessageTranslator creates a translator using resolver for return-address
// resolution.
func NewMessageTranslator(resolver AddressResolver) *MessageTranslator {
	return &MessageTranslator{resolver: resolver}
}

// ToEntry encodes msg into a native queue entry. The message's headers are
// initialized when nil and the correlation handle is materialized under
// contracts.CorrelationHeader before encoding, so the invariant holds for
// every entry that reaches the wire. The entry's ID is left empty; the native
// send assigns it.
func (t *MessageTranslator) ToEntry(msg *contracts.TransportMessage) (*contracts.QueueEntry, error) {
	msg.EnsureHeaders()
	if msg.IDForCorrelation == "" {
		msg.IDForCorrelation = uuid.New().String()
	}
	if _, ok := msg.Headers[contracts.CorrelationHeader]; !ok {
		msg.Headers[contracts.CorrelationHeader] = msg.IDForCorrelation
	}

	entry := &contracts.QueueEntry{
		CorrelationID:    msg.CorrelationID,
		Recoverable:      msg.Recoverable,
		TimeToBeReceived: msg.TimeToBeReceived,
		AppTag:           msg.Intent.Tag(),
		Extension:        wire.EncodeHeaders(msg.Headers),
	}
	if len(msg.Body) > 0 {
		entry.Payload = msg.Body
	}
	if msg.ReturnAddress != "" {
		path, err := t.resolver.FullPathFor(msg.ReturnAddress)
		if err != nil {
			return nil, fmt.Errorf("resolve return address %q: %w", msg.ReturnAddress, err)
		}
		entry.ResponseQueue = path
	}
	return entry, nil
}

// FromEntry reconstructs a transport message from a native queue entry. The
// all-zero correlation sentinel is normalized to absent, unrecognized intent
// tags coerce to IntentSend, an unresolvable response queue yields no return
// address, and the correlation handle falls back to the native id when the
// reserved header is missing.
func (t *MessageTranslator) FromEntry(entry *contracts.QueueEntry) (*contracts.TransportMessage, error) {
	msg := &contracts.TransportMessage{
		ID:               entry.ID,
		Recoverable:      entry.Recoverable,
		TimeToBeReceived: entry.TimeToBeReceived,
		TimeSent:         entry.SentAt,
		Intent:           contracts.IntentFromTag(entry.AppTag),
	}

	if entry.CorrelationID != "" && entry.CorrelationID != contracts.ZeroCorrelationID {
		msg.CorrelationID = entry.CorrelationID
	}
	if len(entry.Payload) > 0 {
		msg.Body = append([]byte(nil), entry.Payload...)
	}
	if entry.ResponseQueue != "" {
		msg.ReturnAddress = t.resolver.LogicalAddressFor(entry.ResponseQueue)
	}

	if len(entry.Extension) > 0 {
		headers, err := wire.DecodeHeaders(entry.Extension)
		if err != nil {
			return nil, fmt.Errorf("decode header blob: %w", err)
		}
		msg.Headers = headers
	} else {
		msg.Headers = make(map[string]string)
	}

	if corr, ok := msg.Headers[contracts.CorrelationHeader]; ok {
		msg.IDForCorrelation = corr
	} else {
		msg.IDForCorrelation = msg.ID
	}
	return msg, nil
}
