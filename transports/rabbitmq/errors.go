package rabbitmq

import (
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vvsvvt/transitq/contracts"
)

const (
	// appTagHeader carries the message intent tag on the wire.
	appTagHeader = "x-app-tag"
	// extensionHeader carries the encoded header blob.
	extensionHeader = "x-extension"
)

// classify maps broker faults onto the contracts error taxonomy. The queue
// name recorded here is the native path; the session re-tags send faults with
// the logical destination. Faults outside the taxonomy pass through
// unchanged.
func classify(queue string, err error) error {
	var aerr *amqp.Error
	if !errors.As(err, &aerr) {
		return err
	}

	switch aerr.Code {
	case amqp.NotFound:
		return &contracts.QueueNotFoundError{Queue: queue, Err: err}
	case amqp.AccessRefused:
		return &contracts.AccessDeniedError{Queue: queue, Err: err}
	default:
		return err
	}
}
