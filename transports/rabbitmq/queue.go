package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vvsvvt/transitq/contracts"
	"github.com/vvsvvt/transitq/messaging"
)

// boundQueue is the receive-side handle. The receive channel switches into
// tx mode lazily on the first transactional receive and stays there; peek
// runs on its own channel so the requeueing nack never lands inside an open
// transaction.
type boundQueue struct {
	transport *Transport
	name      string
	ch        *amqp.Channel
	peekCh    *amqp.Channel
	txOn      bool
}

// IsTransactional probes the broker's channel-transaction capability with a
// tx.select handshake on a throwaway channel.
func (q *boundQueue) IsTransactional(ctx context.Context) (bool, error) {
	probe, err := q.transport.conn.Channel()
	if err != nil {
		return false, fmt.Errorf("open capability probe channel: %w", err)
	}
	defer probe.Close()

	if err := probe.Tx(); err != nil {
		var aerr *amqp.Error
		if errors.As(err, &aerr) && aerr.Code == amqp.NotImplemented {
			return false, nil
		}
		return false, fmt.Errorf("transaction capability probe: %w", err)
	}
	return true, nil
}

// Purge deletes every entry currently on the queue.
func (q *boundQueue) Purge(ctx context.Context) error {
	purged, err := q.ch.QueuePurge(q.name, false)
	if err != nil {
		return classify(q.name, err)
	}
	q.transport.logger.Info("queue purged", "queue", q.name, "entries", purged)
	return nil
}

// Peek reports availability without consuming: the entry it gets is nacked
// straight back onto the queue.
func (q *boundQueue) Peek(ctx context.Context, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for {
		msg, ok, err := q.peekCh.Get(q.name, false)
		if err != nil {
			return classify(q.name, err)
		}
		if ok {
			if err := msg.Nack(false, true); err != nil {
				return classify(q.name, err)
			}
			return nil
		}

		if !time.Now().Before(deadline) {
			return fmt.Errorf("peek %q: %w", q.name, contracts.ErrNoMessage)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(q.transport.pollInterval):
		}
	}
}

// Receive consumes the next entry within wait. Transactional receives ack
// inside a channel transaction and commit immediately, so a crash between
// get and commit redelivers the entry.
func (q *boundQueue) Receive(ctx context.Context, wait time.Duration, tx messaging.TransactionType) (*contracts.QueueEntry, error) {
	transactional := tx != messaging.TransactionNone
	if transactional {
		if err := q.ensureTx(); err != nil {
			return nil, classify(q.name, err)
		}
	}

	deadline := time.Now().Add(wait)
	for {
		msg, ok, err := q.ch.Get(q.name, !transactional)
		if err != nil {
			return nil, classify(q.name, err)
		}
		if ok {
			if transactional {
				if err := msg.Ack(false); err != nil {
					return nil, classify(q.name, err)
				}
				if err := q.ch.TxCommit(); err != nil {
					return nil, classify(q.name, err)
				}
			}
			return entryFromDelivery(msg), nil
		}

		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("receive on %q: %w", q.name, contracts.ErrNoMessage)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(q.transport.pollInterval):
		}
	}
}

// Close releases both channels.
func (q *boundQueue) Close() error {
	peekErr := q.peekCh.Close()
	if err := q.ch.Close(); err != nil {
		return err
	}
	return peekErr
}

func (q *boundQueue) ensureTx() error {
	if q.txOn {
		return nil
	}
	if err := q.ch.Tx(); err != nil {
		return err
	}
	q.txOn = true
	return nil
}

// sendQueue is a call-scoped send handle.
type sendQueue struct {
	transport *Transport
	name      string
	ch        *amqp.Channel
	txOn      bool
}

// Send publishes the entry to the queue via the default exchange and returns
// the assigned message id. Single and Automatic both wrap the publish in a
// channel transaction; the broker offers no wider enlistment scope than the
// channel, so Automatic degenerates to Single here.
func (s *sendQueue) Send(ctx context.Context, entry *contracts.QueueEntry, tx messaging.TransactionType) (string, error) {
	transactional := tx != messaging.TransactionNone
	if transactional && !s.txOn {
		if err := s.ch.Tx(); err != nil {
			return "", classify(s.name, err)
		}
		s.txOn = true
	}

	id := entry.ID
	if id == "" {
		id = uuid.New().String()
	}

	pub := amqp.Publishing{
		MessageId:     id,
		CorrelationId: entry.CorrelationID,
		Body:          entry.Payload,
		Timestamp:     time.Now().UTC(),
		ReplyTo:       entry.ResponseQueue,
		DeliveryMode:  amqp.Transient,
		Headers: amqp.Table{
			appTagHeader:    entry.AppTag,
			extensionHeader: entry.Extension,
		},
	}
	if entry.Recoverable {
		pub.DeliveryMode = amqp.Persistent
	}
	if entry.TimeToBeReceived > 0 {
		pub.Expiration = strconv.FormatInt(entry.TimeToBeReceived.Milliseconds(), 10)
	}

	if err := s.ch.PublishWithContext(ctx, "", s.name, false, false, pub); err != nil {
		return "", classify(s.name, err)
	}
	if transactional {
		if err := s.ch.TxCommit(); err != nil {
			return "", classify(s.name, err)
		}
	}
	return id, nil
}

// Close releases the channel.
func (s *sendQueue) Close() error {
	return s.ch.Close()
}

// entryFromDelivery maps an AMQP delivery onto the native entry record.
// A sender that set no correlation id surfaces as the all-zero sentinel, the
// way the native layer documents absence.
func entryFromDelivery(d amqp.Delivery) *contracts.QueueEntry {
	entry := &contracts.QueueEntry{
		ID:            d.MessageId,
		CorrelationID: d.CorrelationId,
		Payload:       d.Body,
		Recoverable:   d.DeliveryMode == amqp.Persistent,
		SentAt:        d.Timestamp,
		ResponseQueue: d.ReplyTo,
	}
	if d.CorrelationId == "" {
		entry.CorrelationID = contracts.ZeroCorrelationID
	}
	if d.Expiration != "" {
		if ms, err := strconv.ParseInt(d.Expiration, 10, 64); err == nil {
			entry.TimeToBeReceived = time.Duration(ms) * time.Millisecond
		}
	}

	switch tag := d.Headers[appTagHeader].(type) {
	case int32:
		entry.AppTag = tag
	case int64:
		entry.AppTag = int32(tag)
	}
	if ext, ok := d.Headers[extensionHeader].([]byte); ok {
		entry.Extension = ext
	}
	return entry
}
