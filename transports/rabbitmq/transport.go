package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vvsvvt/transitq/messaging"
)

const defaultPollInterval = 50 * time.Millisecond

// Transport implements messaging.QueueTransport over a single AMQP
// connection. Receive handles get a dedicated channel each; send handles are
// call-scoped, so concurrent senders never share a channel with the polling
// loop.
type Transport struct {
	conn         *amqp.Connection
	logger       *slog.Logger
	pollInterval time.Duration
}

// Option configures the transport.
type Option func(*Transport)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// WithPollInterval sets the basic.get polling interval used inside bounded
// waits.
func WithPollInterval(d time.Duration) Option {
	return func(t *Transport) {
		t.pollInterval = d
	}
}

// Dial connects to the broker at url.
func Dial(url string, options ...Option) (*Transport, error) {
	t := &Transport{
		logger:       slog.Default(),
		pollInterval: defaultPollInterval,
	}

	for _, opt := range options {
		opt(t)
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial broker: %w", err)
	}
	t.conn = conn

	t.logger.Info("connected to broker")
	return t, nil
}

// Bind opens the session-scoped receive handle for path. The queue must
// already exist; a missing queue classifies as QueueNotFoundError.
func (t *Transport) Bind(ctx context.Context, path string) (messaging.BoundQueue, error) {
	if err := t.probeExists(path); err != nil {
		return nil, err
	}

	recvCh, err := t.conn.Channel()
	if err != nil {
		return nil, classify(path, fmt.Errorf("open receive channel: %w", err))
	}
	peekCh, err := t.conn.Channel()
	if err != nil {
		recvCh.Close()
		return nil, classify(path, fmt.Errorf("open peek channel: %w", err))
	}

	return &boundQueue{
		transport: t,
		name:      path,
		ch:        recvCh,
		peekCh:    peekCh,
	}, nil
}

// OpenSend opens a call-scoped send handle for path.
func (t *Transport) OpenSend(ctx context.Context, path string) (messaging.SendQueue, error) {
	if err := t.probeExists(path); err != nil {
		return nil, err
	}

	ch, err := t.conn.Channel()
	if err != nil {
		return nil, classify(path, fmt.Errorf("open send channel: %w", err))
	}
	return &sendQueue{transport: t, name: path, ch: ch}, nil
}

// Close tears down the broker connection and every channel on it.
func (t *Transport) Close() error {
	return t.conn.Close()
}

// probeExists runs a passive declare on a throwaway channel. The channel dies
// on a 404 exception, which is why the probe never runs on a working channel.
func (t *Transport) probeExists(path string) error {
	ch, err := t.conn.Channel()
	if err != nil {
		return classify(path, fmt.Errorf("open probe channel: %w", err))
	}
	defer ch.Close()

	if _, err := ch.QueueDeclarePassive(path, true, false, false, false, nil); err != nil {
		return classify(path, err)
	}
	return nil
}
