// Package transitq is a transactional message-queue client: it sends and
// receives discrete messages to and from a named durable queue, preserving
// delivery metadata (correlation, return address, intent, time-to-live,
// recoverability) across a binary wire encoding. The durable queue itself is
// an external broker reached through transports/rabbitmq.
package transitq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vvsvvt/transitq/contracts"
	"github.com/vvsvvt/transitq/messaging"
	"github.com/vvsvvt/transitq/transports/rabbitmq"
)

// Client wires a broker transport and a queue session into a single entry
// point.
type Client struct {
	transport *rabbitmq.Transport
	session   *messaging.QueueSession
	logger    *slog.Logger
}

type clientConfig struct {
	logger         *slog.Logger
	resolver       messaging.AddressResolver
	waitTimeout    time.Duration
	purgeOnStartup bool
	pollInterval   time.Duration
}

// ClientOption configures the client.
type ClientOption func(*clientConfig)

// WithLogger sets the logger used by the transport and the session.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(cfg *clientConfig) {
		cfg.logger = logger
	}
}

// WithWaitTimeout sets the bounded wait for peek and receive.
func WithWaitTimeout(d time.Duration) ClientOption {
	return func(cfg *clientConfig) {
		cfg.waitTimeout = d
	}
}

// WithPurgeOnStartup discards everything already on the queue during Bind.
func WithPurgeOnStartup(purge bool) ClientOption {
	return func(cfg *clientConfig) {
		cfg.purgeOnStartup = purge
	}
}

// WithPollInterval sets the broker polling interval inside bounded waits.
func WithPollInterval(d time.Duration) ClientOption {
	return func(cfg *clientConfig) {
		cfg.pollInterval = d
	}
}

// WithResolver replaces the transport's own address resolver.
func WithResolver(resolver messaging.AddressResolver) ClientOption {
	return func(cfg *clientConfig) {
		cfg.resolver = resolver
	}
}

// NewClient connects to the broker at connectionString and prepares an
// unbound session. Call Bind before sending or receiving.
func NewClient(connectionString string, options ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		logger:      slog.Default(),
		waitTimeout: time.Second,
	}

	for _, opt := range options {
		opt(cfg)
	}

	transportOpts := []rabbitmq.Option{rabbitmq.WithLogger(cfg.logger)}
	if cfg.pollInterval > 0 {
		transportOpts = append(transportOpts, rabbitmq.WithPollInterval(cfg.pollInterval))
	}

	transport, err := rabbitmq.Dial(connectionString, transportOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	resolver := cfg.resolver
	if resolver == nil {
		resolver = transport.Resolver()
	}

	session := messaging.NewQueueSession(transport, resolver,
		messaging.WithSessionLogger(cfg.logger),
		messaging.WithWaitTimeout(cfg.waitTimeout),
		messaging.WithPurgeOnStartup(cfg.purgeOnStartup),
	)

	return &Client{
		transport: transport,
		session:   session,
		logger:    cfg.logger,
	}, nil
}

// Bind initializes the session against queueName. The queue must be local and
// transactional.
func (c *Client) Bind(ctx context.Context, queueName string) error {
	return c.session.Init(ctx, queueName)
}

// Send delivers msg to the destination queue. See messaging.QueueSession.Send.
func (c *Client) Send(ctx context.Context, msg *contracts.TransportMessage, destination string) error {
	return c.session.Send(ctx, msg, destination)
}

// Receive consumes the next message from the bound queue, or returns nil when
// none arrives within the wait timeout.
func (c *Client) Receive(ctx context.Context, useTransaction bool) (*contracts.TransportMessage, error) {
	return c.session.Receive(ctx, useTransaction)
}

// HasMessage reports whether the bound queue currently has a message, without
// consuming it.
func (c *Client) HasMessage(ctx context.Context) (bool, error) {
	return c.session.HasMessage(ctx)
}

// Close releases the session handle and the broker connection.
func (c *Client) Close() error {
	if err := c.session.Close(); err != nil {
		c.logger.Warn("failed to close session", "error", err)
	}
	return c.transport.Close()
}
