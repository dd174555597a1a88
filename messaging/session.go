package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"os/user"
	"time"

	"github.com/vvsvvt/transitq/contracts"
)

const defaultWaitTimeout = 1 * time.Second

// QueueSession owns the lifecycle of one bound queue handle: initialization
// and validation, send with transaction-type selection, bounded-wait peek and
// bounded-wait transactional receive. A session is created unbound, becomes
// ready after Init succeeds exactly once, and must be driven by a single
// goroutine.
type QueueSession struct {
	transport  QueueTransport
	resolver   AddressResolver
	translator *MessageTranslator
	logger     *slog.Logger

	waitTimeout    time.Duration
	purgeOnStartup bool

	queueName   string
	bound       BoundQueue
	initialized bool
}

// SessionOption configures a QueueSession.
type SessionOption func(*QueueSession)

// WithWaitTimeout sets the bounded wait used by peek and receive.
func WithWaitTimeout(d time.Duration) SessionOption {
	return func(s *QueueSession) {
		s.waitTimeout = d
	}
}

// WithPurgeOnStartup makes Init discard every entry already on the queue.
// This is deliberate data loss and is off by default.
func WithPurgeOnStartup(purge bool) SessionOption {
	return func(s *QueueSession) {
		s.purgeOnStartup = purge
	}
}

// WithSessionLogger sets the logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *QueueSession) {
		s.logger = logger
	}
}

// NewQueueSession creates an uninitialized session over transport and
// resolver. Call Init before any other operation.
func NewQueueSession(transport QueueTransport, resolver AddressResolver, options ...SessionOption) *QueueSession {
	s := &QueueSession{
		transport:   transport,
		resolver:    resolver,
		translator:  NewMessageTranslator(resolver),
		logger:      slog.Default(),
		waitTimeout: defaultWaitTimeout,
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

// Init binds the session to queueName. The queue must be hosted on the local
// machine and must be transactional; either constraint failing aborts with a
// *contracts.ConfigurationError and leaves the session uninitialized. Init
// must run exactly once per session.
func (s *QueueSession) Init(ctx context.Context, queueName string) error {
	if s.initialized {
		return contracts.ErrSessionInitialized
	}

	if !s.resolver.LocalMachineOwns(queueName) {
		return &contracts.ConfigurationError{Queue: queueName, Reason: "queue must be local"}
	}
	if err := s.resolver.EnsureExists(ctx, queueName); err != nil {
		return fmt.Errorf("ensure queue %q exists: %w", queueName, err)
	}
	path, err := s.resolver.FullPathFor(queueName)
	if err != nil {
		return fmt.Errorf("resolve queue %q: %w", queueName, err)
	}

	bound, err := s.transport.Bind(ctx, path)
	if err != nil {
		return fmt.Errorf("bind queue %q: %w", queueName, err)
	}

	transactional, err := bound.IsTransactional(ctx)
	if err != nil {
		bound.Close()
		return &contracts.ConfigurationError{Queue: queueName, Reason: "cannot inspect queue", Err: err}
	}
	if !transactional {
		bound.Close()
		return &contracts.ConfigurationError{Queue: queueName, Reason: "queue must be transactional"}
	}

	if s.purgeOnStartup {
		if err := bound.Purge(ctx); err != nil {
			bound.Close()
			return fmt.Errorf("purge queue %q: %w", queueName, err)
		}
		s.logger.Warn("purged queue on startup", "queue", queueName)
	}

	s.queueName = queueName
	s.bound = bound
	s.initialized = true

	s.logger.Info("queue session ready",
		"queue", queueName,
		"waitTimeout", s.waitTimeout,
	)
	return nil
}

// Send encodes msg and writes it to destination through a call-scoped handle.
// The send joins the ambient transaction when ctx carries one and otherwise
// runs in its own single-operation transaction, so the native send is always
// transactionally atomic. A missing destination yields a
// *contracts.QueueNotFoundError; any other native fault propagates unchanged.
// On success the native-assigned id is written back into msg.ID.
func (s *QueueSession) Send(ctx context.Context, msg *contracts.TransportMessage, destination string) error {
	if !s.initialized {
		return contracts.ErrSessionNotReady
	}

	path, err := s.resolver.FullPathFor(destination)
	if err != nil {
		return fmt.Errorf("resolve destination %q: %w", destination, err)
	}

	sq, err := s.transport.OpenSend(ctx, path)
	if err != nil {
		return s.classifySendFault(destination, err)
	}
	defer sq.Close()

	entry, err := s.translator.ToEntry(msg)
	if err != nil {
		return err
	}

	tx := TransactionSingle
	if HasAmbientTransaction(ctx) {
		tx = TransactionAutomatic
	}

	id, err := sq.Send(ctx, entry, tx)
	if err != nil {
		return s.classifySendFault(destination, err)
	}
	msg.ID = id

	s.logger.Debug("message sent",
		"destination", destination,
		"messageId", id,
		"intent", msg.Intent.String(),
		"transaction", tx.String(),
	)
	return nil
}

// HasMessage peeks the bound queue without consuming, waiting up to the
// session's wait timeout. An empty queue is a normal outcome and reports
// (false, nil); any fault other than the timeout propagates.
func (s *QueueSession) HasMessage(ctx context.Context) (bool, error) {
	if !s.initialized {
		return false, contracts.ErrSessionNotReady
	}

	err := s.bound.Peek(ctx, s.waitTimeout)
	switch {
	case err == nil:
		return true, nil
	case contracts.IsTimeout(err):
		return false, nil
	default:
		return false, err
	}
}

// Receive consumes the next message, waiting up to the session's wait
// timeout. useTransaction selects TransactionAutomatic or TransactionNone:
// unlike Send, the caller rather than the ambient context decides
// transactionality here, and that asymmetry is intentional. An empty queue
// reports (nil, nil). Access denied returns a *contracts.AccessDeniedError
// naming the queue and the current principal for the host to act on; any
// other fault propagates unchanged.
func (s *QueueSession) Receive(ctx context.Context, useTransaction bool) (*contracts.TransportMessage, error) {
	if !s.initialized {
		return nil, contracts.ErrSessionNotReady
	}

	tx := TransactionNone
	if useTransaction {
		tx = TransactionAutomatic
	}

	entry, err := s.bound.Receive(ctx, s.waitTimeout, tx)
	if err != nil {
		switch {
		case contracts.IsTimeout(err):
			return nil, nil
		case contracts.IsAccessDenied(err):
			return nil, &contracts.AccessDeniedError{
				Queue:     s.queueName,
				Principal: currentPrincipal(),
				Err:       err,
			}
		default:
			return nil, err
		}
	}

	return s.translator.FromEntry(entry)
}

// Close releases the bound native handle. The session cannot be reused
// afterward.
func (s *QueueSession) Close() error {
	if s.bound == nil {
		return nil
	}
	return s.bound.Close()
}

func (s *QueueSession) classifySendFault(destination string, err error) error {
	if contracts.IsQueueNotFound(err) {
		return &contracts.QueueNotFoundError{Queue: destination, Err: err}
	}
	return err
}

// currentPrincipal names the identity the process runs as, for access-denied
// diagnostics.
func currentPrincipal() string {
	u, err := user.Current()
	if err != nil {
		return "unknown"
	}
	return u.Username
}
