package messaging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vvsvvt/transitq/contracts"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readySession(t *testing.T, transport *mockTransport, bound *mockBoundQueue, options ...SessionOption) *QueueSession {
	t.Helper()

	transport.On("Bind", mock.Anything, "orders").Return(bound, nil).Once()
	bound.On("IsTransactional", mock.Anything).Return(true, nil).Once()

	options = append([]SessionOption{WithSessionLogger(quietLogger())}, options...)
	session := NewQueueSession(transport, &stubResolver{}, options...)
	require.NoError(t, session.Init(context.Background(), "orders"))
	return session
}

func TestQueueSessionInit(t *testing.T) {
	t.Run("binds and validates the queue", func(t *testing.T) {
		transport := &mockTransport{}
		bound := &mockBoundQueue{}
		resolver := &stubResolver{}

		transport.On("Bind", mock.Anything, "orders").Return(bound, nil).Once()
		bound.On("IsTransactional", mock.Anything).Return(true, nil).Once()

		session := NewQueueSession(transport, resolver, WithSessionLogger(quietLogger()))
		err := session.Init(context.Background(), "orders")

		require.NoError(t, err)
		assert.Equal(t, []string{"orders"}, resolver.ensured)
		transport.AssertExpectations(t)
		bound.AssertExpectations(t)
	})

	t.Run("must run exactly once", func(t *testing.T) {
		transport := &mockTransport{}
		bound := &mockBoundQueue{}
		session := readySession(t, transport, bound)

		err := session.Init(context.Background(), "orders")
		assert.ErrorIs(t, err, contracts.ErrSessionInitialized)
	})

	t.Run("rejects a non-local queue", func(t *testing.T) {
		resolver := &stubResolver{localOnly: map[string]bool{"orders@elsewhere": false}}
		session := NewQueueSession(&mockTransport{}, resolver, WithSessionLogger(quietLogger()))

		err := session.Init(context.Background(), "orders@elsewhere")

		var cfgErr *contracts.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Reason, "must be local")

		// Session stays uninitialized.
		_, recvErr := session.Receive(context.Background(), false)
		assert.ErrorIs(t, recvErr, contracts.ErrSessionNotReady)
	})

	t.Run("rejects a non-transactional queue and releases the handle", func(t *testing.T) {
		transport := &mockTransport{}
		bound := &mockBoundQueue{}

		transport.On("Bind", mock.Anything, "orders").Return(bound, nil).Once()
		bound.On("IsTransactional", mock.Anything).Return(false, nil).Once()
		bound.On("Close").Return(nil).Once()

		session := NewQueueSession(transport, &stubResolver{}, WithSessionLogger(quietLogger()))
		err := session.Init(context.Background(), "orders")

		var cfgErr *contracts.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Reason, "must be transactional")
		bound.AssertExpectations(t)

		_, recvErr := session.Receive(context.Background(), false)
		assert.ErrorIs(t, recvErr, contracts.ErrSessionNotReady)
	})

	t.Run("wraps a failing capability probe", func(t *testing.T) {
		transport := &mockTransport{}
		bound := &mockBoundQueue{}
		probeErr := errors.New("broker hiccup")

		transport.On("Bind", mock.Anything, "orders").Return(bound, nil).Once()
		bound.On("IsTransactional", mock.Anything).Return(false, probeErr).Once()
		bound.On("Close").Return(nil).Once()

		session := NewQueueSession(transport, &stubResolver{}, WithSessionLogger(quietLogger()))
		err := session.Init(context.Background(), "orders")

		var cfgErr *contracts.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Reason, "cannot inspect queue")
		assert.ErrorIs(t, err, probeErr)
	})

	t.Run("purges on startup when configured", func(t *testing.T) {
		transport := &mockTransport{}
		bound := &mockBoundQueue{}

		transport.On("Bind", mock.Anything, "orders").Return(bound, nil).Once()
		bound.On("IsTransactional", mock.Anything).Return(true, nil).Once()
		bound.On("Purge", mock.Anything).Return(nil).Once()

		session := NewQueueSession(transport, &stubResolver{},
			WithSessionLogger(quietLogger()),
			WithPurgeOnStartup(true),
		)
		require.NoError(t, session.Init(context.Background(), "orders"))
		bound.AssertExpectations(t)
	})

	t.Run("does not purge by default", func(t *testing.T) {
		transport := &mockTransport{}
		bound := &mockBoundQueue{}
		_ = readySession(t, transport, bound)

		bound.AssertNotCalled(t, "Purge", mock.Anything)
	})

	t.Run("propagates a failing existence check", func(t *testing.T) {
		ensureErr := errors.New("provisioning down")
		resolver := &stubResolver{ensureErr: ensureErr}
		session := NewQueueSession(&mockTransport{}, resolver, WithSessionLogger(quietLogger()))

		err := session.Init(context.Background(), "orders")
		assert.ErrorIs(t, err, ensureErr)
	})
}

func TestQueueSessionSend(t *testing.T) {
	t.Run("writes the assigned id back into the message", func(t *testing.T) {
		transport := &mockTransport{}
		bound := &mockBoundQueue{}
		session := readySession(t, transport, bound)

		sq := &mockSendQueue{}
		transport.On("OpenSend", mock.Anything, "billing").Return(sq, nil).Once()
		sq.On("Send", mock.Anything, mock.Anything, TransactionSingle).Return("assigned-1", nil).Once()
		sq.On("Close").Return(nil).Once()

		msg := &contracts.TransportMessage{Body: []byte("hi")}
		err := session.Send(context.Background(), msg, "billing")

		require.NoError(t, err)
		assert.Equal(t, "assigned-1", msg.ID)
		sq.AssertExpectations(t)
	})

	t.Run("joins an ambient transaction when the context carries one", func(t *testing.T) {
		transport := &mockTransport{}
		bound := &mockBoundQueue{}
		session := readySession(t, transport, bound)

		sq := &mockSendQueue{}
		transport.On("OpenSend", mock.Anything, "billing").Return(sq, nil).Once()
		sq.On("Send", mock.Anything, mock.Anything, TransactionAutomatic).Return("assigned-2", nil).Once()
		sq.On("Close").Return(nil).Once()

		ctx := WithAmbientTransaction(context.Background())
		err := session.Send(ctx, &contracts.TransportMessage{}, "billing")

		require.NoError(t, err)
		sq.AssertExpectations(t)
	})

	t.Run("translates queue-not-found to the logical destination", func(t *testing.T) {
		transport := &mockTransport{}
		bound := &mockBoundQueue{}
		session := readySession(t, transport, bound)

		native := &contracts.QueueNotFoundError{Queue: "native/billing"}
		transport.On("OpenSend", mock.Anything, "billing").Return(nil, native).Once()

		err := session.Send(context.Background(), &contracts.TransportMessage{}, "billing")

		var notFound *contracts.QueueNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "billing", notFound.Queue)
	})

	t.Run("closes the send handle when the send fails", func(t *testing.T) {
		transport := &mockTransport{}
		bound := &mockBoundQueue{}
		session := readySession(t, transport, bound)

		sq := &mockSendQueue{}
		sendErr := errors.New("broker unavailable")
		transport.On("OpenSend", mock.Anything, "billing").Return(sq, nil).Once()
		sq.On("Send", mock.Anything, mock.Anything, TransactionSingle).Return("", sendErr).Once()
		sq.On("Close").Return(nil).Once()

		err := session.Send(context.Background(), &contracts.TransportMessage{}, "billing")

		assert.ErrorIs(t, err, sendErr)
		sq.AssertExpectations(t)
	})

	t.Run("fails before Init", func(t *testing.T) {
		session := NewQueueSession(&mockTransport{}, &stubResolver{}, WithSessionLogger(quietLogger()))

		err := session.Send(context.Background(), &contracts.TransportMessage{}, "billing")
		assert.ErrorIs(t, err, contracts.ErrSessionNotReady)
	})
}

func TestQueueSessionHasMessage(t *testing.T) {
	t.Run("reports availability", func(t *testing.T) {
		transport := &mockTransport{}
		bound := &mockBoundQueue{}
		session := readySession(t, transport, bound)

		bound.On("Peek", mock.Anything, defaultWaitTimeout).Return(nil).Once()

		has, err := session.HasMessage(context.Background())
		require.NoError(t, err)
		assert.True(t, has)
	})

	t.Run("empty queue is not an error", func(t *testing.T) {
		transport := &mockTransport{}
		bound := &mockBoundQueue{}
		session := readySession(t, transport, bound, WithWaitTimeout(250*time.Millisecond))

		bound.On("Peek", mock.Anything, 250*time.Millisecond).Return(contracts.ErrNoMessage).Once()

		has, err := session.HasMessage(context.Background())
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("propagates other peek faults", func(t *testing.T) {
		transport := &mockTransport{}
		bound := &mockBoundQueue{}
		session := readySession(t, transport, bound)

		peekErr := errors.New("channel closed")
		bound.On("Peek", mock.Anything, defaultWaitTimeout).Return(peekErr).Once()

		_, err := session.HasMessage(context.Background())
		assert.ErrorIs(t, err, peekErr)
	})
}

func TestQueueSessionReceive(t *testing.T) {
	t.Run("decodes the received entry", func(t *testing.T) {
		transport := &mockTransport{}
		bound := &mockBoundQueue{}
		session := readySession(t, transport, bound)

		entry := &contracts.QueueEntry{ID: "m1", Payload: []byte("hello"), AppTag: contracts.IntentReply.Tag()}
		bound.On("Receive", mock.Anything, defaultWaitTimeout, TransactionAutomatic).Return(entry, nil).Once()

		msg, err := session.Receive(context.Background(), true)

		require.NoError(t, err)
		require.NotNil(t, msg)
		assert.Equal(t, "m1", msg.ID)
		assert.Equal(t, []byte("hello"), msg.Body)
		assert.Equal(t, contracts.IntentReply, msg.Intent)
	})

	t.Run("caller opts out of the transaction", func(t *testing.T) {
		transport := &mockTransport{}
		bound := &mockBoundQueue{}
		session := readySession(t, transport, bound)

		entry := &contracts.QueueEntry{ID: "m2"}
		bound.On("Receive", mock.Anything, defaultWaitTimeout, TransactionNone).Return(entry, nil).Once()

		_, err := session.Receive(context.Background(), false)
		require.NoError(t, err)
		bound.AssertExpectations(t)
	})

	t.Run("empty queue yields absent message", func(t *testing.T) {
		transport := &mockTransport{}
		bound := &mockBoundQueue{}
		session := readySession(t, transport, bound)

		bound.On("Receive", mock.Anything, defaultWaitTimeout, TransactionAutomatic).
			Return(nil, contracts.ErrNoMessage).Once()

		msg, err := session.Receive(context.Background(), true)
		require.NoError(t, err)
		assert.Nil(t, msg)
	})

	t.Run("access denied names the queue and the principal", func(t *testing.T) {
		transport := &mockTransport{}
		bound := &mockBoundQueue{}
		session := readySession(t, transport, bound)

		native := &contracts.AccessDeniedError{Queue: "native/orders", Err: errors.New("403")}
		bound.On("Receive", mock.Anything, defaultWaitTimeout, TransactionAutomatic).Return(nil, native).Once()

		_, err := session.Receive(context.Background(), true)

		var denied *contracts.AccessDeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, "orders", denied.Queue)
		assert.NotEmpty(t, denied.Principal)
	})

	t.Run("propagates other faults unchanged", func(t *testing.T) {
		transport := &mockTransport{}
		bound := &mockBoundQueue{}
		session := readySession(t, transport, bound)

		recvErr := errors.New("connection reset")
		bound.On("Receive", mock.Anything, defaultWaitTimeout, TransactionAutomatic).Return(nil, recvErr).Once()

		_, err := session.Receive(context.Background(), true)
		assert.ErrorIs(t, err, recvErr)
	})

	t.Run("fails before Init", func(t *testing.T) {
		session := NewQueueSession(&mockTransport{}, &stubResolver{}, WithSessionLogger(quietLogger()))

		_, err := session.Receive(context.Background(), true)
		assert.ErrorIs(t, err, contracts.ErrSessionNotReady)
	})
}

func TestQueueSessionClose(t *testing.T) {
	t.Run("releases the bound handle", func(t *testing.T) {
		transport := &mockTransport{}
		bound := &mockBoundQueue{}
		session := readySession(t, transport, bound)

		bound.On("Close").Return(nil).Once()
		require.NoError(t, session.Close())
		bound.AssertExpectations(t)
	})

	t.Run("is a no-op before Init", func(t *testing.T) {
		session := NewQueueSession(&mockTransport{}, &stubResolver{}, WithSessionLogger(quietLogger()))
		assert.NoError(t, session.Close())
	})
}
