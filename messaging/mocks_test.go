package messaging

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/vvsvvt/transitq/contracts"
)

// Mock QueueTransport
type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Bind(ctx context.Context, path string) (BoundQueue, error) {
	args := m.Called(ctx, path)
	if q := args.Get(0); q != nil {
		return q.(BoundQueue), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransport) OpenSend(ctx context.Context, path string) (SendQueue, error) {
	args := m.Called(ctx, path)
	if q := args.Get(0); q != nil {
		return q.(SendQueue), args.Error(1)
	}
	return nil, args.Error(1)
}

// Mock BoundQueue
type mockBoundQueue struct {
	mock.Mock
}

func (m *mockBoundQueue) IsTransactional(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *mockBoundQueue) Purge(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockBoundQueue) Peek(ctx context.Context, wait time.Duration) error {
	args := m.Called(ctx, wait)
	return args.Error(0)
}

func (m *mockBoundQueue) Receive(ctx context.Context, wait time.Duration, tx TransactionType) (*contracts.QueueEntry, error) {
	args := m.Called(ctx, wait, tx)
	if e := args.Get(0); e != nil {
		return e.(*contracts.QueueEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBoundQueue) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Mock SendQueue
type mockSendQueue struct {
	mock.Mock
}

func (m *mockSendQueue) Send(ctx context.Context, entry *contracts.QueueEntry, tx TransactionType) (string, error) {
	args := m.Called(ctx, entry, tx)
	return args.String(0), args.Error(1)
}

func (m *mockSendQueue) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Stub resolver with programmable behavior
type stubResolver struct {
	paths     map[string]string // logical -> native, identity when nil
	reverse   map[string]string // native -> logical
	localOnly map[string]bool   // addresses not owned locally
	ensureErr error
	pathErr   error
	ensured   []string
}

func (r *stubResolver) FullPathFor(logicalAddress string) (string, error) {
	if r.pathErr != nil {
		return "", r.pathErr
	}
	if r.paths != nil {
		if p, ok := r.paths[logicalAddress]; ok {
			return p, nil
		}
	}
	return logicalAddress, nil
}

func (r *stubResolver) LogicalAddressFor(nativeRef string) string {
	if r.reverse != nil {
		return r.reverse[nativeRef]
	}
	return nativeRef
}

func (r *stubResolver) EnsureExists(ctx context.Context, logicalAddress string) error {
	r.ensured = append(r.ensured, logicalAddress)
	return r.ensureErr
}

func (r *stubResolver) LocalMachineOwns(logicalAddress string) bool {
	if r.localOnly != nil {
		if owned, ok := r.localOnly[logicalAddress]; ok {
			return owned
		}
	}
	return true
}
