package messaging

import (
	"context"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const ambientTransactionKey contextKey = "transitq:ambient-transaction"

// WithAmbientTransaction marks ctx as carrying an enlisted transaction scope.
// Sends issued under such a context join that scope instead of opening their
// own single-operation transaction.
func WithAmbientTransaction(ctx context.Context) context.Context {
	return context.WithValue(ctx, ambientTransactionKey, true)
}

// HasAmbientTransaction reports whether ctx carries an enlisted transaction
// scope.
func HasAmbientTransaction(ctx context.Context) bool {
	active, _ := ctx.Value(ambientTransactionKey).(bool)
	return active
}
