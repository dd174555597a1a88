package rabbitmq

import (
	"context"
	"fmt"

	"github.com/vvsvvt/transitq/messaging"
)

// Resolver is the address-resolution collaborator backed by this broker:
// address parsing and locality follow the messaging.LocalResolver rules,
// and EnsureExists provisions the queue as durable on the broker.
type Resolver struct {
	local     *messaging.LocalResolver
	transport *Transport
}

// Resolver returns an address resolver that provisions queues on this
// transport's broker.
func (t *Transport) Resolver() *Resolver {
	return &Resolver{
		local:     messaging.NewLocalResolver(),
		transport: t,
	}
}

// FullPathFor resolves a logical address to its native queue name.
func (r *Resolver) FullPathFor(logicalAddress string) (string, error) {
	return r.local.FullPathFor(logicalAddress)
}

// LogicalAddressFor maps a native queue reference back to a logical address.
func (r *Resolver) LogicalAddressFor(nativeRef string) string {
	return r.local.LogicalAddressFor(nativeRef)
}

// EnsureExists declares the queue durable, creating it when missing.
func (r *Resolver) EnsureExists(ctx context.Context, logicalAddress string) error {
	path, err := r.local.FullPathFor(logicalAddress)
	if err != nil {
		return err
	}

	ch, err := r.transport.conn.Channel()
	if err != nil {
		return fmt.Errorf("open provisioning channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(path, true, false, false, false, nil); err != nil {
		return classify(path, err)
	}
	return nil
}

// LocalMachineOwns reports whether the address names a queue on this machine.
func (r *Resolver) LocalMachineOwns(logicalAddress string) bool {
	return r.local.LocalMachineOwns(logicalAddress)
}
