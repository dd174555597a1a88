package messaging

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// LocalResolver resolves addresses of the form "queue" or "queue@host". The
// native connection string is the bare queue name; the host part only scopes
// ownership. It performs no provisioning, so EnsureExists is a no-op --
// transports that can create queues wrap this resolver and supply their own
// (see transports/rabbitmq.Resolver).
type LocalResolver struct {
	hostname string
}

// NewLocalResolver creates a resolver bound to the local hostname.
func NewLocalResolver() *LocalResolver {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	return &LocalResolver{hostname: hostname}
}

// FullPathFor returns the queue part of the address.
func (r *LocalResolver) FullPathFor(logicalAddress string) (string, error) {
	queue, _ := splitAddress(logicalAddress)
	if queue == "" {
		return "", fmt.Errorf("messaging: empty queue address %q", logicalAddress)
	}
	return queue, nil
}

// LogicalAddressFor maps a native reference back to a logical address. The
// native reference already is the queue name in this namespace.
func (r *LocalResolver) LogicalAddressFor(nativeRef string) string {
	return nativeRef
}

// EnsureExists is a no-op; provisioning belongs to the transport.
func (r *LocalResolver) EnsureExists(ctx context.Context, logicalAddress string) error {
	return nil
}

// LocalMachineOwns reports whether the address's host part, when present,
// names this machine.
func (r *LocalResolver) LocalMachineOwns(logicalAddress string) bool {
	_, host := splitAddress(logicalAddress)
	if host == "" || host == "localhost" || host == "." {
		return true
	}
	return strings.EqualFold(host, r.hostname)
}

// splitAddress separates "queue@host" into its parts. No host part yields "".
func splitAddress(addr string) (queue, host string) {
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		return addr[:i], addr[i+1:]
	}
	return addr, ""
}
