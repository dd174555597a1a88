package messaging

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalResolver(t *testing.T) {
	resolver := NewLocalResolver()

	t.Run("full path strips the host part", func(t *testing.T) {
		path, err := resolver.FullPathFor("orders@localhost")
		require.NoError(t, err)
		assert.Equal(t, "orders", path)
	})

	t.Run("bare queue name resolves to itself", func(t *testing.T) {
		path, err := resolver.FullPathFor("orders")
		require.NoError(t, err)
		assert.Equal(t, "orders", path)
	})

	t.Run("rejects an empty address", func(t *testing.T) {
		_, err := resolver.FullPathFor("")
		assert.Error(t, err)

		_, err = resolver.FullPathFor("@somewhere")
		assert.Error(t, err)
	})

	t.Run("owns addresses without a host part", func(t *testing.T) {
		assert.True(t, resolver.LocalMachineOwns("orders"))
		assert.True(t, resolver.LocalMachineOwns("orders@localhost"))
		assert.True(t, resolver.LocalMachineOwns("orders@."))
	})

	t.Run("owns the machine hostname case-insensitively", func(t *testing.T) {
		hostname, err := os.Hostname()
		require.NoError(t, err)

		assert.True(t, resolver.LocalMachineOwns("orders@"+hostname))
		assert.True(t, resolver.LocalMachineOwns("orders@"+strings.ToUpper(hostname)))
	})

	t.Run("does not own a foreign host", func(t *testing.T) {
		assert.False(t, resolver.LocalMachineOwns("orders@some-other-box"))
	})

	t.Run("reverse resolution is the identity", func(t *testing.T) {
		assert.Equal(t, "orders", resolver.LogicalAddressFor("orders"))
	})

	t.Run("ensure exists is a no-op", func(t *testing.T) {
		assert.NoError(t, resolver.EnsureExists(context.Background(), "orders"))
	})
}
