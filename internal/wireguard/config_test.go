package wireguard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpn-manager/internal/database"
)

// parseConfigFields extracts key = value pairs from a rendered client
// configuration, keyed by section-qualified name.
func parseConfigFields(t *testing.T, config string) map[string]string {
	t.Helper()

	fields := make(map[string]string)
	section := ""
	for _, line := range strings.Split(config, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") {
			section = line
			continue
		}
		key, value, found := strings.Cut(line, " = ")
		require.True(t, found, "unexpected config line: %q", line)
		fields[section+key] = value
	}
	return fields
}

func TestRenderClientConfig(t *testing.T) {
	client := &database.Client{
		Name:       "alice",
		PrivateKey: "cPrivKeyAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=",
		PublicKey:  "cPubKeyAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=",
		IPAddress:  "10.0.0.7",
	}
	server := &database.Server{
		Name:      "default-server",
		PublicKey: "sPubKeyAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=",
		Endpoint:  "vpn.example.com",
		Port:      51820,
	}

	t.Run("should round-trip the substituted fields", func(t *testing.T) {
		config := RenderClientConfig(client, server)
		fields := parseConfigFields(t, config)

		assert.Equal(t, client.PrivateKey, fields["[Interface]PrivateKey"])
		assert.Equal(t, client.IPAddress+"/24", fields["[Interface]Address"])
		assert.Equal(t, server.PublicKey, fields["[Peer]PublicKey"])
		assert.Equal(t, "vpn.example.com:51820", fields["[Peer]Endpoint"])
	})

	t.Run("should carry the fixed values", func(t *testing.T) {
		config := RenderClientConfig(client, server)
		fields := parseConfigFields(t, config)

		assert.Equal(t, "8.8.8.8", fields["[Interface]DNS"])
		assert.Equal(t, "0.0.0.0/0", fields["[Peer]AllowedIPs"])
		assert.Equal(t, "25", fields["[Peer]PersistentKeepalive"])
	})

	t.Run("should order sections Interface then Peer", func(t *testing.T) {
		config := RenderClientConfig(client, server)
		iface := strings.Index(config, "[Interface]")
		peer := strings.Index(config, "[Peer]")
		require.NotEqual(t, -1, iface)
		require.NotEqual(t, -1, peer)
		assert.Less(t, iface, peer)
	})

	t.Run("should substitute fields verbatim without escaping", func(t *testing.T) {
		odd := &database.Client{
			PrivateKey: "key/with+odd=chars",
			IPAddress:  "10.0.0.9",
		}
		config := RenderClientConfig(odd, server)
		assert.Contains(t, config, "PrivateKey = key/with+odd=chars\n")
	})
}
