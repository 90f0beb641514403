package wireguard

import (
	"fmt"
	"strings"

	"vpn-manager/internal/database"
)

// Fixed values substituted into every client configuration. The client
// address carries the network's /24 suffix, all traffic is routed through
// the tunnel, and the keepalive keeps NATed peers reachable.
const (
	clientDNS        = "8.8.8.8"
	clientAllowedIPs = "0.0.0.0/0"
	clientKeepalive  = 25
	clientMaskBits   = 24
)

// RenderClientConfig produces the tunnel configuration text a client uses
// to connect to the active server. Five fields are substituted verbatim:
// the client's private key and address, the server's public key, and the
// server's endpoint and port. Field contents are trusted to be well-formed
// key and address strings; no escaping is performed.
func RenderClientConfig(client *database.Client, server *database.Server) string {
	var config strings.Builder

	config.WriteString("[Interface]\n")
	config.WriteString(fmt.Sprintf("PrivateKey = %s\n", client.PrivateKey))
	config.WriteString(fmt.Sprintf("Address = %s/%d\n", client.IPAddress, clientMaskBits))
	config.WriteString(fmt.Sprintf("DNS = %s\n", clientDNS))

	config.WriteString("\n[Peer]\n")
	config.WriteString(fmt.Sprintf("PublicKey = %s\n", server.PublicKey))
	config.WriteString(fmt.Sprintf("Endpoint = %s:%d\n", server.Endpoint, server.Port))
	config.WriteString(fmt.Sprintf("AllowedIPs = %s\n", clientAllowedIPs))
	config.WriteString(fmt.Sprintf("PersistentKeepalive = %d\n", clientKeepalive))

	return config.String()
}
