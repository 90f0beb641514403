// Package utils provides helper functionality shared across the API,
// currently QR code rendering of client tunnel configurations.
package utils

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// qrSize is the pixel dimension of generated QR images, chosen for reliable
// scanning by the WireGuard mobile apps.
const qrSize = 256

// GenerateConfigQR renders a client tunnel configuration as a PNG QR code.
// The content is validated to look like a tunnel configuration before
// encoding, since an empty or malformed document would produce a scannable
// but useless image.
// Returns the PNG bytes or an error if validation or encoding fails.
func GenerateConfigQR(config string) ([]byte, error) {
	if config == "" {
		return nil, fmt.Errorf("configuration cannot be empty")
	}
	if !looksLikeTunnelConfig(config) {
		return nil, fmt.Errorf("invalid tunnel configuration format")
	}

	pngData, err := qrcode.Encode(config, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code PNG: %w", err)
	}
	return pngData, nil
}

// looksLikeTunnelConfig checks for the section headers every client
// configuration carries.
func looksLikeTunnelConfig(config string) bool {
	return strings.Contains(config, "[Interface]") && strings.Contains(config, "[Peer]")
}
