// Package wireguard provides the seams to the WireGuard control plane:
// keypair generation, client tunnel configuration rendering, and status
// reporting. The external `wg` binary is treated as an opaque command whose
// text output is parsed; where the binary is unavailable, in-process
// substitutes keep the API functional.
package wireguard

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/crypto/curve25519"
)

// keygenTimeout bounds a single external key generation invocation.
const keygenTimeout = 5 * time.Second

// KeyPair represents a WireGuard cryptographic key pair with both keys in
// the base64 encoding the configuration format expects.
type KeyPair struct {
	PrivateKey string // Base64-encoded private key (32 bytes)
	PublicKey  string // Base64-encoded public key (32 bytes)
}

// KeyGenerator produces WireGuard key pairs. The concrete implementation is
// selected once at startup: the external `wg` binary where available,
// otherwise an in-process Curve25519 generator.
type KeyGenerator interface {
	GenerateKeyPair() (*KeyPair, error)
}

// ExecKeyGenerator generates key pairs by invoking `wg genkey` and
// `wg pubkey`.
type ExecKeyGenerator struct {
	binary string // Path or name of the wg binary
}

// NewExecKeyGenerator creates a key generator backed by the external wg
// binary.
func NewExecKeyGenerator() *ExecKeyGenerator {
	return &ExecKeyGenerator{binary: "wg"}
}

// GenerateKeyPair runs `wg genkey` to obtain a private key and pipes it
// through `wg pubkey` to derive the public key. Each invocation is bounded
// by a timeout so a wedged binary cannot hang a request.
// Returns the key pair or an error if either command fails.
func (g *ExecKeyGenerator) GenerateKeyPair() (*KeyPair, error) {
	ctx, cancel := context.WithTimeout(context.Background(), keygenTimeout)
	defer cancel()

	genkey := exec.CommandContext(ctx, g.binary, "genkey")
	privateOut, err := genkey.Output()
	if err != nil {
		return nil, fmt.Errorf("wg genkey failed: %w", err)
	}
	privateKey := strings.TrimSpace(string(privateOut))

	pubkey := exec.CommandContext(ctx, g.binary, "pubkey")
	pubkey.Stdin = bytes.NewBufferString(privateKey)
	publicOut, err := pubkey.Output()
	if err != nil {
		return nil, fmt.Errorf("wg pubkey failed: %w", err)
	}

	return &KeyPair{
		PrivateKey: privateKey,
		PublicKey:  strings.TrimSpace(string(publicOut)),
	}, nil
}

// LocalKeyGenerator generates key pairs in-process using Curve25519.
// It serves platforms where the wg binary is not installed and produces
// keys interchangeable with the binary's output.
type LocalKeyGenerator struct{}

// NewLocalKeyGenerator creates an in-process key generator.
func NewLocalKeyGenerator() *LocalKeyGenerator {
	return &LocalKeyGenerator{}
}

// GenerateKeyPair creates a private key from the system's secure random
// source and derives the public key via Curve25519 scalar multiplication.
// Both keys are base64-encoded.
func (g *LocalKeyGenerator) GenerateKeyPair() (*KeyPair, error) {
	var private [32]byte
	if _, err := rand.Read(private[:]); err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	public, err := curve25519.X25519(private[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key: %w", err)
	}

	return &KeyPair{
		PrivateKey: base64.StdEncoding.EncodeToString(private[:]),
		PublicKey:  base64.StdEncoding.EncodeToString(public),
	}, nil
}

// DetectKeyGenerator selects the key generation implementation for this
// host: the external wg binary when it is on PATH, otherwise the in-process
// Curve25519 generator. Detection happens once; request handlers never
// branch on platform.
func DetectKeyGenerator() KeyGenerator {
	if _, err := exec.LookPath("wg"); err == nil {
		return NewExecKeyGenerator()
	}
	return NewLocalKeyGenerator()
}
