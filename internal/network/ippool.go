// Package network provides tunnel address allocation for VPN clients.
// Addresses are handed out sequentially within a fixed IPv4 network:
// the first client receives the second usable host address (the first is
// reserved for the server), and every subsequent client receives the
// address one past the most recently assigned one. Freed addresses are
// never reused, so the assignment stays monotonic across deletions.
package network

import (
	"errors"
	"fmt"
	"net"
)

// ErrPoolExhausted is returned when the next sequential address would fall
// outside the usable host range of the pool's network.
var ErrPoolExhausted = errors.New("no available IP addresses in pool")

// Pool computes sequential client addresses within an IPv4 network.
// It holds no allocation state of its own: the caller supplies the most
// recently assigned address, which the backing store is authoritative for.
type Pool struct {
	network string     // Original CIDR notation (e.g., "10.0.0.0/24")
	ipNet   *net.IPNet // Parsed network information
	first   net.IP     // First client address (network + 2; network + 1 is the server)
	last    net.IP     // Last usable host address (broadcast - 1)
}

// NewPool creates an address pool from the given CIDR notation. The network
// must be IPv4 and large enough to hold a server address plus at least one
// client address.
// Returns a Pool instance or an error if the CIDR is invalid or too small.
func NewPool(cidr string) (*Pool, error) {
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("invalid CIDR: %w", err)
	}

	if ipNet.IP.To4() == nil {
		return nil, fmt.Errorf("IPv6 not supported")
	}

	ones, bits := ipNet.Mask.Size()
	if bits-ones < 3 {
		return nil, fmt.Errorf("network too small, need at least /29")
	}

	networkAddr := ipNet.IP.Mask(ipNet.Mask).To4()
	broadcastAddr := make(net.IP, len(networkAddr))
	copy(broadcastAddr, networkAddr)
	for i := range broadcastAddr {
		broadcastAddr[i] |= ^ipNet.Mask[i]
	}

	return &Pool{
		network: cidr,
		ipNet:   ipNet,
		first:   incrementIP(networkAddr, 2),
		last:    incrementIP(broadcastAddr, -1),
	}, nil
}

// NextAddress computes the address to assign to the next client.
// lastAssigned is the address of the client with the highest ID, or the
// empty string when no clients exist; in that case the first client address
// is returned. Otherwise the result is the address one past lastAssigned.
// Gaps left by deleted clients are intentionally never filled.
// Returns ErrPoolExhausted when the next address would leave the usable
// host range.
func (p *Pool) NextAddress(lastAssigned string) (string, error) {
	if lastAssigned == "" {
		return p.first.String(), nil
	}

	ip := net.ParseIP(lastAssigned)
	if ip == nil || ip.To4() == nil {
		return "", fmt.Errorf("invalid IP address: %s", lastAssigned)
	}
	if !p.ipNet.Contains(ip) {
		return "", fmt.Errorf("IP address not in network range: %s", lastAssigned)
	}

	next := incrementIP(ip.To4(), 1)
	if !p.ipNet.Contains(next) || next.Equal(incrementIP(p.last, 1)) {
		return "", ErrPoolExhausted
	}

	return next.String(), nil
}

// Contains reports whether the given address falls inside the pool's network.
func (p *Pool) Contains(address string) bool {
	ip := net.ParseIP(address)
	return ip != nil && p.ipNet.Contains(ip)
}

// Network returns the pool's network in CIDR notation.
func (p *Pool) Network() string {
	return p.network
}

// ServerAddress returns the address reserved for the VPN server: the first
// usable host address in the network.
func (p *Pool) ServerAddress() string {
	return incrementIP(p.first, -1).String()
}

// incrementIP adds inc (which may be negative) to an IP address, carrying
// across octets.
func incrementIP(ip net.IP, inc int) net.IP {
	result := make(net.IP, len(ip))
	copy(result, ip)

	for i := len(result) - 1; i >= 0 && inc != 0; i-- {
		val := int(result[i]) + inc
		result[i] = byte(val & 0xFF)
		inc = val >> 8
	}

	return result
}
