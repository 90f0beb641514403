// Package database provides data models and the database access layer for
// the VPN management API. It defines the schema using GORM and includes
// models for users, VPN clients, and VPN servers.
package database

import (
	"time"
)

// User represents an account that can authenticate against the management API.
// Passwords are stored as bcrypt hashes and never serialized to JSON.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	IsAdmin      bool       `gorm:"default:false" json:"is_admin"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// Client represents a VPN peer record: its keypair, assigned tunnel address,
// activity flag, and the traffic counters reported by the data plane.
type Client struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"uniqueIndex;not null" json:"name"`
	PublicKey     string     `gorm:"uniqueIndex;not null" json:"public_key"`
	PrivateKey    string     `gorm:"not null" json:"private_key"`
	IPAddress     string     `gorm:"uniqueIndex;not null" json:"ip_address"`
	IsActive      bool       `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	LastConnected *time.Time `json:"last_connected,omitempty"`
	BytesReceived int64      `gorm:"default:0" json:"bytes_received"`
	BytesSent     int64      `gorm:"default:0" json:"bytes_sent"`
}

// Server represents a VPN server record. Exactly one row is expected to be
// active at a time; client config rendering reads the first active row.
type Server struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"uniqueIndex;not null" json:"name"`
	PublicKey  string    `gorm:"uniqueIndex;not null" json:"public_key"`
	PrivateKey string    `gorm:"not null" json:"private_key"`
	Endpoint   string    `gorm:"not null" json:"endpoint"`
	Port       int       `gorm:"default:51820" json:"port"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// TableName returns the database table name for the Client model.
func (Client) TableName() string {
	return "clients"
}

// TableName returns the database table name for the Server model.
func (Server) TableName() string {
	return "servers"
}
