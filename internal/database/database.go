package database

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNoActiveServer is returned when no VPN server row is marked active.
// Client config rendering treats this as a hard error.
var ErrNoActiveServer = errors.New("no active server found")

// ErrInvalidCredentials is returned for any failed login attempt. It is
// deliberately identical for unknown usernames and wrong passwords so that
// responses do not reveal whether an account exists.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Database wraps a GORM database instance and provides high-level operations
// for the VPN management data: users, clients, and servers.
type Database struct {
	*gorm.DB
}

// New creates a new Database instance backed by SQLite at the given path and
// runs migrations for all defined models. Use ":memory:" for an ephemeral
// store in tests.
// Returns a Database instance or an error if connection or migration fails.
func New(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&User{}, &Client{}, &Server{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{DB: db}, nil
}

// CreateClient inserts a new client record into the database.
func (db *Database) CreateClient(client *Client) error {
	return db.Create(client).Error
}

// GetClient retrieves a client by its unique ID.
func (db *Database) GetClient(id uint) (*Client, error) {
	var client Client
	err := db.First(&client, id).Error
	return &client, err
}

// GetClientByName retrieves a client by its unique name.
// This is used for duplicate-name checks on creation.
func (db *Database) GetClientByName(name string) (*Client, error) {
	var client Client
	err := db.Where("name = ?", name).First(&client).Error
	return &client, err
}

// ListClients retrieves all client records ordered by ID.
func (db *Database) ListClients() ([]Client, error) {
	var clients []Client
	err := db.Order("id").Find(&clients).Error
	return clients, err
}

// LastClient retrieves the client with the highest ID, which drives the
// next-address allocation rule. Returns gorm.ErrRecordNotFound when the
// store holds no clients.
func (db *Database) LastClient() (*Client, error) {
	var client Client
	err := db.Order("id desc").First(&client).Error
	return &client, err
}

// DeleteClient removes a client record from the database by ID.
// The client's address is never returned to the pool.
func (db *Database) DeleteClient(id uint) error {
	return db.Delete(&Client{}, id).Error
}

// CreateServer inserts a new VPN server record.
func (db *Database) CreateServer(server *Server) error {
	return db.Create(server).Error
}

// ActiveServer retrieves the first VPN server row marked active.
// Returns ErrNoActiveServer if no such row exists.
func (db *Database) ActiveServer() (*Server, error) {
	var server Server
	err := db.Where("is_active = ?", true).First(&server).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActiveServer
	}
	if err != nil {
		return nil, err
	}
	return &server, nil
}

// CountServers returns the total number of server rows.
func (db *Database) CountServers() (int64, error) {
	var count int64
	err := db.Model(&Server{}).Count(&count).Error
	return count, err
}

// CountClients returns the total number of client rows.
func (db *Database) CountClients() (int64, error) {
	var count int64
	err := db.Model(&Client{}).Count(&count).Error
	return count, err
}

// CreateUser inserts a new user record with a bcrypt-hashed password.
// Returns the created user or an error if hashing or insertion fails.
func (db *Database) CreateUser(username, email, password string, isAdmin bool) (*User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		IsAdmin:      isAdmin,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username. The lookup is
// case-sensitive; usernames are unique.
func (db *Database) GetUserByUsername(username string) (*User, error) {
	var user User
	err := db.Where("username = ?", username).First(&user).Error
	return &user, err
}

// AuthenticateUser validates the supplied credentials. On success it updates
// the user's last-login timestamp and returns the user. An unknown username,
// a wrong password, and a storage error on lookup all yield
// ErrInvalidCredentials.
func (db *Database) AuthenticateUser(username, password string) (*User, error) {
	user, err := db.GetUserByUsername(username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := db.Model(&User{}).Where("id = ?", user.ID).Update("last_login", &now).Error; err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}

	return user, nil
}
