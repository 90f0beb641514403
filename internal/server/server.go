// Package server wires the application together: configuration, storage,
// control-plane capabilities, and the HTTP router. It replaces hidden
// process-wide state with one explicit Server value constructed at startup
// and handed its dependencies.
package server

import (
	"errors"
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"vpn-manager/internal/api"
	"vpn-manager/internal/auth"
	"vpn-manager/internal/config"
	"vpn-manager/internal/database"
	"vpn-manager/internal/network"
	"vpn-manager/internal/system"
	"vpn-manager/internal/wireguard"
)

// Server is the application context: every request handler reaches its
// dependencies through here rather than through globals.
type Server struct {
	cfg    *config.Config
	db     *database.Database
	pool   *network.Pool
	keygen wireguard.KeyGenerator
	logger zerolog.Logger
	router *gin.Engine
}

// New constructs the application: opens the database, selects the key
// generation capability for this host, builds the router, and optionally
// seeds the default records.
// Returns the Server or an error if any dependency fails to initialize.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	pool, err := network.NewPool(cfg.Network)
	if err != nil {
		return nil, fmt.Errorf("invalid VPN network: %w", err)
	}

	keygen := wireguard.DetectKeyGenerator()
	if _, ok := keygen.(*wireguard.ExecKeyGenerator); ok {
		logger.Info().Msg("using wg binary for key generation")
	} else {
		logger.Info().Msg("wg binary not found, using in-process key generation")
	}

	s := &Server{
		cfg:    cfg,
		db:     db,
		pool:   pool,
		keygen: keygen,
		logger: logger,
	}

	if cfg.SeedDefaults {
		if err := s.seed(); err != nil {
			return nil, fmt.Errorf("failed to seed defaults: %w", err)
		}
	}

	s.router = s.buildRouter()
	return s, nil
}

// Run starts the HTTP server on the configured listen address and blocks
// until it stops.
func (s *Server) Run() error {
	s.logger.Info().Str("addr", s.cfg.ListenAddr).Msg("starting VPN management API")
	return s.router.Run(s.cfg.ListenAddr)
}

// Router exposes the configured gin engine, primarily for tests that drive
// requests through httptest.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// buildRouter assembles the gin engine: recovery, CORS for the management
// frontend, and the three route groups.
func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}))

	authManager := auth.NewAuthManager(s.cfg.JWTSecret)
	middleware := auth.NewAuthMiddleware(authManager)

	reporter := wireguard.NewReporter(wireguard.NewExecStatusDumper(), s.logger)
	sampler := system.NewSampler(s.logger)

	api.NewAuthAPI(s.db, authManager, s.logger).RegisterRoutes(router)
	api.NewClientAPI(s.db, s.pool, s.keygen, s.logger).RegisterRoutes(router, middleware)
	api.NewStatusAPI(reporter, sampler).RegisterRoutes(router, middleware)

	return router
}

// seed creates the default admin user, VPN client, and active VPN server
// on first boot. Each record is only created when its table is empty, so
// reboots are idempotent.
func (s *Server) seed() error {
	if _, err := s.db.GetUserByUsername("admin"); errors.Is(err, gorm.ErrRecordNotFound) {
		// Default credentials; deployments are expected to change these.
		if _, err := s.db.CreateUser("admin", "admin@vpn.local", "admin123", true); err != nil {
			return err
		}
		s.logger.Info().Msg("created default admin user")
	} else if err != nil {
		return err
	}

	clientCount, err := s.db.CountClients()
	if err != nil {
		return err
	}
	if clientCount == 0 {
		keyPair, err := s.keygen.GenerateKeyPair()
		if err != nil {
			return err
		}
		address, err := s.pool.NextAddress("")
		if err != nil {
			return err
		}
		client := &database.Client{
			Name:       "default-client",
			PublicKey:  keyPair.PublicKey,
			PrivateKey: keyPair.PrivateKey,
			IPAddress:  address,
			IsActive:   true,
		}
		if err := s.db.CreateClient(client); err != nil {
			return err
		}
		s.logger.Info().Str("ip", address).Msg("created default VPN client")
	}

	serverCount, err := s.db.CountServers()
	if err != nil {
		return err
	}
	if serverCount == 0 {
		keyPair, err := s.keygen.GenerateKeyPair()
		if err != nil {
			return err
		}
		srv := &database.Server{
			Name:       "default-server",
			PublicKey:  keyPair.PublicKey,
			PrivateKey: keyPair.PrivateKey,
			Endpoint:   "localhost",
			Port:       51820,
			IsActive:   true,
		}
		if err := s.db.CreateServer(srv); err != nil {
			return err
		}
		s.logger.Info().Msg("created default VPN server")
	}

	return nil
}
