package api

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"vpn-manager/internal/auth"
	"vpn-manager/internal/database"
	"vpn-manager/internal/network"
	"vpn-manager/internal/utils"
	"vpn-manager/internal/wireguard"
)

// ClientAPI provides the VPN client management endpoints: listing,
// creation, configuration and QR retrieval, and deletion.
type ClientAPI struct {
	db      *database.Database
	pool    *network.Pool
	keygen  wireguard.KeyGenerator
	logger  zerolog.Logger
	allocMu sync.Mutex // Serializes address allocation across concurrent creates
}

// ErrorResponse is the JSON body for all error statuses on this surface.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateClientRequest is the body for client creation.
type CreateClientRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateClientResponse is the representation returned on creation.
type CreateClientResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	IPAddress string `json:"ip_address"`
	PublicKey string `json:"public_key"`
}

// ClientSummary is one element of the client listing. Private keys are
// never included; they only appear inside rendered configurations.
type ClientSummary struct {
	ID            uint       `json:"id"`
	Name          string     `json:"name"`
	IPAddress     string     `json:"ip_address"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	LastConnected *time.Time `json:"last_connected"`
	BytesReceived int64      `json:"bytes_received"`
	BytesSent     int64      `json:"bytes_sent"`
}

// ClientConfigResponse carries a rendered tunnel configuration.
type ClientConfigResponse struct {
	Config string `json:"config"`
}

// MessageResponse is the JSON body for acknowledgement-only results.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewClientAPI creates a new client API instance.
func NewClientAPI(db *database.Database, pool *network.Pool, keygen wireguard.KeyGenerator, logger zerolog.Logger) *ClientAPI {
	return &ClientAPI{
		db:     db,
		pool:   pool,
		keygen: keygen,
		logger: logger,
	}
}

// RegisterRoutes registers the client routes behind the authentication
// middleware.
func (api *ClientAPI) RegisterRoutes(router *gin.Engine, middleware *auth.AuthMiddleware) {
	clients := router.Group("/api/clients")
	clients.Use(middleware.RequireAuth())
	{
		clients.GET("", api.ListClients)
		clients.POST("", api.CreateClient)
		clients.GET("/:id/config", api.GetClientConfig)
		clients.GET("/:id/qr", api.GetClientQR)
		clients.DELETE("/:id", api.DeleteClient)
	}
}

// ListClients returns summaries of all VPN clients.
func (api *ClientAPI) ListClients(c *gin.Context) {
	clients, err := api.db.ListClients()
	if err != nil {
		api.logger.Error().Err(err).Msg("client listing failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to get clients"})
		return
	}

	summaries := make([]ClientSummary, len(clients))
	for i, client := range clients {
		summaries[i] = ClientSummary{
			ID:            client.ID,
			Name:          client.Name,
			IPAddress:     client.IPAddress,
			IsActive:      client.IsActive,
			CreatedAt:     client.CreatedAt,
			LastConnected: client.LastConnected,
			BytesReceived: client.BytesReceived,
			BytesSent:     client.BytesSent,
		}
	}

	c.JSON(http.StatusOK, summaries)
}

// CreateClient creates a new VPN client: generates a keypair, assigns the
// next free tunnel address, and persists the record. Address allocation is
// serialized so concurrent creates cannot compute the same next address.
func (api *ClientAPI) CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Client name required"})
		return
	}

	if _, err := api.db.GetClientByName(req.Name); err == nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Client name already exists"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		api.logger.Error().Err(err).Msg("client name lookup failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to check client name"})
		return
	}

	keyPair, err := api.keygen.GenerateKeyPair()
	if err != nil {
		api.logger.Error().Err(err).Msg("key generation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate client keys"})
		return
	}

	api.allocMu.Lock()
	defer api.allocMu.Unlock()

	lastAssigned := ""
	last, err := api.db.LastClient()
	if err == nil {
		lastAssigned = last.IPAddress
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		api.logger.Error().Err(err).Msg("last client lookup failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to allocate IP address"})
		return
	}

	ipAddress, err := api.pool.NextAddress(lastAssigned)
	if err != nil {
		api.logger.Error().Err(err).Msg("address allocation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to allocate IP address"})
		return
	}

	client := &database.Client{
		Name:       req.Name,
		PublicKey:  keyPair.PublicKey,
		PrivateKey: keyPair.PrivateKey,
		IPAddress:  ipAddress,
		IsActive:   true,
	}
	if err := api.db.CreateClient(client); err != nil {
		api.logger.Error().Err(err).Msg("client creation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create client"})
		return
	}

	api.logger.Info().Str("name", client.Name).Str("ip", client.IPAddress).Msg("client created")

	c.JSON(http.StatusCreated, CreateClientResponse{
		ID:        client.ID,
		Name:      client.Name,
		IPAddress: client.IPAddress,
		PublicKey: client.PublicKey,
	})
}

// GetClientConfig returns the tunnel configuration text for a client.
// Absence of an active server is reported distinctly from an unknown
// client, though both map to 404.
func (api *ClientAPI) GetClientConfig(c *gin.Context) {
	client, ok := api.lookupClient(c)
	if !ok {
		return
	}

	server, err := api.db.ActiveServer()
	if err != nil {
		if errors.Is(err, database.ErrNoActiveServer) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "No active server found"})
			return
		}
		api.logger.Error().Err(err).Msg("active server lookup failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to get server"})
		return
	}

	c.JSON(http.StatusOK, ClientConfigResponse{
		Config: wireguard.RenderClientConfig(client, server),
	})
}

// GetClientQR returns the client's tunnel configuration encoded as a PNG
// QR code image.
func (api *ClientAPI) GetClientQR(c *gin.Context) {
	client, ok := api.lookupClient(c)
	if !ok {
		return
	}

	server, err := api.db.ActiveServer()
	if err != nil {
		if errors.Is(err, database.ErrNoActiveServer) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "No active server found"})
			return
		}
		api.logger.Error().Err(err).Msg("active server lookup failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to get server"})
		return
	}

	config := wireguard.RenderClientConfig(client, server)
	pngData, err := utils.GenerateConfigQR(config)
	if err != nil {
		api.logger.Error().Err(err).Msg("QR generation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate QR code"})
		return
	}

	c.Data(http.StatusOK, "image/png", pngData)
}

// DeleteClient removes a client record. The freed address is never
// reassigned.
func (api *ClientAPI) DeleteClient(c *gin.Context) {
	client, ok := api.lookupClient(c)
	if !ok {
		return
	}

	if err := api.db.DeleteClient(client.ID); err != nil {
		api.logger.Error().Err(err).Msg("client deletion failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete client"})
		return
	}

	api.logger.Info().Str("name", client.Name).Msg("client deleted")

	c.JSON(http.StatusOK, MessageResponse{Message: "Client deleted successfully"})
}

// lookupClient resolves the :id path parameter to a client record, writing
// the appropriate error response itself. The boolean reports whether the
// caller should proceed.
func (api *ClientAPI) lookupClient(c *gin.Context) (*database.Client, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Client not found"})
		return nil, false
	}

	client, err := api.db.GetClient(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Client not found"})
			return nil, false
		}
		api.logger.Error().Err(err).Msg("client lookup failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to get client"})
		return nil, false
	}

	return client, true
}
