package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vpn-manager/internal/auth"
	"vpn-manager/internal/system"
	"vpn-manager/internal/wireguard"
)

// Version is the API version reported by the health endpoint.
const Version = "1.0.0"

// StatusAPI provides the health check and the combined VPN/system status
// endpoint.
type StatusAPI struct {
	reporter *wireguard.Reporter
	sampler  *system.Sampler
}

// HealthResponse is the body of the unauthenticated health check.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// StatusResponse combines per-interface peer statistics with host resource
// usage. The wireguard section may contain placeholder data when the
// control plane cannot be queried; the endpoint itself always returns 200.
type StatusResponse struct {
	Wireguard map[string]wireguard.InterfaceStatus `json:"wireguard"`
	System    system.Stats                         `json:"system"`
	Timestamp string                               `json:"timestamp"`
}

// NewStatusAPI creates a new status API instance.
func NewStatusAPI(reporter *wireguard.Reporter, sampler *system.Sampler) *StatusAPI {
	return &StatusAPI{
		reporter: reporter,
		sampler:  sampler,
	}
}

// RegisterRoutes registers the health check (unauthenticated) and the
// status endpoint (behind the authentication middleware).
func (api *StatusAPI) RegisterRoutes(router *gin.Engine, middleware *auth.AuthMiddleware) {
	router.GET("/health", api.Health)

	status := router.Group("/api")
	status.Use(middleware.RequireAuth())
	{
		status.GET("/status", api.GetStatus)
	}
}

// Health reports service liveness. It is intentionally unauthenticated so
// load balancers and monitors can probe it.
func (api *StatusAPI) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
	})
}

// GetStatus returns VPN peer statistics and host resource usage. It never
// fails: a control-plane outage yields placeholder peer data and sampling
// errors yield zeroed system sections.
func (api *StatusAPI) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		Wireguard: api.reporter.Status(c.Request.Context()),
		System:    api.sampler.Sample(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
