package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/clientdesk/backend/internal/infrastructure/persistence"
	"github.com/clientdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SystemHandler handles health and system API endpoints
type SystemHandler struct {
	BaseHandler
	db        *persistence.Database
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. The database may be nil,
// in which case readiness reports degraded instead of probing.
func NewSystemHandler(db *persistence.Database) *SystemHandler {
	return &SystemHandler{
		db:        db,
		startTime: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status" example:"ok"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
	Timestamp string `json:"timestamp" example:"2026-03-07T12:00:00Z"`
}

// Health godoc
//
//	@Summary		Liveness check
//	@Description	Reports that the process is up. Does not touch dependencies.
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	APIResponse[HealthResponse]
//	@Router			/health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}))
}

// ReadyResponse represents the readiness check response
type ReadyResponse struct {
	Status   string `json:"status" example:"ready"`
	Database string `json:"database" example:"up"`
}

// Ready godoc
//
//	@Summary		Readiness check
//	@Description	Probes the database connection. Returns 503 when the database is unreachable.
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	APIResponse[ReadyResponse]
//	@Failure		503	{object}	APIResponse[ReadyResponse]
//	@Router			/ready [get]
func (h *SystemHandler) Ready(c *gin.Context) {
	resp := ReadyResponse{Status: "ready", Database: "up"}

	if h.db == nil {
		resp.Status = "degraded"
		resp.Database = "not configured"
		c.JSON(http.StatusServiceUnavailable, dto.NewSuccessResponse(resp))
		return
	}

	if err := h.db.Ping(); err != nil {
		resp.Status = "not ready"
		resp.Database = "down"
		c.JSON(http.StatusServiceUnavailable, dto.NewSuccessResponse(resp))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name" example:"ClientDesk Backend API"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// GetSystemInfo godoc
//
//	@Summary		Get system information
//	@Description	Returns basic system information including version and uptime
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	APIResponse[SystemInfoResponse]
//	@Router			/system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "ClientDesk Backend API",
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}
