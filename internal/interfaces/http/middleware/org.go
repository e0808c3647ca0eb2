package middleware

import (
	"net/http"
	"strings"

	"github.com/clientdesk/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Keys used to store org information in gin.Context
const (
	OrgIDKey     = "org_id"
	OrgHeaderKey = "X-Org-ID"
)

// OrgMiddlewareConfig holds configuration for org middleware
type OrgMiddlewareConfig struct {
	// SkipPaths are paths that don't require org context (e.g., health check)
	SkipPaths []string
	// Required determines if org context is mandatory
	Required bool
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultOrgConfig returns default org middleware configuration
func DefaultOrgConfig() OrgMiddlewareConfig {
	return OrgMiddlewareConfig{
		SkipPaths: []string{"/health", "/ready", "/api/v1/health", "/api/v1/ready"},
		Required:  true,
		Logger:    nil,
	}
}

// OrgMiddleware resolves the organization from the X-Org-ID header.
// This is the seam where a JWT layer would plug in: token claims would
// take priority over the header.
func OrgMiddleware() gin.HandlerFunc {
	return OrgMiddlewareWithConfig(DefaultOrgConfig())
}

// OrgMiddlewareWithConfig returns org middleware with custom configuration
func OrgMiddlewareWithConfig(cfg OrgMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		orgID := c.GetHeader(OrgHeaderKey)

		if orgID != "" {
			if _, err := uuid.Parse(orgID); err != nil {
				respondUnauthorized(c, "Invalid organization ID format")
				return
			}
		}

		if orgID == "" && cfg.Required {
			respondUnauthorized(c, "Organization identification required")
			return
		}

		if orgID != "" {
			c.Set(OrgIDKey, orgID)

			// Propagate to the request context so service-layer logs carry the org
			ctx := c.Request.Context()
			log := logger.FromContext(ctx)
			ctx, _ = logger.WithOrgID(ctx, log, orgID)
			c.Request = c.Request.WithContext(ctx)

			if cfg.Logger != nil {
				cfg.Logger.Debug("organization identified",
					zap.String("org_id", orgID),
				)
			}
		}

		c.Next()
	}
}

// respondUnauthorized sends an unauthorized response
func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetOrgID retrieves the org ID from gin.Context
func GetOrgID(c *gin.Context) string {
	if orgID, exists := c.Get(OrgIDKey); exists {
		if id, ok := orgID.(string); ok {
			return id
		}
	}
	return ""
}

// GetOrgUUID retrieves the org ID as UUID from gin.Context
func GetOrgUUID(c *gin.Context) (uuid.UUID, error) {
	orgID := GetOrgID(c)
	if orgID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(orgID)
}

// OptionalOrgMiddleware creates middleware that doesn't require an org
func OptionalOrgMiddleware() gin.HandlerFunc {
	cfg := DefaultOrgConfig()
	cfg.Required = false
	return OrgMiddlewareWithConfig(cfg)
}
