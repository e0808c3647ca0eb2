package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newCORSRouter(cfg CORSConfig) *gin.Engine {
	router := gin.New()
	router.Use(CORSWithConfig(cfg))
	router.GET("/invoices", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()

	// origins must be configured explicitly
	assert.Empty(t, cfg.AllowOrigins)
	assert.Contains(t, cfg.AllowMethods, "DELETE")
	assert.Contains(t, cfg.AllowHeaders, "X-Org-ID")
	assert.Contains(t, cfg.ExposeHeaders, "X-Request-ID")
	assert.True(t, cfg.AllowCredentials)
	assert.Equal(t, 12*time.Hour, cfg.MaxAge)
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS())
	router.GET("/invoices", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	t.Run("cross-origin requests get no headers by default", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/invoices", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("same-origin requests pass", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/invoices", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("preflight still answers 204", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/invoices", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestCORSWithConfig(t *testing.T) {
	t.Run("whitelisted origin gets CORS headers", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"https://app.clientdesk.io"}
		router := newCORSRouter(cfg)

		req := httptest.NewRequest("GET", "/invoices", nil)
		req.Header.Set("Origin", "https://app.clientdesk.io")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://app.clientdesk.io", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unlisted origin gets no CORS headers", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"https://app.clientdesk.io"}
		router := newCORSRouter(cfg)

		req := httptest.NewRequest("GET", "/invoices", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard allows any origin without credentials", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"*"}
		router := newCORSRouter(cfg)

		req := httptest.NewRequest("GET", "/invoices", nil)
		req.Header.Set("Origin", "https://anywhere.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight for a whitelisted origin carries methods", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"https://app.clientdesk.io"}
		router := newCORSRouter(cfg)

		req := httptest.NewRequest("OPTIONS", "/invoices", nil)
		req.Header.Set("Origin", "https://app.clientdesk.io")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://app.clientdesk.io", w.Header().Get("Access-Control-Allow-Origin"))
		assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("max age is rendered in seconds", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"*"}
		cfg.MaxAge = 2 * time.Hour
		router := newCORSRouter(cfg)

		req := httptest.NewRequest("OPTIONS", "/invoices", nil)
		req.Header.Set("Origin", "https://app.clientdesk.io")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, strconv.Itoa(2*60*60), w.Header().Get("Access-Control-Max-Age"))
	})
}

func TestRequestID(t *testing.T) {
	newRouter := func() (*gin.Engine, *string) {
		var captured string
		router := gin.New()
		router.Use(RequestID())
		router.GET("/invoices", func(c *gin.Context) {
			captured = c.GetString("request_id")
			c.String(http.StatusOK, "ok")
		})
		return router, &captured
	}

	t.Run("generates an ID when absent", func(t *testing.T) {
		router, captured := newRouter()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/invoices", nil))

		assert.NotEmpty(t, *captured)
		assert.Equal(t, *captured, w.Header().Get("X-Request-ID"))
	})

	t.Run("keeps an incoming ID", func(t *testing.T) {
		router, captured := newRouter()

		req := httptest.NewRequest("GET", "/invoices", nil)
		req.Header.Set("X-Request-ID", "client-supplied-id")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "client-supplied-id", *captured)
		assert.Equal(t, "client-supplied-id", w.Header().Get("X-Request-ID"))
	})
}

func TestGenerateRequestID(t *testing.T) {
	first := generateRequestID()
	second := generateRequestID()

	require.NotEmpty(t, first)
	assert.Len(t, first, 32)
	assert.NotEqual(t, first, second)
}

func TestDefaultSecurityConfig(t *testing.T) {
	cfg := DefaultSecurityConfig()

	// HSTS needs HTTPS, so it stays off until enabled in config
	assert.False(t, cfg.HSTSEnabled)
	assert.True(t, cfg.CSPEnabled)
	assert.NotEmpty(t, cfg.CSPDirective)
	assert.True(t, cfg.PermissionsPolicyEnabled)
}

func TestSecure(t *testing.T) {
	serve := func(middleware gin.HandlerFunc) *httptest.ResponseRecorder {
		router := gin.New()
		router.Use(middleware)
		router.GET("/invoices", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/invoices", nil))
		return w
	}

	t.Run("sets baseline security headers", func(t *testing.T) {
		w := serve(Secure())

		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
		assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
		assert.NotEmpty(t, w.Header().Get("Permissions-Policy"))
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("renders the full HSTS directive when enabled", func(t *testing.T) {
		cfg := DefaultSecurityConfig()
		cfg.HSTSEnabled = true
		cfg.HSTSPreload = true

		w := serve(SecureWithConfig(cfg))

		hsts := w.Header().Get("Strict-Transport-Security")
		assert.Contains(t, hsts, "max-age=31536000")
		assert.Contains(t, hsts, "includeSubDomains")
		assert.Contains(t, hsts, "preload")
	})

	t.Run("disabled directives are omitted", func(t *testing.T) {
		cfg := DefaultSecurityConfig()
		cfg.CSPEnabled = false
		cfg.PermissionsPolicyEnabled = false

		w := serve(SecureWithConfig(cfg))

		assert.Empty(t, w.Header().Get("Content-Security-Policy"))
		assert.Empty(t, w.Header().Get("Permissions-Policy"))
	})
}

func TestTimeout(t *testing.T) {
	router := gin.New()
	router.Use(Timeout(30 * time.Second))
	router.GET("/invoices", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/invoices", nil))

	assert.Equal(t, "30s", w.Header().Get("X-Request-Timeout"))
}
