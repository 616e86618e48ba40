package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/medibook/booking-backend/pkg/config"
)

var testAllowList = NewOriginAllowList(
	[]string{"https://clinic.example.com/"},
	[]string{"http://localhost:3000", "http://localhost:5173"},
)

func createCORSRouter(logger *zap.Logger, hits *int) *gin.Engine {
	router := gin.New()
	router.Use(CORS(config.CORSConfig{MaxAge: 600}, testAllowList, logger))
	router.Use(PreflightFallback())
	router.GET("/api/health", func(c *gin.Context) {
		*hits++
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	router.POST("/api/auth/login", func(c *gin.Context) {
		*hits++
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func TestNewOriginAllowList(t *testing.T) {
	list := NewOriginAllowList(
		[]string{" https://a.example/ ", "", "https://b.example"},
		[]string{"http://localhost:3000", "https://a.example"},
	)
	assert.Equal(t, []string{"https://a.example", "https://b.example", "http://localhost:3000"}, list)
}

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://clinic.example.com", true},
		{"http://localhost:3000", true},
		{"http://localhost:5173", true},
		{"https://clinic.example.com/", false},
		{"https://evil.example.com", false},
		{"https://clinic.example.com.evil.net", false},
		{"http://localhost:3001", false},
		{"null", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAllowedOrigin(tt.origin, testAllowList))
		})
	}
}

func TestCORS_NoOriginPassesThrough(t *testing.T) {
	hits := 0
	router := createCORSRouter(zap.NewNop(), &hits)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, hits)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_AllowedOriginEchoed(t *testing.T) {
	for _, origin := range []string{"https://clinic.example.com", "http://localhost:5173"} {
		t.Run(origin, func(t *testing.T) {
			hits := 0
			router := createCORSRouter(zap.NewNop(), &hits)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			req.Header.Set("Origin", origin)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, 1, hits)
			assert.Equal(t, origin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.NotEqual(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestCORS_DisallowedOriginRejected(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	hits := 0
	router := createCORSRouter(zap.New(core), &hits)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 0, hits, "route handler must not run")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))

	entries := logs.FilterMessage("Blocked request from disallowed origin").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "https://evil.example.com", entries[0].ContextMap()["origin"])
}

func TestCORS_Preflight(t *testing.T) {
	hits := 0
	router := createCORSRouter(zap.NewNop(), &hits)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, Authorization")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, hits)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	methods := w.Header().Get("Access-Control-Allow-Methods")
	for _, m := range CORSMethods {
		assert.Contains(t, methods, m)
	}
	headers := w.Header().Get("Access-Control-Allow-Headers")
	assert.Contains(t, headers, "Content-Type")
	assert.Contains(t, headers, "Authorization")
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_PreflightFromDisallowedOrigin(t *testing.T) {
	hits := 0
	router := createCORSRouter(zap.NewNop(), &hits)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
}

func TestPreflightFallback_NoOrigin(t *testing.T) {
	hits := 0
	router := createCORSRouter(zap.NewNop(), &hits)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/anything", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET,POST,PUT,DELETE,OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type,Authorization", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, 0, hits)
}
