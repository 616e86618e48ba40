// Package server provides HTTP server management for the booking backend.
// Route groups are contributed by RouteProviders; the Manager combines them
// behind the shared middleware chain and owns the listener lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/medibook/booking-backend/pkg/config"
	"github.com/medibook/booking-backend/pkg/middleware"
)

// RouteProvider allows a feature area to register its routes on the shared router
type RouteProvider interface {
	// RegisterRoutes adds this provider's routes to the router
	RegisterRoutes(router *gin.Engine)

	// Name returns the provider name for logging
	Name() string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address        string
	Port           int
	MaxBodyBytes   int64
	MaxUploadBytes int64
	TrustedProxies []string

	CORS           config.CORSConfig
	AllowedOrigins []string

	LoggingLevel string
}

// NewServerConfig derives the server configuration from the application config
func NewServerConfig(cfg *config.Config) *ServerConfig {
	return &ServerConfig{
		Address:        cfg.Server.Host,
		Port:           cfg.Server.Port,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		MaxUploadBytes: int64(cfg.Uploads.MaxUploadMB)<<20 + 1<<20,
		TrustedProxies: cfg.Server.TrustedProxies,
		CORS:           cfg.CORS,
		AllowedOrigins: middleware.NewOriginAllowList(cfg.CORS.FrontendURLs, cfg.CORS.DevOrigins),
		LoggingLevel:   cfg.Logging.Level,
	}
}

// Manager builds the router from RouteProviders and runs the HTTP server
type Manager struct {
	cfg    *ServerConfig
	logger *zap.Logger

	providers []RouteProvider

	router     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
}

// NewManager creates a new server manager
func NewManager(cfg *ServerConfig, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:       cfg,
		logger:    logger,
		providers: make([]RouteProvider, 0),
	}
}

// AddProvider adds a RouteProvider to the manager.
// Call this before Handler or Start.
func (m *Manager) AddProvider(p RouteProvider) {
	m.providers = append(m.providers, p)
	m.logger.Debug("Added route provider", zap.String("name", p.Name()))
}

// Handler builds the router on first use and returns it
func (m *Manager) Handler() *gin.Engine {
	if m.router != nil {
		return m.router
	}

	m.router = m.buildRouter()
	for _, p := range m.providers {
		m.logger.Info("Registering routes", zap.String("provider", p.Name()))
		p.RegisterRoutes(m.router)
	}
	return m.router
}

// Start binds the listener and serves in the background. It returns only
// after the port is bound, so callers may run post-bind work safely.
func (m *Manager) Start(ctx context.Context) error {
	if m.cfg.LoggingLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := m.Handler()

	addr := fmt.Sprintf("%s:%d", m.cfg.Address, m.cfg.Port)
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	m.listener = listener

	m.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		m.logger.Info("HTTP server listening", zap.String("address", listener.Addr().String()))
		if err := m.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound listener address, or nil before Start
func (m *Manager) Addr() net.Addr {
	if m.listener == nil {
		return nil
	}
	return m.listener.Addr()
}

// Shutdown gracefully shuts down the server
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.httpServer == nil {
		return nil
	}
	if err := m.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	return nil
}

// buildRouter creates a new router with the common middleware chain:
// recovery, request logging, CORS admission, preflight fallback, body limit
func (m *Manager) buildRouter() *gin.Engine {
	router := gin.New()
	// Forwarded client addresses are only honored from configured proxies
	if err := router.SetTrustedProxies(m.cfg.TrustedProxies); err != nil {
		m.logger.Error("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(m.logger.Named("http")))
	router.Use(middleware.CORS(m.cfg.CORS, m.cfg.AllowedOrigins, m.logger))
	router.Use(middleware.PreflightFallback())
	router.Use(middleware.BodyLimit(m.cfg.MaxBodyBytes, m.cfg.MaxUploadBytes))
	return router
}
