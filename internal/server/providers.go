package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/medibook/booking-backend/internal/api"
	"github.com/medibook/booking-backend/internal/domain"
	"github.com/medibook/booking-backend/internal/service"
	"github.com/medibook/booking-backend/internal/upload"
	"github.com/medibook/booking-backend/pkg/config"
	"github.com/medibook/booking-backend/pkg/middleware"
)

// =============================================================================
// Status Provider - liveness endpoints, no auth and no storage access
// =============================================================================

// StatusProvider provides /api/test and /api/health
type StatusProvider struct {
	handlers *api.Handlers
}

// NewStatusProvider creates a new status route provider
func NewStatusProvider(handlers *api.Handlers) *StatusProvider {
	return &StatusProvider{handlers: handlers}
}

func (p *StatusProvider) Name() string { return "status" }

func (p *StatusProvider) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/test", p.handlers.Test)
	router.GET("/api/health", p.handlers.Health)
}

// =============================================================================
// Auth Provider - registration, login and the current account
// =============================================================================

// AuthProvider provides /api/auth routes
type AuthProvider struct {
	cfg      *config.Config
	logger   *zap.Logger
	handlers *api.Handlers
	limiter  *middleware.LoginRateLimiter
}

// NewAuthProvider creates a new auth route provider
func NewAuthProvider(cfg *config.Config, handlers *api.Handlers, limiter *middleware.LoginRateLimiter, logger *zap.Logger) *AuthProvider {
	return &AuthProvider{cfg: cfg, logger: logger, handlers: handlers, limiter: limiter}
}

func (p *AuthProvider) Name() string { return "auth" }

func (p *AuthProvider) RegisterRoutes(router *gin.Engine) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", p.handlers.Register)
		if p.limiter != nil {
			auth.POST("/login", middleware.LoginRateLimitMiddleware(p.limiter), p.handlers.Login)
		} else {
			auth.POST("/login", p.handlers.Login)
		}
		auth.GET("/me", middleware.AuthMiddleware(p.cfg, p.logger), p.handlers.Me)
	}
}

// =============================================================================
// Doctor Provider - public doctor directory
// =============================================================================

// DoctorProvider provides /api/doctors routes
type DoctorProvider struct {
	handlers *api.Handlers
}

// NewDoctorProvider creates a new doctor directory route provider
func NewDoctorProvider(handlers *api.Handlers) *DoctorProvider {
	return &DoctorProvider{handlers: handlers}
}

func (p *DoctorProvider) Name() string { return "doctors" }

func (p *DoctorProvider) RegisterRoutes(router *gin.Engine) {
	doctors := router.Group("/api/doctors")
	{
		doctors.GET("", p.handlers.ListDoctors)
		doctors.GET("/:id", p.handlers.GetDoctor)
		doctors.GET("/:id/slots", p.handlers.DoctorSlots)
	}
}

// =============================================================================
// Appointment Provider - booking for authenticated accounts
// =============================================================================

// AppointmentProvider provides /api/appointments routes
type AppointmentProvider struct {
	cfg      *config.Config
	logger   *zap.Logger
	handlers *api.Handlers
}

// NewAppointmentProvider creates a new appointment route provider
func NewAppointmentProvider(cfg *config.Config, handlers *api.Handlers, logger *zap.Logger) *AppointmentProvider {
	return &AppointmentProvider{cfg: cfg, logger: logger, handlers: handlers}
}

func (p *AppointmentProvider) Name() string { return "appointments" }

func (p *AppointmentProvider) RegisterRoutes(router *gin.Engine) {
	appointments := router.Group("/api/appointments")
	appointments.Use(middleware.AuthMiddleware(p.cfg, p.logger))
	{
		appointments.POST("", p.handlers.BookAppointment)
		appointments.GET("/my", p.handlers.MyAppointments)
		appointments.PUT("/:id/cancel", p.handlers.CancelAppointment)
		appointments.DELETE("/:id", p.handlers.DeleteAppointment)
	}
}

// =============================================================================
// Admin Provider - administrator dashboard, admin role only
// =============================================================================

// AdminProvider provides /api/admin routes
type AdminProvider struct {
	cfg      *config.Config
	logger   *zap.Logger
	handlers *api.AdminHandlers
}

// NewAdminProvider creates a new admin route provider
func NewAdminProvider(cfg *config.Config, handlers *api.AdminHandlers, logger *zap.Logger) *AdminProvider {
	return &AdminProvider{cfg: cfg, logger: logger, handlers: handlers}
}

func (p *AdminProvider) Name() string { return "admin" }

func (p *AdminProvider) RegisterRoutes(router *gin.Engine) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(p.cfg, p.logger))
	admin.Use(middleware.RequireRole(p.logger, string(domain.RoleAdmin)))
	{
		admin.GET("/stats", p.handlers.Stats)
		admin.GET("/bootstrap", p.handlers.BootstrapStatus)

		admin.GET("/users", p.handlers.ListUsers)
		admin.DELETE("/users/:id", p.handlers.DeleteUser)

		admin.POST("/doctors", p.handlers.CreateDoctor)
		admin.PUT("/doctors/:id", p.handlers.UpdateDoctor)
		admin.DELETE("/doctors/:id", p.handlers.DeleteDoctor)
		admin.POST("/doctors/:id/image", p.handlers.UploadDoctorImage)

		admin.GET("/appointments", p.handlers.ListAppointments)
		admin.PUT("/appointments/:id/status", p.handlers.UpdateAppointmentStatus)
	}
}

// =============================================================================
// Uploads Provider - static files written by the admin image upload
// =============================================================================

// UploadsProvider serves the uploads directory under /uploads
type UploadsProvider struct {
	dir string
}

// NewUploadsProvider creates a new static uploads provider
func NewUploadsProvider(dir string) *UploadsProvider {
	return &UploadsProvider{dir: dir}
}

func (p *UploadsProvider) Name() string { return "uploads" }

func (p *UploadsProvider) RegisterRoutes(router *gin.Engine) {
	router.Static(upload.Route, p.dir)
}

// RegisterAll adds every booking backend provider to the manager
func RegisterAll(m *Manager, cfg *config.Config, services *service.Services, logger *zap.Logger) {
	var limiter *middleware.LoginRateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewLoginRateLimiter(cfg.RateLimit, logger)
	}

	handlers := api.NewHandlers(services, cfg, limiter, logger)
	adminHandlers := api.NewAdminHandlers(services, cfg, logger)

	m.AddProvider(NewStatusProvider(handlers))
	m.AddProvider(NewAuthProvider(cfg, handlers, limiter, logger))
	m.AddProvider(NewDoctorProvider(handlers))
	m.AddProvider(NewAppointmentProvider(cfg, handlers, logger))
	m.AddProvider(NewAdminProvider(cfg, adminHandlers, logger))
	m.AddProvider(NewUploadsProvider(cfg.Uploads.Dir))
}
