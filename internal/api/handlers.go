package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/medibook/booking-backend/internal/domain"
	"github.com/medibook/booking-backend/internal/service"
	"github.com/medibook/booking-backend/internal/storage"
	"github.com/medibook/booking-backend/pkg/config"
	"github.com/medibook/booking-backend/pkg/middleware"
)

// timestampLayout is RFC 3339 with millisecond precision
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Handlers aggregates the public and user-facing HTTP handlers
type Handlers struct {
	services *service.Services
	cfg      *config.Config
	limiter  *middleware.LoginRateLimiter
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance. limiter may be nil.
func NewHandlers(services *service.Services, cfg *config.Config, limiter *middleware.LoginRateLimiter, logger *zap.Logger) *Handlers {
	return &Handlers{
		services: services,
		cfg:      cfg,
		limiter:  limiter,
		logger:   logger.Named("handlers"),
	}
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// serviceError maps service and storage errors onto HTTP responses
func serviceError(c *gin.Context, logger *zap.Logger, err error, what string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(c, http.StatusBadRequest, verr.Reason)
	case errors.Is(err, service.ErrAccountGone):
		respondError(c, http.StatusUnauthorized, "User not found")
	case errors.Is(err, storage.ErrNotFound):
		respondError(c, http.StatusNotFound, what+" not found")
	case errors.Is(err, service.ErrUserExists):
		respondError(c, http.StatusConflict, "An account with this email already exists")
	case errors.Is(err, service.ErrSlotTaken):
		respondError(c, http.StatusConflict, "This time slot is already booked")
	case errors.Is(err, service.ErrDoctorUnavailable):
		respondError(c, http.StatusBadRequest, "Doctor is not available")
	case errors.Is(err, service.ErrAppointmentStopped), errors.Is(err, service.ErrInvalidTransition):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrCannotDeleteSelf):
		respondError(c, http.StatusForbidden, err.Error())
	default:
		logger.Error("Request failed", zap.String("resource", what), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Server error")
	}
}

func caller(c *gin.Context) service.Caller {
	return service.Caller{
		UserID: domain.UserID(c.GetString(middleware.ContextUserID)),
		Email:  c.GetString(middleware.ContextEmail),
		Role:   domain.Role(c.GetString(middleware.ContextRole)),
	}
}

// Test handles GET /api/test
func (h *Handlers) Test(c *gin.Context) {
	c.JSON(http.StatusOK, TestResponse{
		Success:  true,
		Message:  "Server is running!",
		Database: "MongoDB Connected",
	})
}

// Health handles GET /api/health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Success:   true,
		Status:    "OK",
		Timestamp: time.Now().UTC().Format(timestampLayout),
	})
}

// Register handles POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	user, token, err := h.services.User.Register(c.Request.Context(), &req)
	if err != nil {
		serviceError(c, h.logger, err, "user")
		return
	}

	c.JSON(http.StatusCreated, domain.AuthResponse{Success: true, Token: token, User: user})
}

// Login handles POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, token, err := h.services.User.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			if h.limiter != nil {
				h.limiter.RecordFailure(middleware.ClientIdentifier(c))
			}
			respondError(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		serviceError(c, h.logger, err, "user")
		return
	}

	c.JSON(http.StatusOK, domain.AuthResponse{Success: true, Token: token, User: user})
}

// Me handles GET /api/auth/me
func (h *Handlers) Me(c *gin.Context) {
	user, err := h.services.User.GetUserByID(c.Request.Context(), caller(c).UserID)
	if err != nil {
		serviceError(c, h.logger, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// ListDoctors handles GET /api/doctors
func (h *Handlers) ListDoctors(c *gin.Context) {
	filter := domain.DoctorFilter{
		Specialization: c.Query("specialization"),
		AvailableOnly:  strings.EqualFold(c.Query("available"), "true"),
	}

	doctors, err := h.services.Doctor.List(c.Request.Context(), filter)
	if err != nil {
		serviceError(c, h.logger, err, "doctors")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(doctors), "doctors": doctors})
}

// GetDoctor handles GET /api/doctors/:id
func (h *Handlers) GetDoctor(c *gin.Context) {
	doctor, err := h.services.Doctor.Get(c.Request.Context(), domain.DoctorID(c.Param("id")))
	if err != nil {
		serviceError(c, h.logger, err, "doctor")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "doctor": doctor})
}

// DoctorSlots handles GET /api/doctors/:id/slots?date=YYYY-MM-DD
func (h *Handlers) DoctorSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		respondError(c, http.StatusBadRequest, "date query parameter is required")
		return
	}

	slots, err := h.services.Doctor.FreeSlots(c.Request.Context(), domain.DoctorID(c.Param("id")), date)
	if err != nil {
		serviceError(c, h.logger, err, "doctor")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "date": date, "slots": slots})
}

// BookAppointment handles POST /api/appointments
func (h *Handlers) BookAppointment(c *gin.Context) {
	var req domain.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "doctor_id, date and time are required")
		return
	}

	appointment, err := h.services.Appointment.Book(c.Request.Context(), caller(c), &req)
	if err != nil {
		serviceError(c, h.logger, err, "doctor")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "appointment": appointment})
}

// MyAppointments handles GET /api/appointments/my
func (h *Handlers) MyAppointments(c *gin.Context) {
	appointments, err := h.services.Appointment.ListForCaller(c.Request.Context(), caller(c))
	if err != nil {
		serviceError(c, h.logger, err, "appointments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(appointments), "appointments": appointments})
}

// CancelAppointment handles PUT /api/appointments/:id/cancel
func (h *Handlers) CancelAppointment(c *gin.Context) {
	appointment, err := h.services.Appointment.Cancel(c.Request.Context(), caller(c), domain.AppointmentID(c.Param("id")))
	if err != nil {
		serviceError(c, h.logger, err, "appointment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "appointment": appointment})
}

// DeleteAppointment handles DELETE /api/appointments/:id
func (h *Handlers) DeleteAppointment(c *gin.Context) {
	if err := h.services.Appointment.Delete(c.Request.Context(), caller(c), domain.AppointmentID(c.Param("id"))); err != nil {
		serviceError(c, h.logger, err, "appointment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Appointment deleted"})
}
