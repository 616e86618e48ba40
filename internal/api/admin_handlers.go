package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/medibook/booking-backend/internal/domain"
	"github.com/medibook/booking-backend/internal/service"
	"github.com/medibook/booking-backend/internal/upload"
	"github.com/medibook/booking-backend/pkg/config"
)

// AdminHandlers contains handlers for the administrator API
type AdminHandlers struct {
	services *service.Services
	cfg      *config.Config
	images   *upload.ImageStore
	logger   *zap.Logger
}

// NewAdminHandlers creates a new AdminHandlers instance
func NewAdminHandlers(services *service.Services, cfg *config.Config, logger *zap.Logger) *AdminHandlers {
	return &AdminHandlers{
		services: services,
		cfg:      cfg,
		images:   upload.NewImageStore(cfg.Uploads, logger),
		logger:   logger.Named("admin-handlers"),
	}
}

// Stats handles GET /api/admin/stats
func (h *AdminHandlers) Stats(c *gin.Context) {
	stats, err := h.services.Admin.Stats(c.Request.Context())
	if err != nil {
		serviceError(c, h.logger, err, "stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandlers) ListUsers(c *gin.Context) {
	users, err := h.services.User.ListUsers(c.Request.Context())
	if err != nil {
		serviceError(c, h.logger, err, "users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(users), "users": users})
}

// DeleteUser handles DELETE /api/admin/users/:id
func (h *AdminHandlers) DeleteUser(c *gin.Context) {
	actor := caller(c)
	if err := h.services.User.DeleteUser(c.Request.Context(), actor.UserID, domain.UserID(c.Param("id"))); err != nil {
		serviceError(c, h.logger, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted"})
}

// CreateDoctor handles POST /api/admin/doctors
func (h *AdminHandlers) CreateDoctor(c *gin.Context) {
	var req domain.DoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	doctor, err := h.services.Doctor.Create(c.Request.Context(), &req)
	if err != nil {
		serviceError(c, h.logger, err, "doctor")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "doctor": doctor})
}

// UpdateDoctor handles PUT /api/admin/doctors/:id
func (h *AdminHandlers) UpdateDoctor(c *gin.Context) {
	var req domain.DoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	doctor, err := h.services.Doctor.Update(c.Request.Context(), domain.DoctorID(c.Param("id")), &req)
	if err != nil {
		serviceError(c, h.logger, err, "doctor")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "doctor": doctor})
}

// DeleteDoctor handles DELETE /api/admin/doctors/:id
func (h *AdminHandlers) DeleteDoctor(c *gin.Context) {
	if err := h.services.Doctor.Delete(c.Request.Context(), domain.DoctorID(c.Param("id"))); err != nil {
		serviceError(c, h.logger, err, "doctor")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Doctor deleted"})
}

// UploadDoctorImage handles POST /api/admin/doctors/:id/image.
// The multipart "image" file replaces the doctor's current picture.
func (h *AdminHandlers) UploadDoctorImage(c *gin.Context) {
	ctx := c.Request.Context()
	id := domain.DoctorID(c.Param("id"))

	current, err := h.services.Doctor.Get(ctx, id)
	if err != nil {
		serviceError(c, h.logger, err, "doctor")
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "image file is required")
		return
	}

	name, err := h.images.Save(file)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrTooLarge):
			respondError(c, http.StatusBadRequest, fmt.Sprintf("image exceeds %d MB", h.cfg.Uploads.MaxUploadMB))
		case errors.Is(err, upload.ErrUnsupportedType), errors.Is(err, upload.ErrEmpty):
			respondError(c, http.StatusBadRequest, "unsupported image type")
		default:
			h.logger.Error("Failed to store upload", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Server error")
		}
		return
	}

	doctor, err := h.services.Doctor.SetImage(ctx, id, upload.URL(name))
	if err != nil {
		_ = h.images.Remove(name)
		serviceError(c, h.logger, err, "doctor")
		return
	}

	if old := upload.NameFromURL(current.ImageURL); old != "" {
		if err := h.images.Remove(old); err != nil {
			h.logger.Warn("Failed to remove replaced image", zap.String("file", old), zap.Error(err))
		}
	}

	h.logger.Info("Doctor image uploaded",
		zap.String("doctor_id", doctor.ID.String()),
		zap.String("file", name))
	c.JSON(http.StatusOK, gin.H{"success": true, "doctor": doctor})
}

// ListAppointments handles GET /api/admin/appointments with optional
// status, doctor_id and date query filters
func (h *AdminHandlers) ListAppointments(c *gin.Context) {
	filter := domain.AppointmentFilter{
		DoctorID: domain.DoctorID(c.Query("doctor_id")),
		Date:     c.Query("date"),
		Status:   domain.AppointmentStatus(c.Query("status")),
	}

	appointments, err := h.services.Appointment.ListAll(c.Request.Context(), filter)
	if err != nil {
		serviceError(c, h.logger, err, "appointments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(appointments), "appointments": appointments})
}

// UpdateAppointmentStatus handles PUT /api/admin/appointments/:id/status
func (h *AdminHandlers) UpdateAppointmentStatus(c *gin.Context) {
	var req domain.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "status is required")
		return
	}

	appointment, err := h.services.Appointment.UpdateStatus(c.Request.Context(), domain.AppointmentID(c.Param("id")), req.Status)
	if err != nil {
		serviceError(c, h.logger, err, "appointment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "appointment": appointment})
}

// BootstrapStatus handles GET /api/admin/bootstrap
func (h *AdminHandlers) BootstrapStatus(c *gin.Context) {
	last := h.services.Bootstrap.Tracker().Last()
	if last == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "ran": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ran": true, "result": last})
}
