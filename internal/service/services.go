package service

import (
	"go.uber.org/zap"

	"github.com/medibook/booking-backend/internal/storage"
	"github.com/medibook/booking-backend/pkg/config"
)

// Services aggregates all application services
type Services struct {
	User        *UserService
	Doctor      *DoctorService
	Appointment *AppointmentService
	Admin       *AdminService
	Bootstrap   *BootstrapService
}

// NewServices creates a new Services instance
func NewServices(store storage.Store, cfg *config.Config, logger *zap.Logger) *Services {
	return &Services{
		User:        NewUserService(store, cfg, logger),
		Doctor:      NewDoctorService(store, logger),
		Appointment: NewAppointmentService(store, logger),
		Admin:       NewAdminService(store, logger),
		Bootstrap:   NewBootstrapService(store, cfg.Bootstrap, logger),
	}
}
