package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/medibook/booking-backend/internal/domain"
	"github.com/medibook/booking-backend/internal/storage"
)

// Stats summarizes the contents of the store for the admin dashboard
type Stats struct {
	Users        int64                              `json:"users"`
	Patients     int64                              `json:"patients"`
	Admins       int64                              `json:"admins"`
	Doctors      int64                              `json:"doctors"`
	Appointments int64                              `json:"appointments"`
	ByStatus     map[domain.AppointmentStatus]int64 `json:"by_status"`
}

// AdminService serves the administrator dashboard
type AdminService struct {
	store  storage.Store
	logger *zap.Logger
}

// NewAdminService creates a new AdminService
func NewAdminService(store storage.Store, logger *zap.Logger) *AdminService {
	return &AdminService{
		store:  store,
		logger: logger.Named("admin-service"),
	}
}

// Stats counts accounts, doctors and appointments
func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	var err error
	stats := &Stats{ByStatus: make(map[domain.AppointmentStatus]int64)}

	if stats.Users, err = s.store.Users().CountByRole(ctx, ""); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if stats.Patients, err = s.store.Users().CountByRole(ctx, domain.RolePatient); err != nil {
		return nil, fmt.Errorf("failed to count patients: %w", err)
	}
	if stats.Admins, err = s.store.Users().CountByRole(ctx, domain.RoleAdmin); err != nil {
		return nil, fmt.Errorf("failed to count admins: %w", err)
	}
	if stats.Doctors, err = s.store.Doctors().Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count doctors: %w", err)
	}
	if stats.Appointments, err = s.store.Appointments().CountByStatus(ctx, ""); err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}

	for _, status := range []domain.AppointmentStatus{
		domain.StatusPending, domain.StatusConfirmed, domain.StatusCancelled, domain.StatusCompleted,
	} {
		n, err := s.store.Appointments().CountByStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s appointments: %w", status, err)
		}
		stats.ByStatus[status] = n
	}

	return stats, nil
}
