package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/medibook/booking-backend/internal/domain"
	"github.com/medibook/booking-backend/internal/storage"
)

// DoctorService manages the doctor directory
type DoctorService struct {
	store  storage.Store
	logger *zap.Logger
}

// NewDoctorService creates a new DoctorService
func NewDoctorService(store storage.Store, logger *zap.Logger) *DoctorService {
	return &DoctorService{
		store:  store,
		logger: logger.Named("doctor-service"),
	}
}

// ValidationError is returned when caller supplied data is unusable
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err carries a ValidationError
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// List returns doctors matching filter
func (s *DoctorService) List(ctx context.Context, filter domain.DoctorFilter) ([]*domain.Doctor, error) {
	filter.Specialization = strings.TrimSpace(filter.Specialization)
	return s.store.Doctors().List(ctx, filter)
}

// Get returns a single doctor
func (s *DoctorService) Get(ctx context.Context, id domain.DoctorID) (*domain.Doctor, error) {
	return s.store.Doctors().GetByID(ctx, id)
}

func applyDoctorRequest(d *domain.Doctor, req *domain.DoctorRequest) {
	d.Name = strings.TrimSpace(req.Name)
	d.Specialization = strings.TrimSpace(req.Specialization)
	d.Email = domain.NormalizeEmail(req.Email)
	d.Phone = req.Phone
	d.ExperienceYears = req.ExperienceYears
	d.Fee = req.Fee
	d.Bio = req.Bio
	if req.Available != nil {
		d.Available = *req.Available
	}
	if req.AvailableDays != nil {
		d.AvailableDays = req.AvailableDays
	}
	if req.Slots != nil {
		d.Slots = req.Slots
	}
}

// Create adds a doctor to the directory. When the request carries both an
// email and a password a doctor login account is provisioned as well.
func (s *DoctorService) Create(ctx context.Context, req *domain.DoctorRequest) (*domain.Doctor, error) {
	doctor := &domain.Doctor{
		ID:        domain.NewDoctorID(),
		Available: true,
	}
	applyDoctorRequest(doctor, req)

	if err := doctor.Validate(); err != nil {
		return nil, invalid("%s", err.Error())
	}

	var account *domain.User
	if doctor.Email != "" && req.Password != "" {
		if _, err := s.store.Users().GetByEmail(ctx, doctor.Email); err == nil {
			return nil, ErrUserExists
		} else if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}

		hash, err := HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		account = &domain.User{
			ID:           domain.NewUserID(),
			Name:         doctor.Name,
			Email:        doctor.Email,
			PasswordHash: hash,
			Role:         domain.RoleDoctor,
			Phone:        doctor.Phone,
		}
		if err := s.store.Users().Create(ctx, account); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				return nil, ErrUserExists
			}
			return nil, fmt.Errorf("failed to create doctor account: %w", err)
		}
	}

	if err := s.store.Doctors().Create(ctx, doctor); err != nil {
		if account != nil {
			_ = s.store.Users().Delete(ctx, account.ID)
		}
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}

	s.logger.Info("Doctor created",
		zap.String("doctor_id", doctor.ID.String()),
		zap.Bool("with_account", account != nil))
	return doctor, nil
}

// Update replaces the editable fields of a doctor
func (s *DoctorService) Update(ctx context.Context, id domain.DoctorID, req *domain.DoctorRequest) (*domain.Doctor, error) {
	doctor, err := s.store.Doctors().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyDoctorRequest(doctor, req)
	if err := doctor.Validate(); err != nil {
		return nil, invalid("%s", err.Error())
	}

	if err := s.store.Doctors().Update(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to update doctor: %w", err)
	}

	s.logger.Info("Doctor updated", zap.String("doctor_id", id.String()))
	return doctor, nil
}

// SetImage records the public URL of a doctor's uploaded picture
func (s *DoctorService) SetImage(ctx context.Context, id domain.DoctorID, imageURL string) (*domain.Doctor, error) {
	doctor, err := s.store.Doctors().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	doctor.ImageURL = imageURL
	if err := s.store.Doctors().Update(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to update doctor image: %w", err)
	}
	return doctor, nil
}

// Delete removes a doctor together with all of their appointments
func (s *DoctorService) Delete(ctx context.Context, id domain.DoctorID) error {
	if err := s.store.Doctors().Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete doctor: %w", err)
	}

	if err := s.store.Appointments().DeleteByDoctor(ctx, id); err != nil {
		s.logger.Warn("Failed to delete appointments of deleted doctor",
			zap.String("doctor_id", id.String()), zap.Error(err))
	}

	s.logger.Info("Doctor deleted", zap.String("doctor_id", id.String()))
	return nil
}

// FreeSlots returns the configured slots of a doctor that are not held by an
// active appointment on date. A doctor who does not work that day has none.
func (s *DoctorService) FreeSlots(ctx context.Context, id domain.DoctorID, date string) ([]string, error) {
	day, err := domain.ParseDate(date)
	if err != nil {
		return nil, invalid("%s", err.Error())
	}

	doctor, err := s.store.Doctors().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	free := make([]string, 0, len(doctor.Slots))
	if !doctor.Available || !doctor.WorksOn(day.Weekday()) {
		return free, nil
	}

	booked, err := s.store.Appointments().List(ctx, domain.AppointmentFilter{DoctorID: id, Date: date})
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	taken := make(map[string]bool, len(booked))
	for _, a := range booked {
		if a.Status.Active() {
			taken[a.Time] = true
		}
	}
	for _, slot := range doctor.Slots {
		if !taken[slot] {
			free = append(free, slot)
		}
	}
	return free, nil
}
