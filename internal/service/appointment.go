package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/medibook/booking-backend/internal/domain"
	"github.com/medibook/booking-backend/internal/storage"
)

var (
	ErrSlotTaken          = errors.New("time slot already booked")
	ErrDoctorUnavailable  = errors.New("doctor is not available")
	ErrForbidden          = errors.New("not allowed")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrAppointmentStopped = errors.New("appointment is no longer active")
)

// Caller identifies the account acting on an appointment
type Caller struct {
	UserID domain.UserID
	Email  string
	Role   domain.Role
}

// AppointmentService books and manages appointments
type AppointmentService struct {
	store  storage.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewAppointmentService creates a new AppointmentService
func NewAppointmentService(store storage.Store, logger *zap.Logger) *AppointmentService {
	return &AppointmentService{
		store:  store,
		logger: logger.Named("appointment-service"),
		now:    time.Now,
	}
}

// Book reserves a doctor's slot for the calling patient
func (s *AppointmentService) Book(ctx context.Context, caller Caller, req *domain.BookAppointmentRequest) (*domain.Appointment, error) {
	day, err := domain.ParseDate(req.Date)
	if err != nil {
		return nil, invalid("%s", err.Error())
	}
	if err := domain.ValidateSlot(req.Time); err != nil {
		return nil, invalid("%s", err.Error())
	}

	now := s.now()
	today, _ := domain.ParseDate(now.Format(domain.DateLayout))
	if day.Before(today) {
		return nil, invalid("cannot book a date in the past")
	}

	doctor, err := s.store.Doctors().GetByID(ctx, domain.DoctorID(req.DoctorID))
	if err != nil {
		return nil, err
	}
	if !doctor.Available {
		return nil, ErrDoctorUnavailable
	}
	if !doctor.WorksOn(day.Weekday()) {
		return nil, invalid("doctor does not work on %s", day.Weekday())
	}
	if len(doctor.Slots) > 0 && !doctor.HasSlot(req.Time) {
		return nil, invalid("%s is not one of the doctor's slots", req.Time)
	}

	patient, err := s.store.Users().GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrAccountGone
		}
		return nil, fmt.Errorf("failed to load patient: %w", err)
	}

	appointment := &domain.Appointment{
		ID:          domain.NewAppointmentID(),
		PatientID:   patient.ID,
		PatientName: patient.Name,
		DoctorID:    doctor.ID,
		DoctorName:  doctor.Name,
		Date:        req.Date,
		Time:        req.Time,
		Reason:      req.Reason,
		Status:      domain.StatusPending,
	}

	if err := s.store.Appointments().Create(ctx, appointment); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.logger.Info("Appointment booked",
		zap.String("appointment_id", appointment.ID.String()),
		zap.String("doctor_id", doctor.ID.String()),
		zap.String("date", appointment.Date),
		zap.String("time", appointment.Time))
	return appointment, nil
}

// ListForCaller returns the caller's appointments. Doctors see the
// appointments booked with the directory entry that shares their email.
func (s *AppointmentService) ListForCaller(ctx context.Context, caller Caller) ([]*domain.Appointment, error) {
	if caller.Role == domain.RoleDoctor {
		doctor, err := s.store.Doctors().GetByEmail(ctx, domain.NormalizeEmail(caller.Email))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return []*domain.Appointment{}, nil
			}
			return nil, err
		}
		return s.store.Appointments().List(ctx, domain.AppointmentFilter{DoctorID: doctor.ID})
	}
	return s.store.Appointments().List(ctx, domain.AppointmentFilter{PatientID: caller.UserID})
}

// ListAll returns every appointment matching filter
func (s *AppointmentService) ListAll(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	return s.store.Appointments().List(ctx, filter)
}

func (s *AppointmentService) owned(ctx context.Context, caller Caller, id domain.AppointmentID) (*domain.Appointment, error) {
	appointment, err := s.store.Appointments().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role != domain.RoleAdmin && appointment.PatientID != caller.UserID {
		return nil, ErrForbidden
	}
	return appointment, nil
}

// Cancel cancels a pending or confirmed appointment owned by the caller
func (s *AppointmentService) Cancel(ctx context.Context, caller Caller, id domain.AppointmentID) (*domain.Appointment, error) {
	appointment, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !appointment.Status.Active() {
		return nil, ErrAppointmentStopped
	}

	if err := s.store.Appointments().UpdateStatus(ctx, id, domain.StatusCancelled); err != nil {
		return nil, fmt.Errorf("failed to cancel appointment: %w", err)
	}
	appointment.Status = domain.StatusCancelled

	s.logger.Info("Appointment cancelled",
		zap.String("appointment_id", id.String()),
		zap.String("by", caller.UserID.String()))
	return appointment, nil
}

// Delete removes an appointment owned by the caller
func (s *AppointmentService) Delete(ctx context.Context, caller Caller, id domain.AppointmentID) error {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}
	if err := s.store.Appointments().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	s.logger.Info("Appointment deleted",
		zap.String("appointment_id", id.String()),
		zap.String("by", caller.UserID.String()))
	return nil
}

// UpdateStatus moves an appointment along its lifecycle
func (s *AppointmentService) UpdateStatus(ctx context.Context, id domain.AppointmentID, status domain.AppointmentStatus) (*domain.Appointment, error) {
	if !status.IsValid() {
		return nil, invalid("unknown status %q", status)
	}

	appointment, err := s.store.Appointments().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.Status == status {
		return appointment, nil
	}
	if !appointment.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, appointment.Status, status)
	}

	if err := s.store.Appointments().UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update appointment status: %w", err)
	}
	appointment.Status = status

	s.logger.Info("Appointment status changed",
		zap.String("appointment_id", id.String()),
		zap.String("status", string(status)))
	return appointment, nil
}
