package storage

import (
	"context"
	"errors"

	"github.com/medibook/booking-backend/internal/domain"
)

// Common errors
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// UserStore defines the interface for account storage operations.
// Email is unique; implementations must reject a second account with the same
// normalized email with ErrAlreadyExists.
type UserStore interface {
	// Create creates a new user
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)

	// GetByEmail retrieves a user by normalized email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetAll retrieves all users, newest first
	GetAll(ctx context.Context) ([]*domain.User, error)

	// CountByRole counts users with the given role; empty role counts all users
	CountByRole(ctx context.Context, role domain.Role) (int64, error)

	// Update updates a user
	Update(ctx context.Context, user *domain.User) error

	// Delete deletes a user
	Delete(ctx context.Context, id domain.UserID) error
}

// DoctorStore defines the interface for the doctor directory
type DoctorStore interface {
	// Create creates a new doctor
	Create(ctx context.Context, doctor *domain.Doctor) error

	// GetByID retrieves a doctor by ID
	GetByID(ctx context.Context, id domain.DoctorID) (*domain.Doctor, error)

	// GetByEmail retrieves a doctor by contact email
	GetByEmail(ctx context.Context, email string) (*domain.Doctor, error)

	// List retrieves doctors matching the filter, ordered by name
	List(ctx context.Context, filter domain.DoctorFilter) ([]*domain.Doctor, error)

	// Count counts all doctors
	Count(ctx context.Context) (int64, error)

	// Update updates a doctor
	Update(ctx context.Context, doctor *domain.Doctor) error

	// Delete deletes a doctor
	Delete(ctx context.Context, id domain.DoctorID) error
}

// AppointmentStore defines the interface for appointment storage.
// At most one active (pending or confirmed) appointment may exist per
// doctor, date and time; Create returns ErrAlreadyExists otherwise.
type AppointmentStore interface {
	// Create creates a new appointment
	Create(ctx context.Context, appointment *domain.Appointment) error

	// GetByID retrieves an appointment by ID
	GetByID(ctx context.Context, id domain.AppointmentID) (*domain.Appointment, error)

	// List retrieves appointments matching the filter, ordered by date and time
	List(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error)

	// CountByStatus counts appointments with the given status; empty status counts all
	CountByStatus(ctx context.Context, status domain.AppointmentStatus) (int64, error)

	// UpdateStatus changes the status of an appointment
	UpdateStatus(ctx context.Context, id domain.AppointmentID, status domain.AppointmentStatus) error

	// Delete deletes an appointment
	Delete(ctx context.Context, id domain.AppointmentID) error

	// DeleteByDoctor deletes every appointment of a doctor
	DeleteByDoctor(ctx context.Context, id domain.DoctorID) error

	// DeleteByPatient deletes every appointment of a patient
	DeleteByPatient(ctx context.Context, id domain.UserID) error
}

// Store aggregates all storage interfaces
type Store interface {
	Users() UserStore
	Doctors() DoctorStore
	Appointments() AppointmentStore

	// Close closes the storage connection
	Close() error

	// Ping checks if the storage is alive
	Ping(ctx context.Context) error
}
