package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format of appointment dates
const DateLayout = "2006-01-02"

// AppointmentID represents a unique appointment identifier
type AppointmentID string

// NewAppointmentID creates a new appointment ID
func NewAppointmentID() AppointmentID {
	return AppointmentID(uuid.New().String())
}

// String returns the string representation
func (a AppointmentID) String() string {
	return string(a)
}

// AppointmentStatus is the lifecycle state of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// IsValid reports whether s is a known status
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Active reports whether an appointment in this status still holds its slot
func (s AppointmentStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanTransitionTo reports whether an appointment may move from s to next
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled || next == StatusCompleted
	case StatusConfirmed:
		return next == StatusCancelled || next == StatusCompleted
	default:
		return false
	}
}

// Appointment represents a booking of a doctor's slot by a patient
type Appointment struct {
	ID          AppointmentID     `json:"id" bson:"_id"`
	PatientID   UserID            `json:"patient_id" bson:"patient_id"`
	PatientName string            `json:"patient_name" bson:"patient_name"`
	DoctorID    DoctorID          `json:"doctor_id" bson:"doctor_id"`
	DoctorName  string            `json:"doctor_name" bson:"doctor_name"`
	Date        string            `json:"date" bson:"date"`
	Time        string            `json:"time" bson:"time"`
	Reason      string            `json:"reason,omitempty" bson:"reason,omitempty"`
	Status      AppointmentStatus `json:"status" bson:"status"`
	CreatedAt   time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" bson:"updated_at"`
}

// ParseDate parses an appointment date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// BookAppointmentRequest represents the body of a booking request
type BookAppointmentRequest struct {
	DoctorID string `json:"doctor_id" binding:"required"`
	Date     string `json:"date" binding:"required"`
	Time     string `json:"time" binding:"required"`
	Reason   string `json:"reason,omitempty"`
}

// UpdateStatusRequest represents the body of an admin status change
type UpdateStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required"`
}

// AppointmentFilter narrows an appointment listing. Zero fields match everything.
type AppointmentFilter struct {
	PatientID UserID
	DoctorID  DoctorID
	Date      string
	Status    AppointmentStatus
}

// Matches reports whether a satisfies the filter
func (f AppointmentFilter) Matches(a *Appointment) bool {
	if f.PatientID != "" && a.PatientID != f.PatientID {
		return false
	}
	if f.DoctorID != "" && a.DoctorID != f.DoctorID {
		return false
	}
	if f.Date != "" && a.Date != f.Date {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	return true
}
