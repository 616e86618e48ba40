package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DoctorID represents a unique doctor identifier
type DoctorID string

// NewDoctorID creates a new doctor ID
func NewDoctorID() DoctorID {
	return DoctorID(uuid.New().String())
}

// String returns the string representation
func (d DoctorID) String() string {
	return string(d)
}

// slotRegex matches a 24h "HH:MM" time of day
var slotRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidateSlot checks that s is a "HH:MM" time of day
func ValidateSlot(s string) error {
	if !slotRegex.MatchString(s) {
		return fmt.Errorf("invalid time slot %q: expected HH:MM", s)
	}
	return nil
}

// Doctor represents an entry in the doctor directory
type Doctor struct {
	ID              DoctorID  `json:"id" bson:"_id"`
	Name            string    `json:"name" bson:"name"`
	Specialization  string    `json:"specialization" bson:"specialization"`
	Email           string    `json:"email,omitempty" bson:"email,omitempty"`
	Phone           string    `json:"phone,omitempty" bson:"phone,omitempty"`
	ExperienceYears int       `json:"experience_years" bson:"experience_years"`
	Fee             float64   `json:"fee" bson:"fee"`
	Bio             string    `json:"bio,omitempty" bson:"bio,omitempty"`
	ImageURL        string    `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Available       bool      `json:"available" bson:"available"`
	AvailableDays   []string  `json:"available_days" bson:"available_days"`
	Slots           []string  `json:"slots" bson:"slots"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

// WorksOn reports whether the doctor sees patients on the given weekday.
// An empty AvailableDays list means every day.
func (d *Doctor) WorksOn(day time.Weekday) bool {
	if len(d.AvailableDays) == 0 {
		return true
	}
	for _, name := range d.AvailableDays {
		if strings.EqualFold(name, day.String()) {
			return true
		}
	}
	return false
}

// HasSlot reports whether slot is one of the doctor's configured slots
func (d *Doctor) HasSlot(slot string) bool {
	for _, s := range d.Slots {
		if s == slot {
			return true
		}
	}
	return false
}

// Validate checks the doctor fields an administrator supplies
func (d *Doctor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(d.Specialization) == "" {
		return fmt.Errorf("specialization is required")
	}
	if d.Fee < 0 {
		return fmt.Errorf("fee cannot be negative")
	}
	if d.ExperienceYears < 0 {
		return fmt.Errorf("experience cannot be negative")
	}
	for _, day := range d.AvailableDays {
		if _, ok := ParseWeekday(day); !ok {
			return fmt.Errorf("invalid day %q", day)
		}
	}
	for _, slot := range d.Slots {
		if err := ValidateSlot(slot); err != nil {
			return err
		}
	}
	return nil
}

// ParseWeekday parses an English weekday name, case-insensitively
func ParseWeekday(name string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(name, d.String()) {
			return d, true
		}
	}
	return 0, false
}

// DoctorRequest represents the body for creating or updating a doctor
type DoctorRequest struct {
	Name            string   `json:"name" binding:"required"`
	Specialization  string   `json:"specialization" binding:"required"`
	Email           string   `json:"email,omitempty" binding:"omitempty,email"`
	Phone           string   `json:"phone,omitempty"`
	ExperienceYears int      `json:"experience_years"`
	Fee             float64  `json:"fee"`
	Bio             string   `json:"bio,omitempty"`
	Available       *bool    `json:"available,omitempty"`
	AvailableDays   []string `json:"available_days,omitempty"`
	Slots           []string `json:"slots,omitempty"`

	// Password, when set together with Email on create, provisions a doctor login account
	Password string `json:"password,omitempty" binding:"omitempty,min=6"`
}

// DoctorFilter narrows a doctor listing
type DoctorFilter struct {
	Specialization string
	AvailableOnly  bool
}
