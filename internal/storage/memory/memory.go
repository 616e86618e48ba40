package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/medibook/booking-backend/internal/domain"
	"github.com/medibook/booking-backend/internal/storage"
)

// Store implements an in-memory storage
type Store struct {
	users        *UserStore
	doctors      *DoctorStore
	appointments *AppointmentStore
}

// NewStore creates a new in-memory store
func NewStore() *Store {
	return &Store{
		users:        &UserStore{data: make(map[domain.UserID]*domain.User)},
		doctors:      &DoctorStore{data: make(map[domain.DoctorID]*domain.Doctor)},
		appointments: &AppointmentStore{data: make(map[domain.AppointmentID]*domain.Appointment)},
	}
}

func (s *Store) Users() storage.UserStore               { return s.users }
func (s *Store) Doctors() storage.DoctorStore           { return s.doctors }
func (s *Store) Appointments() storage.AppointmentStore { return s.appointments }
func (s *Store) Close() error                           { return nil }
func (s *Store) Ping(ctx context.Context) error         { return nil }

// UserStore implements in-memory user storage.
// Records are copied on the way in and out so callers cannot mutate stored state.
type UserStore struct {
	mu   sync.RWMutex
	data map[domain.UserID]*domain.User
}

func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[user.ID]; exists {
		return storage.ErrAlreadyExists
	}
	for _, u := range s.data {
		if u.Email == user.Email {
			return storage.ErrAlreadyExists
		}
	}

	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	s.data[user.ID] = &cp
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.data {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *UserStore) GetAll(ctx context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*domain.User, 0, len(s.data))
	for _, user := range s.data {
		cp := *user
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (s *UserStore) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, user := range s.data {
		if role == "" || user.Role == role {
			n++
		}
	}
	return n, nil
}

func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[user.ID]; !exists {
		return storage.ErrNotFound
	}
	for id, u := range s.data {
		if id != user.ID && u.Email == user.Email {
			return storage.ErrAlreadyExists
		}
	}

	user.UpdatedAt = time.Now()
	cp := *user
	s.data[user.ID] = &cp
	return nil
}

func (s *UserStore) Delete(ctx context.Context, id domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; !exists {
		return storage.ErrNotFound
	}

	delete(s.data, id)
	return nil
}

// DoctorStore implements in-memory doctor storage
type DoctorStore struct {
	mu   sync.RWMutex
	data map[domain.DoctorID]*domain.Doctor
}

func copyDoctor(d *domain.Doctor) *domain.Doctor {
	cp := *d
	cp.AvailableDays = append([]string(nil), d.AvailableDays...)
	cp.Slots = append([]string(nil), d.Slots...)
	return &cp
}

func (s *DoctorStore) Create(ctx context.Context, doctor *domain.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[doctor.ID]; exists {
		return storage.ErrAlreadyExists
	}

	doctor.CreatedAt = time.Now()
	doctor.UpdatedAt = doctor.CreatedAt
	s.data[doctor.ID] = copyDoctor(doctor)
	return nil
}

func (s *DoctorStore) GetByID(ctx context.Context, id domain.DoctorID) (*domain.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doctor, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyDoctor(doctor), nil
}

func (s *DoctorStore) GetByEmail(ctx context.Context, email string) (*domain.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doctor := range s.data {
		if email != "" && doctor.Email == email {
			return copyDoctor(doctor), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *DoctorStore) List(ctx context.Context, filter domain.DoctorFilter) ([]*domain.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doctors := make([]*domain.Doctor, 0, len(s.data))
	for _, doctor := range s.data {
		if filter.Specialization != "" && !strings.EqualFold(doctor.Specialization, filter.Specialization) {
			continue
		}
		if filter.AvailableOnly && !doctor.Available {
			continue
		}
		doctors = append(doctors, copyDoctor(doctor))
	}
	sort.Slice(doctors, func(i, j int) bool {
		return doctors[i].Name < doctors[j].Name
	})
	return doctors, nil
}

func (s *DoctorStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.data)), nil
}

func (s *DoctorStore) Update(ctx context.Context, doctor *domain.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[doctor.ID]; !exists {
		return storage.ErrNotFound
	}

	doctor.UpdatedAt = time.Now()
	s.data[doctor.ID] = copyDoctor(doctor)
	return nil
}

func (s *DoctorStore) Delete(ctx context.Context, id domain.DoctorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; !exists {
		return storage.ErrNotFound
	}

	delete(s.data, id)
	return nil
}

// AppointmentStore implements in-memory appointment storage
type AppointmentStore struct {
	mu   sync.RWMutex
	data map[domain.AppointmentID]*domain.Appointment
}

func (s *AppointmentStore) Create(ctx context.Context, appointment *domain.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[appointment.ID]; exists {
		return storage.ErrAlreadyExists
	}
	if appointment.Status.Active() {
		for _, a := range s.data {
			if a.Status.Active() && a.DoctorID == appointment.DoctorID &&
				a.Date == appointment.Date && a.Time == appointment.Time {
				return storage.ErrAlreadyExists
			}
		}
	}

	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = appointment.CreatedAt
	cp := *appointment
	s.data[appointment.ID] = &cp
	return nil
}

func (s *AppointmentStore) GetByID(ctx context.Context, id domain.AppointmentID) (*domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appointment, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *appointment
	return &cp, nil
}

func (s *AppointmentStore) List(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appointments := make([]*domain.Appointment, 0)
	for _, a := range s.data {
		if filter.Matches(a) {
			cp := *a
			appointments = append(appointments, &cp)
		}
	}
	sort.Slice(appointments, func(i, j int) bool {
		if appointments[i].Date != appointments[j].Date {
			return appointments[i].Date < appointments[j].Date
		}
		return appointments[i].Time < appointments[j].Time
	})
	return appointments, nil
}

func (s *AppointmentStore) CountByStatus(ctx context.Context, status domain.AppointmentStatus) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, a := range s.data {
		if status == "" || a.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *AppointmentStore) UpdateStatus(ctx context.Context, id domain.AppointmentID, status domain.AppointmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	appointment, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}

	appointment.Status = status
	appointment.UpdatedAt = time.Now()
	return nil
}

func (s *AppointmentStore) Delete(ctx context.Context, id domain.AppointmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; !exists {
		return storage.ErrNotFound
	}

	delete(s.data, id)
	return nil
}

func (s *AppointmentStore) DeleteByDoctor(ctx context.Context, id domain.DoctorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, a := range s.data {
		if a.DoctorID == id {
			delete(s.data, key)
		}
	}
	return nil
}

func (s *AppointmentStore) DeleteByPatient(ctx context.Context, id domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, a := range s.data {
		if a.PatientID == id {
			delete(s.data, key)
		}
	}
	return nil
}
