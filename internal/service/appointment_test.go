package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibook/booking-backend/internal/domain"
	"github.com/medibook/booking-backend/internal/storage"
	"github.com/medibook/booking-backend/internal/storage/memory"
)

type bookingFixture struct {
	store   *memory.Store
	svc     *AppointmentService
	doctor  *domain.Doctor
	patient Caller
	other   Caller
	admin   Caller
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	store := memory.NewStore()
	ctx := t.Context()

	doctor, err := NewDoctorService(store, testLogger()).Create(ctx, cardiologist())
	require.NoError(t, err)

	mkUser := func(name, email string, role domain.Role) Caller {
		u := &domain.User{ID: domain.NewUserID(), Name: name, Email: email, Role: role}
		require.NoError(t, store.Users().Create(ctx, u))
		return Caller{UserID: u.ID, Email: u.Email, Role: u.Role}
	}

	svc := NewAppointmentService(store, testLogger())
	svc.now = func() time.Time { return time.Date(2030, 1, 6, 12, 0, 0, 0, time.UTC) }

	return &bookingFixture{
		store:   store,
		svc:     svc,
		doctor:  doctor,
		patient: mkUser("Pat", "pat@example.com", domain.RolePatient),
		other:   mkUser("Olly", "olly@example.com", domain.RolePatient),
		admin:   mkUser("Admin", "admin@example.com", domain.RoleAdmin),
	}
}

func (f *bookingFixture) request(date, slot string) *domain.BookAppointmentRequest {
	return &domain.BookAppointmentRequest{
		DoctorID: f.doctor.ID.String(),
		Date:     date,
		Time:     slot,
		Reason:   "checkup",
	}
}

func TestAppointmentService_Book(t *testing.T) {
	f := newBookingFixture(t)

	appt, err := f.svc.Book(t.Context(), f.patient, f.request("2030-01-07", "09:00"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, appt.Status)
	assert.Equal(t, f.patient.UserID, appt.PatientID)
	assert.Equal(t, "Pat", appt.PatientName)
	assert.Equal(t, "Dr. Heart", appt.DoctorName)
}

func TestAppointmentService_Book_SlotTaken(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.svc.Book(t.Context(), f.patient, f.request("2030-01-07", "09:00"))
	require.NoError(t, err)

	_, err = f.svc.Book(t.Context(), f.other, f.request("2030-01-07", "09:00"))
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestAppointmentService_Book_Rejections(t *testing.T) {
	f := newBookingFixture(t)

	tests := []struct {
		name  string
		req   *domain.BookAppointmentRequest
		check func(t *testing.T, err error)
	}{
		{
			name: "past date",
			req:  f.request("2030-01-01", "09:00"),
			check: func(t *testing.T, err error) {
				assert.True(t, IsValidationError(err))
			},
		},
		{
			name: "bad date",
			req:  f.request("tomorrow", "09:00"),
			check: func(t *testing.T, err error) {
				assert.True(t, IsValidationError(err))
			},
		},
		{
			name: "non working day",
			req:  f.request("2030-01-08", "09:00"),
			check: func(t *testing.T, err error) {
				assert.True(t, IsValidationError(err))
			},
		},
		{
			name: "unknown slot",
			req:  f.request("2030-01-07", "11:15"),
			check: func(t *testing.T, err error) {
				assert.True(t, IsValidationError(err))
			},
		},
		{
			name: "unknown doctor",
			req:  &domain.BookAppointmentRequest{DoctorID: "missing", Date: "2030-01-07", Time: "09:00"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, storage.ErrNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Book(t.Context(), f.patient, tt.req)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestAppointmentService_Book_UnavailableDoctor(t *testing.T) {
	f := newBookingFixture(t)

	req := cardiologist()
	req.Available = boolPtr(false)
	_, err := NewDoctorService(f.store, testLogger()).Update(t.Context(), f.doctor.ID, req)
	require.NoError(t, err)

	_, err = f.svc.Book(t.Context(), f.patient, f.request("2030-01-07", "09:00"))
	assert.ErrorIs(t, err, ErrDoctorUnavailable)
}

func TestAppointmentService_Book_DeletedPatient(t *testing.T) {
	f := newBookingFixture(t)
	require.NoError(t, f.store.Users().Delete(t.Context(), f.patient.UserID))

	_, err := f.svc.Book(t.Context(), f.patient, f.request("2030-01-07", "09:00"))
	assert.ErrorIs(t, err, ErrAccountGone)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}

func TestAppointmentService_CancelFreesSlot(t *testing.T) {
	f := newBookingFixture(t)

	appt, err := f.svc.Book(t.Context(), f.patient, f.request("2030-01-07", "09:00"))
	require.NoError(t, err)

	_, err = f.svc.Cancel(t.Context(), f.other, appt.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	cancelled, err := f.svc.Cancel(t.Context(), f.patient, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	_, err = f.svc.Cancel(t.Context(), f.patient, appt.ID)
	assert.ErrorIs(t, err, ErrAppointmentStopped)

	_, err = f.svc.Book(t.Context(), f.other, f.request("2030-01-07", "09:00"))
	assert.NoError(t, err)
}

func TestAppointmentService_ListForCaller(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.svc.Book(t.Context(), f.patient, f.request("2030-01-09", "10:00"))
	require.NoError(t, err)
	_, err = f.svc.Book(t.Context(), f.patient, f.request("2030-01-07", "09:00"))
	require.NoError(t, err)
	_, err = f.svc.Book(t.Context(), f.other, f.request("2030-01-07", "09:30"))
	require.NoError(t, err)

	mine, err := f.svc.ListForCaller(t.Context(), f.patient)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "2030-01-07", mine[0].Date)
	assert.Equal(t, "2030-01-09", mine[1].Date)

	// a doctor account without a directory entry sees nothing
	none, err := f.svc.ListForCaller(t.Context(), Caller{UserID: "d", Email: "nobody@example.com", Role: domain.RoleDoctor})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAppointmentService_ListForDoctor(t *testing.T) {
	f := newBookingFixture(t)

	req := cardiologist()
	req.Email = "heart@clinic.example"
	_, err := NewDoctorService(f.store, testLogger()).Update(t.Context(), f.doctor.ID, req)
	require.NoError(t, err)

	_, err = f.svc.Book(t.Context(), f.patient, f.request("2030-01-07", "09:00"))
	require.NoError(t, err)

	list, err := f.svc.ListForCaller(t.Context(), Caller{UserID: "doc-user", Email: "Heart@Clinic.Example", Role: domain.RoleDoctor})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAppointmentService_Delete(t *testing.T) {
	f := newBookingFixture(t)

	appt, err := f.svc.Book(t.Context(), f.patient, f.request("2030-01-07", "09:00"))
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(t.Context(), f.other, appt.ID), ErrForbidden)
	require.NoError(t, f.svc.Delete(t.Context(), f.admin, appt.ID))
	assert.ErrorIs(t, f.svc.Delete(t.Context(), f.admin, appt.ID), storage.ErrNotFound)
}

func TestAppointmentService_UpdateStatus(t *testing.T) {
	f := newBookingFixture(t)

	appt, err := f.svc.Book(t.Context(), f.patient, f.request("2030-01-07", "09:00"))
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(t.Context(), appt.ID, domain.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)

	updated, err = f.svc.UpdateStatus(t.Context(), appt.ID, domain.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)

	_, err = f.svc.UpdateStatus(t.Context(), appt.ID, domain.StatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.UpdateStatus(t.Context(), appt.ID, "lost")
	assert.True(t, IsValidationError(err))

	all, err := f.svc.ListAll(t.Context(), domain.AppointmentFilter{Status: domain.StatusCompleted})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
