package domain

import "testing"

func TestAppointmentStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to AppointmentStatus
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppointmentStatus_Active(t *testing.T) {
	if !StatusPending.Active() || !StatusConfirmed.Active() {
		t.Error("pending and confirmed should hold the slot")
	}
	if StatusCancelled.Active() || StatusCompleted.Active() {
		t.Error("cancelled and completed should release the slot")
	}
	if AppointmentStatus("lost").IsValid() {
		t.Error("unknown status should be invalid")
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2026-10-19"); err != nil {
		t.Errorf("ParseDate() error = %v", err)
	}
	for _, s := range []string{"", "19-10-2026", "2026-13-01", "2026/10/19"} {
		if _, err := ParseDate(s); err == nil {
			t.Errorf("ParseDate(%q) should fail", s)
		}
	}
}

func TestAppointmentFilter_Matches(t *testing.T) {
	a := &Appointment{PatientID: "p1", DoctorID: "d1", Date: "2026-10-19", Status: StatusPending}

	if !(AppointmentFilter{}).Matches(a) {
		t.Error("empty filter should match")
	}
	if !(AppointmentFilter{PatientID: "p1", DoctorID: "d1"}).Matches(a) {
		t.Error("expected match")
	}
	if (AppointmentFilter{Status: StatusCancelled}).Matches(a) {
		t.Error("status should not match")
	}
	if (AppointmentFilter{Date: "2026-10-20"}).Matches(a) {
		t.Error("date should not match")
	}
}
