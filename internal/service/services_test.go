package service

import (
	"testing"

	"github.com/medibook/booking-backend/internal/storage/memory"
)

func TestNewServices(t *testing.T) {
	services := NewServices(memory.NewStore(), testConfig(), testLogger())

	if services == nil {
		t.Fatal("expected services to not be nil")
	}
	if services.User == nil {
		t.Error("expected User service to be initialized")
	}
	if services.Doctor == nil {
		t.Error("expected Doctor service to be initialized")
	}
	if services.Appointment == nil {
		t.Error("expected Appointment service to be initialized")
	}
	if services.Admin == nil {
		t.Error("expected Admin service to be initialized")
	}
	if services.Bootstrap == nil {
		t.Error("expected Bootstrap service to be initialized")
	}
	if services.Bootstrap.Tracker().Last() != nil {
		t.Error("expected no bootstrap outcome before Run")
	}
}
