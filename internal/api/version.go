// Package api provides HTTP API handlers for the booking backend.
package api

// ServiceName identifies this backend in logs and CLI output
const ServiceName = "booking-backend"

// Version is the build version, overridden at link time with
// -ldflags "-X github.com/medibook/booking-backend/internal/api.Version=..."
var Version = "dev"

// HealthResponse is the response from /api/health
type HealthResponse struct {
	Success   bool   `json:"success"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// TestResponse is the response from /api/test
type TestResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Database string `json:"database"`
}
