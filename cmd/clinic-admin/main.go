// Package main provides the clinic-admin CLI tool for operating the booking backend.
package main

import (
	"os"

	"github.com/medibook/booking-backend/cmd/clinic-admin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
