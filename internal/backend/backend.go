// Package backend selects and constructs the configured storage implementation.
package backend

import (
	"context"
	"fmt"

	"github.com/medibook/booking-backend/internal/storage"
	"github.com/medibook/booking-backend/internal/storage/memory"
	"github.com/medibook/booking-backend/internal/storage/mongodb"
	"github.com/medibook/booking-backend/pkg/config"
)

// Type defines the type of storage backend
type Type string

const (
	// TypeMemory uses in-memory storage (for testing/development)
	TypeMemory Type = "memory"
	// TypeMongoDB uses MongoDB storage (for production)
	TypeMongoDB Type = "mongodb"
)

// Backend is the storage handle the server owns for its lifetime
type Backend = storage.Store

// New creates a storage backend based on the configuration.
// For MongoDB the connection is established and verified before New returns.
func New(ctx context.Context, cfg *config.Config) (Backend, error) {
	storageType := Type(cfg.Storage.Type)

	switch storageType {
	case TypeMemory, "":
		return memory.NewStore(), nil

	case TypeMongoDB:
		store, err := mongodb.NewStore(ctx, &cfg.Storage.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("failed to create MongoDB backend: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
