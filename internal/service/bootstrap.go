package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/medibook/booking-backend/internal/domain"
	"github.com/medibook/booking-backend/internal/storage"
	"github.com/medibook/booking-backend/pkg/config"
)

var (
	ErrInvalidAdminEmail     = errors.New("invalid default admin email")
	ErrAdminPasswordRequired = errors.New("default admin password is not configured")
)

// BootstrapOutcome describes what a bootstrap run did
type BootstrapOutcome string

const (
	OutcomeCreated BootstrapOutcome = "created"
	OutcomeExists  BootstrapOutcome = "exists"
	OutcomeFailed  BootstrapOutcome = "failed"
)

// BootstrapResult is the record of one bootstrap run
type BootstrapResult struct {
	Outcome          BootstrapOutcome `json:"outcome"`
	Email            string           `json:"email"`
	FallbackPassword bool             `json:"fallback_password,omitempty"`
	Error            string           `json:"error,omitempty"`
	StartedAt        time.Time        `json:"started_at"`
	FinishedAt       time.Time        `json:"finished_at"`
}

// BootstrapTracker keeps the outcome of the most recent bootstrap run
type BootstrapTracker struct {
	mu   sync.RWMutex
	last *BootstrapResult
}

// Record stores result as the latest outcome
func (t *BootstrapTracker) Record(result *BootstrapResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := *result
	t.last = &r
}

// Last returns a copy of the latest outcome, or nil if bootstrap has not run
func (t *BootstrapTracker) Last() *BootstrapResult {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.last == nil {
		return nil
	}
	r := *t.last
	return &r
}

// BootstrapService guarantees a known administrator account exists
type BootstrapService struct {
	store    storage.Store
	cfg      config.BootstrapConfig
	validate *validator.Validate
	tracker  *BootstrapTracker
	logger   *zap.Logger
}

// NewBootstrapService creates a new BootstrapService
func NewBootstrapService(store storage.Store, cfg config.BootstrapConfig, logger *zap.Logger) *BootstrapService {
	return &BootstrapService{
		store:    store,
		cfg:      cfg,
		validate: validator.New(),
		tracker:  &BootstrapTracker{},
		logger:   logger.Named("bootstrap"),
	}
}

// Tracker returns the tracker that records bootstrap outcomes
func (s *BootstrapService) Tracker() *BootstrapTracker {
	return s.tracker
}

// EnsureDefaultAdmin creates the default administrator unless an account with
// the configured email already exists. An existing account is never modified,
// so running it repeatedly leaves exactly one account for the email.
func (s *BootstrapService) EnsureDefaultAdmin(ctx context.Context) (*BootstrapResult, error) {
	result := &BootstrapResult{
		Email:     domain.NormalizeEmail(s.cfg.ResolvedAdminEmail()),
		StartedAt: time.Now().UTC(),
	}
	fail := func(err error) (*BootstrapResult, error) {
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		result.FinishedAt = time.Now().UTC()
		return result, err
	}

	if err := s.validate.Var(result.Email, "required,email"); err != nil {
		return fail(fmt.Errorf("%w: %q", ErrInvalidAdminEmail, result.Email))
	}

	password, fallback := s.cfg.ResolvedAdminPassword()
	result.FallbackPassword = fallback
	if fallback && s.cfg.RequirePassword {
		return fail(ErrAdminPasswordRequired)
	}

	if _, err := s.store.Users().GetByEmail(ctx, result.Email); err == nil {
		result.Outcome = OutcomeExists
		result.FinishedAt = time.Now().UTC()
		return result, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fail(fmt.Errorf("failed to look up admin: %w", err))
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fail(err)
	}

	name := s.cfg.AdminName
	if name == "" {
		name = "Admin"
	}

	admin := &domain.User{
		ID:           domain.NewUserID(),
		Name:         name,
		Email:        result.Email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := s.store.Users().Create(ctx, admin); err != nil {
		// Another instance won the race on the unique email index
		if errors.Is(err, storage.ErrAlreadyExists) {
			result.Outcome = OutcomeExists
			result.FinishedAt = time.Now().UTC()
			return result, nil
		}
		return fail(fmt.Errorf("failed to create admin: %w", err))
	}

	result.Outcome = OutcomeCreated
	result.FinishedAt = time.Now().UTC()
	return result, nil
}

// Run performs one bounded bootstrap attempt, logs and records the outcome.
// Failures are reported, never fatal.
func (s *BootstrapService) Run(ctx context.Context) *BootstrapResult {
	timeout := time.Duration(s.cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := s.EnsureDefaultAdmin(ctx)
	s.tracker.Record(result)

	switch {
	case err != nil:
		s.logger.Error("Default admin bootstrap failed",
			zap.String("email", result.Email),
			zap.Error(err))
	case result.Outcome == OutcomeCreated:
		s.logger.Info("Default admin account created", zap.String("email", result.Email))
		if result.FallbackPassword {
			s.logger.Warn("Default admin uses the built-in password; set DEFAULT_ADMIN_PASSWORD and change it")
		}
	default:
		s.logger.Info("Default admin account already exists", zap.String("email", result.Email))
	}

	return result
}
