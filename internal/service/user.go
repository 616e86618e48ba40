package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/medibook/booking-backend/internal/domain"
	"github.com/medibook/booking-backend/internal/storage"
	"github.com/medibook/booking-backend/pkg/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrCannotDeleteSelf   = errors.New("cannot delete own account")
	// ErrAccountGone is returned when a still valid token names a deleted account
	ErrAccountGone = errors.New("account no longer exists")
)

// HashPassword returns the bcrypt hash of password.
// Passwords are only ever persisted in this form.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// TokenClaims is what a validated token says about its bearer
type TokenClaims struct {
	UserID domain.UserID
	Email  string
	Role   domain.Role
}

// UserService handles account registration, login and management
type UserService struct {
	store  storage.Store
	cfg    *config.Config
	logger *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(store storage.Store, cfg *config.Config, logger *zap.Logger) *UserService {
	return &UserService{
		store:  store,
		cfg:    cfg,
		logger: logger.Named("user-service"),
	}
}

// Register creates a patient account and returns it with a login token
func (s *UserService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, string, error) {
	email := domain.NormalizeEmail(req.Email)

	if _, err := s.store.Users().GetByEmail(ctx, email); err == nil {
		return nil, "", ErrUserExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		ID:           domain.NewUserID(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RolePatient,
		Phone:        req.Phone,
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, "", ErrUserExists
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	return user, token, nil
}

// Login authenticates a user with email/password
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.store.Users().GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if user.PasswordHash == "" {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return user, token, nil
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return s.store.Users().GetByID(ctx, id)
}

// ListUsers returns all accounts
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.store.Users().GetAll(ctx)
}

// DeleteUser deletes an account and its appointments. Admins cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, actor domain.UserID, id domain.UserID) error {
	if actor == id {
		return ErrCannotDeleteSelf
	}

	if err := s.store.Users().Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if err := s.store.Appointments().DeleteByPatient(ctx, id); err != nil {
		s.logger.Warn("Failed to delete appointments of deleted user",
			zap.String("user_id", id.String()), zap.Error(err))
	}

	s.logger.Info("User deleted", zap.String("user_id", id.String()), zap.String("by", actor.String()))
	return nil
}

// ParseToken validates an HS256 token signed with secret and extracts its claims
func ParseToken(secret, tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, errors.New("invalid token claims")
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return &TokenClaims{
		UserID: domain.UserID(userID),
		Email:  email,
		Role:   domain.Role(role),
	}, nil
}

func (s *UserService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"role":    string(user.Role),
		"iss":     s.cfg.JWT.Issuer,
		"exp":     now.Add(time.Duration(s.cfg.JWT.ExpiryHours) * time.Hour).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWT.Secret))
}
