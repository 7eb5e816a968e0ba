package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/meue/rewards-backend/internal/config"
	"github.com/meue/rewards-backend/internal/models"
	"github.com/meue/rewards-backend/internal/raffleerr"
	"github.com/meue/rewards-backend/internal/repositories"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure AuthServiceImpl implements AuthService
var _ AuthService = (*AuthServiceImpl)(nil)

// ErrInvalidCredentials is returned on any login failure; it deliberately
// does not distinguish unknown email from wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthServiceImpl authenticates admin principals and issues JWTs
type AuthServiceImpl struct {
	adminRepo repositories.AdminUserRepository
	cfg       *config.Config
}

// NewAuthService creates a new AuthServiceImpl
func NewAuthService(adminRepo repositories.AdminUserRepository, cfg *config.Config) *AuthServiceImpl {
	return &AuthServiceImpl{
		adminRepo: adminRepo,
		cfg:       cfg,
	}
}

// Login verifies the credentials and returns a signed JWT
func (s *AuthServiceImpl) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	admin, err := s.adminRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, raffleerr.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up admin user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(time.Duration(s.cfg.JWT.ExpiresIn) * time.Second)
	claims := jwt.MapClaims{
		"sub":   admin.ID.Hex(),
		"email": admin.Email,
		"role":  admin.Role,
		"iat":   time.Now().Unix(),
		"exp":   expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	slog.Info("Admin logged in", "email", admin.Email)
	return &models.LoginResponse{Token: signed, ExpiresAt: expiresAt}, nil
}

// EnsureSeedAdmin creates the configured admin account if it does not
// exist yet. Called once at startup.
func (s *AuthServiceImpl) EnsureSeedAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		slog.Warn("Seed admin not configured, skipping")
		return nil
	}

	_, err := s.adminRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, raffleerr.ErrNotFound) {
		return fmt.Errorf("failed to check seed admin: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed admin password: %w", err)
	}
	admin := &models.AdminUser{
		Email:    email,
		Password: string(hashed),
		Role:     "admin",
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create seed admin: %w", err)
	}
	slog.Info("Seed admin created", "email", email)
	return nil
}
