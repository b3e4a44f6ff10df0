// Package core - Core Business Logic
// Protocol-agnostic authentication service
// Handles user registration, login, and JWT token management
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mangareader/internal/repository"
	"mangareader/pkg/logger"
	"mangareader/pkg/models"
	"mangareader/pkg/utils"
)

// AuthService defines authentication operations
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	ValidateToken(ctx context.Context, tokenString string) (*models.Viewer, error)
	Logout(ctx context.Context, viewer *models.Viewer) error
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	UpdateUserRole(ctx context.Context, userID string, newRole string) (*models.User, error)
}

type authService struct {
	userRepo  repository.UserRepository
	sessions  repository.SessionRepository
	events    EventHub
	jwtSecret []byte
	jwtIssuer string
	jwtExpiry time.Duration
}

// JWT claims structure
type jwtClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo repository.UserRepository, sessions repository.SessionRepository, events EventHub, jwtSecret, jwtIssuer string, jwtExpiry time.Duration) AuthService {
	return &authService{
		userRepo:  userRepo,
		sessions:  sessions,
		events:    events,
		jwtSecret: []byte(jwtSecret),
		jwtIssuer: jwtIssuer,
		jwtExpiry: jwtExpiry,
	}
}

// Register creates a new user account
func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	email := utils.NormalizeEmail(req.Email)
	if err := utils.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if err := utils.ValidateDisplayName(displayName); err != nil {
		return nil, err
	}
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}

	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, models.ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           utils.NewID(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hashedPassword),
		Role:         models.UserRoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, utils.NormalizeEmail(req.Email))
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	if err := s.userRepo.TouchLogin(ctx, user.ID); err != nil {
		logger.Warnf("Failed to record login for %s: %v", user.ID, err)
	}

	return &models.LoginResponse{
		Token:     token,
		User:      user.Profile(),
		ExpiresIn: int(time.Until(expiresAt).Seconds()),
	}, nil
}

// ValidateToken verifies signature, expiry and revocation, then loads the
// current account so role changes apply immediately
func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*models.Viewer, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, models.ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, models.ErrInvalidToken
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, models.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	return &models.Viewer{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		TokenID:     claims.ID,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// Logout revokes the viewer's token until it expires
func (s *authService) Logout(ctx context.Context, viewer *models.Viewer) error {
	if viewer == nil {
		return models.ErrNotAuthenticated
	}
	if err := s.sessions.Revoke(ctx, viewer.TokenID, viewer.ExpiresAt); err != nil {
		return err
	}
	s.events.Publish(viewer.UserID, newEvent(models.EventSessionRevoked, map[string]interface{}{
		models.EventDataTokenID: viewer.TokenID,
	}))
	return nil
}

// GetUserByID retrieves a user by ID
func (s *authService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateUserRole updates a user's role (admin only)
func (s *authService) UpdateUserRole(ctx context.Context, userID string, newRole string) (*models.User, error) {
	if !models.IsValidRole(newRole) {
		return nil, models.Invalidf("invalid role %q (must be user or admin)", newRole)
	}
	user, err := s.userRepo.UpdateRole(ctx, userID, models.UserRole(newRole))
	if err != nil {
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

// generateToken creates a new JWT token for a user
func (s *authService) generateToken(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.jwtExpiry)

	claims := &jwtClaims{
		UserID: user.ID,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.jwtIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}
