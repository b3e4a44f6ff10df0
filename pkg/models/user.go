package models

import (
	"time"
)

// UserRole represents valid user roles
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// IsValidRole reports whether the role exists
func IsValidRole(role string) bool {
	return role == string(UserRoleUser) || role == string(UserRoleAdmin)
}

// User represents a registered reader or admin
type User struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	DisplayName  string     `json:"display_name" db:"display_name"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         UserRole   `json:"role" db:"role"`
	CoinBalance  int        `json:"coin_balance" db:"coin_balance"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
}

// Viewer is the authenticated identity behind a request. A nil *Viewer
// means an anonymous reader.
type Viewer struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        UserRole  `json:"role"`
	TokenID     string    `json:"-"`
	ExpiresAt   time.Time `json:"-"`
}

// IsAdmin reports whether the viewer may use admin operations
func (v *Viewer) IsAdmin() bool {
	return v != nil && v.Role == UserRoleAdmin
}

// RegisterRequest is the sign-up body
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the sign-in body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserProfile - public-facing profile, no credentials
type UserProfile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        UserRole  `json:"role"`
	CoinBalance int       `json:"coin_balance"`
	CreatedAt   time.Time `json:"created_at"`
}

// LoginResponse
type LoginResponse struct {
	Token     string      `json:"token"`
	User      UserProfile `json:"user"`
	ExpiresIn int         `json:"expires_in"` // seconds
}

// Profile strips credentials from the user
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		CoinBalance: u.CoinBalance,
		CreatedAt:   u.CreatedAt,
	}
}

// HasRole checks if user has required role (for middleware)
func (u *User) HasRole(requiredRole UserRole) bool {
	if requiredRole == UserRoleAdmin {
		return u.Role == UserRoleAdmin
	}
	return true
}
