package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mangareader/pkg/models"
)

// UserRepository handles user account persistence
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateRole(ctx context.Context, id string, role models.UserRole) (*models.User, error)
	TouchLogin(ctx context.Context, id string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, email, display_name, password_hash, role, coin_balance, created_at, last_login_at`

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	var roleStr string
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&roleStr,
		&user.CoinBalance,
		&user.CreatedAt,
		&user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = models.UserRole(roleStr)
	return user, nil
}

// Create inserts a new user; role and balance take the schema defaults when empty
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, display_name, password_hash, role)
		VALUES ($1, $2, $3, $4, COALESCE(NULLIF($5, ''), 'user'))
		RETURNING role, coin_balance, created_at
	`
	var roleStr string
	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		string(user.Role),
	).Scan(&roleStr, &user.CoinBalance, &user.CreatedAt)
	if err != nil {
		mapped := mapDBError(err, "create_user", models.ErrUserNotFound, models.ErrWriteFailure)
		if errors.Is(mapped, models.ErrConflict) {
			return models.ErrEmailExists
		}
		return mapped
	}
	user.Role = models.UserRole(roleStr)
	return nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapDBError(err, "get_user_by_id", models.ErrUserNotFound, models.ErrReadFailure)
	}
	return user, nil
}

// GetByEmail retrieves a user by normalised email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, mapDBError(err, "get_user_by_email", models.ErrUserNotFound, models.ErrReadFailure)
	}
	return user, nil
}

// EmailExists checks if an email is already registered
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, mapDBError(err, "check_email_exists", models.ErrUserNotFound, models.ErrReadFailure)
	}
	return exists, nil
}

// UpdateRole changes a user's role and returns the updated row
func (r *userRepository) UpdateRole(ctx context.Context, id string, role models.UserRole) (*models.User, error) {
	query := `UPDATE users SET role = $2 WHERE id = $1 RETURNING ` + userColumns
	user, err := scanUser(r.pool.QueryRow(ctx, query, id, string(role)))
	if err != nil {
		return nil, mapDBError(err, "update_user_role", models.ErrUserNotFound, models.ErrWriteFailure)
	}
	return user, nil
}

// TouchLogin records a successful sign-in
func (r *userRepository) TouchLogin(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = now() WHERE id = $1`, id)
	return mapDBError(err, "touch_login", models.ErrUserNotFound, models.ErrWriteFailure)
}
