package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/assistancekmy/sos-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository - interface for account storage.
// ListAdmins is the notification fan-out collaborator: the lifecycle
// controller depends on it instead of querying accounts directly.
type UserRepository interface {
	Create(ctx context.Context, name, email, passwordHash string, role models.UserRole) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) error
	ListAdmins(ctx context.Context) ([]models.User, error)
}

// PostgresUserRepository - UserRepository implementation over Postgres.
type PostgresUserRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgresUserRepository.
func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

const userColumns = `id, name, email, password, role, created_at`

// Create persists a new account.
func (r *PostgresUserRepository) Create(ctx context.Context, name, email, passwordHash string, role models.UserRole) (*models.User, error) {
	newUser := models.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Password:  passwordHash,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.DB.Exec(ctx, `
       INSERT INTO users (id, name, email, password, role, created_at, updated_at)
       VALUES ($1, $2, $3, $4, $5, $6, $6)
   `,
		newUser.ID,
		newUser.Name,
		newUser.Email,
		newUser.Password,
		newUser.Role,
		newUser.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return &newUser, nil
}

// GetByID returns an account by id, or ErrNotFound.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail returns an account by email, or ErrNotFound.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresUserRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var u models.User
	err := r.DB.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Password,
		&u.Role,
		&u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpdatePassword replaces the stored password hash for the account.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	tag, err := r.DB.Exec(ctx, `UPDATE users SET password = $1, updated_at = now() WHERE email = $2`, passwordHash, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAdmins returns every account with the admin role.
func (r *PostgresUserRepository) ListAdmins(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1`, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.Password,
			&u.Role,
			&u.CreatedAt); err != nil {
			return nil, err
		}
		admins = append(admins, u)
	}
	return admins, rows.Err()
}
