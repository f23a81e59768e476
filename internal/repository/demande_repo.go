package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/assistancekmy/sos-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// DemandeRepository - interface for demande storage.
type DemandeRepository interface {
	Create(ctx context.Context, req models.DemandeRequest, userID *string) (*models.Demande, error)
	GetByID(ctx context.Context, id string) (*models.Demande, error)
	List(ctx context.Context, statuses []string, ownerID string) ([]models.Demande, error)
	UpdateStatus(ctx context.Context, id string, status models.DemandeStatus) (*models.Demande, error)
	Delete(ctx context.Context, id string) error
}

// PostgresDemandeRepository - DemandeRepository implementation over Postgres.
type PostgresDemandeRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresDemandeRepository creates a new PostgresDemandeRepository.
func NewPostgresDemandeRepository(db *pgxpool.Pool) *PostgresDemandeRepository {
	return &PostgresDemandeRepository{DB: db}
}

const demandeColumns = `id, user_id, nom, prenom, telephone, adresse, latitude, longitude, status, created_at, updated_at`

// Create persists a new demande with status pending and a fresh id.
// Validation is the caller's job; userID is nil for anonymous submissions.
func (r *PostgresDemandeRepository) Create(ctx context.Context, req models.DemandeRequest, userID *string) (*models.Demande, error) {
	now := time.Now().UTC()
	newDemande := models.Demande{
		ID:        uuid.New().String(),
		UserID:    userID,
		Nom:       req.Nom,
		Prenom:    req.Prenom,
		Telephone: req.Telephone,
		Adresse:   req.Adresse,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.DB.Exec(ctx, `
       INSERT INTO demandes (id, user_id, nom, prenom, telephone, adresse, latitude, longitude, status, created_at, updated_at)
       VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
   `,
		newDemande.ID,
		newDemande.UserID,
		newDemande.Nom,
		newDemande.Prenom,
		newDemande.Telephone,
		newDemande.Adresse,
		newDemande.Latitude,
		newDemande.Longitude,
		newDemande.Status,
		newDemande.CreatedAt,
		newDemande.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert demande: %w", err)
	}
	return &newDemande, nil
}

// GetByID returns a demande by id, or ErrNotFound.
func (r *PostgresDemandeRepository) GetByID(ctx context.Context, id string) (*models.Demande, error) {
	var d models.Demande
	query := `SELECT ` + demandeColumns + ` FROM demandes WHERE id = $1`
	err := r.DB.QueryRow(ctx, query, id).Scan(
		&d.ID,
		&d.UserID,
		&d.Nom,
		&d.Prenom,
		&d.Telephone,
		&d.Adresse,
		&d.Latitude,
		&d.Longitude,
		&d.Status,
		&d.CreatedAt,
		&d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// List returns demandes newest first, ties broken by id descending.
// statuses and ownerID are optional filters; empty means no filter.
func (r *PostgresDemandeRepository) List(ctx context.Context, statuses []string, ownerID string) ([]models.Demande, error) {
	query := `SELECT ` + demandeColumns + ` FROM demandes`
	var filters []string
	var args []interface{}
	argIndex := 1

	if len(statuses) > 0 {
		filters = append(filters, fmt.Sprintf("status = ANY($%d)", argIndex))
		args = append(args, pq.Array(statuses))
		argIndex++
	}
	if ownerID != "" {
		filters = append(filters, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, ownerID)
		argIndex++
	}

	if len(filters) > 0 {
		query += " WHERE " + strings.Join(filters, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var demandes []models.Demande
	for rows.Next() {
		var d models.Demande
		if err := rows.Scan(
			&d.ID,
			&d.UserID,
			&d.Nom,
			&d.Prenom,
			&d.Telephone,
			&d.Adresse,
			&d.Latitude,
			&d.Longitude,
			&d.Status,
			&d.CreatedAt,
			&d.UpdatedAt); err != nil {
			return nil, err
		}
		demandes = append(demandes, d)
	}
	return demandes, rows.Err()
}

// UpdateStatus sets only the status field, atomically, and returns the updated row.
func (r *PostgresDemandeRepository) UpdateStatus(ctx context.Context, id string, status models.DemandeStatus) (*models.Demande, error) {
	var d models.Demande
	query := `UPDATE demandes SET status = $1, updated_at = now() WHERE id = $2
	          RETURNING ` + demandeColumns
	err := r.DB.QueryRow(ctx, query, status, id).Scan(
		&d.ID,
		&d.UserID,
		&d.Nom,
		&d.Prenom,
		&d.Telephone,
		&d.Adresse,
		&d.Latitude,
		&d.Longitude,
		&d.Status,
		&d.CreatedAt,
		&d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Delete removes a demande by id, or returns ErrNotFound.
func (r *PostgresDemandeRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM demandes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
