package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/assistancekmy/sos-service/internal/models"

	"github.com/google/uuid"
)

// MemoryDemandeRepository is a mutex-guarded in-memory DemandeRepository,
// used by unit and handler tests in place of a live database.
type MemoryDemandeRepository struct {
	mu   sync.Mutex
	rows map[string]models.Demande
}

// NewMemoryDemandeRepository creates an empty in-memory demande repository.
func NewMemoryDemandeRepository() *MemoryDemandeRepository {
	return &MemoryDemandeRepository{rows: map[string]models.Demande{}}
}

func (r *MemoryDemandeRepository) Create(_ context.Context, req models.DemandeRequest, userID *string) (*models.Demande, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	d := models.Demande{
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
	r.rows[d.ID] = d
	return &d, nil
}

func (r *MemoryDemandeRepository) GetByID(_ context.Context, id string) (*models.Demande, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (r *MemoryDemandeRepository) List(_ context.Context, statuses []string, ownerID string) ([]models.Demande, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var demandes []models.Demande
	for _, d := range r.rows {
		if ownerID != "" && (d.UserID == nil || *d.UserID != ownerID) {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, d.Status) {
			continue
		}
		demandes = append(demandes, d)
	}
	sort.Slice(demandes, func(i, j int) bool {
		if !demandes[i].CreatedAt.Equal(demandes[j].CreatedAt) {
			return demandes[i].CreatedAt.After(demandes[j].CreatedAt)
		}
		return demandes[i].ID > demandes[j].ID
	})
	return demandes, nil
}

func (r *MemoryDemandeRepository) UpdateStatus(_ context.Context, id string, status models.DemandeStatus) (*models.Demande, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	d.Status = status
	d.UpdatedAt = time.Now().UTC()
	r.rows[id] = d
	return &d, nil
}

func (r *MemoryDemandeRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func containsStatus(statuses []string, s models.DemandeStatus) bool {
	for _, candidate := range statuses {
		if models.DemandeStatus(candidate) == s {
			return true
		}
	}
	return false
}

// MemoryUserRepository is a mutex-guarded in-memory UserRepository.
type MemoryUserRepository struct {
	mu   sync.Mutex
	rows map[string]models.User
}

// NewMemoryUserRepository creates an empty in-memory user repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{rows: map[string]models.User{}}
}

func (r *MemoryUserRepository) Create(_ context.Context, name, email, passwordHash string, role models.UserRole) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Email == email {
			return nil, ErrDuplicateEmail
		}
	}
	u := models.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Password:  passwordHash,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	r.rows[u.ID] = u
	return &u, nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, email, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.rows {
		if u.Email == email {
			u.Password = passwordHash
			r.rows[id] = u
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryUserRepository) ListAdmins(_ context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var admins []models.User
	for _, u := range r.rows {
		if u.Role == models.RoleAdmin {
			admins = append(admins, u)
		}
	}
	return admins, nil
}
