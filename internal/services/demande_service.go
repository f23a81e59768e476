package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/assistancekmy/sos-service/internal/models"
	"github.com/assistancekmy/sos-service/internal/notifier"
	"github.com/assistancekmy/sos-service/internal/repository"
	"github.com/assistancekmy/sos-service/internal/utils"
)

// DemandeService drives the demande lifecycle: validation, creation on both
// submission paths, list scoping, status transitions and deletion.
type DemandeService struct {
	Repo          repository.DemandeRepository
	Users         repository.UserRepository
	Notifier      notifier.Notifier
	Logger        *log.Logger
	NotifyTimeout time.Duration
}

// NewDemandeService creates a new DemandeService.
func NewDemandeService(repo repository.DemandeRepository, users repository.UserRepository, n notifier.Notifier, logger *log.Logger) *DemandeService {
	return &DemandeService{
		Repo:          repo,
		Users:         users,
		Notifier:      n,
		Logger:        logger,
		NotifyTimeout: 10 * time.Second,
	}
}

// CreateDemande validates and persists an authenticated submission, then
// schedules the admin notification. Contact details come from the request
// body and are validated the same way as on the anonymous path.
func (s *DemandeService) CreateDemande(ctx context.Context, actor *models.User, req models.DemandeRequest) (*models.Demande, error) {
	if errResp := utils.ValidateDemandeRequest(req); errResp != nil {
		return nil, errResp
	}

	demande, err := s.Repo.Create(ctx, req, &actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create demande: %w", err)
	}

	s.dispatchNotification(demande)
	return demande, nil
}

// CreateAnonymousDemande persists a submission with no owner and returns the
// redacted view. It never requires an authentication token.
func (s *DemandeService) CreateAnonymousDemande(ctx context.Context, req models.DemandeRequest) (*models.AnonymousDemandeView, error) {
	if errResp := utils.ValidateDemandeRequest(req); errResp != nil {
		return nil, errResp
	}

	demande, err := s.Repo.Create(ctx, req, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create anonymous demande: %w", err)
	}

	s.dispatchNotification(demande)
	return models.NewAnonymousView(demande), nil
}

// ListDemandes returns demandes visible to the actor, newest first. Admins see
// everything (optionally filtered by status); regular users see only their own.
func (s *DemandeService) ListDemandes(ctx context.Context, actor *models.User, statusValues []string) ([]models.Demande, error) {
	statuses, errResp := utils.ParseStatusFilter(statusValues)
	if errResp != nil {
		return nil, errResp
	}

	ownerID := ""
	if !CanListAll(actor) {
		ownerID = actor.ID
	}
	demandes, err := s.Repo.List(ctx, statuses, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list demandes: %w", err)
	}
	return demandes, nil
}

// GetDemande fetches one demande, enforcing the visibility policy.
func (s *DemandeService) GetDemande(ctx context.Context, actor *models.User, id string) (*models.Demande, error) {
	demande, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewErrorResponse(http.StatusNotFound, fmt.Sprintf("Demande non trouvée (ID: %s)", id))
		}
		return nil, fmt.Errorf("failed to fetch demande: %w", err)
	}
	if !CanView(actor, demande) {
		return nil, models.NewErrorResponse(http.StatusForbidden, "Non autorisé")
	}
	return demande, nil
}

// UpdateStatus applies a status change. Admin only. Any of the three statuses
// may be set in any order; only membership in the enum is enforced.
// The original submitter is not notified of status changes.
func (s *DemandeService) UpdateStatus(ctx context.Context, actor *models.User, id, status string) (*models.Demande, error) {
	if !CanMutateStatus(actor) {
		return nil, models.NewErrorResponse(http.StatusForbidden, "Non autorisé")
	}
	newStatus := models.DemandeStatus(status)
	if !models.IsValidStatus(newStatus) {
		return nil, models.NewValidationError("Données invalides", map[string][]string{
			"status": {"The selected status is invalid."},
		})
	}

	demande, err := s.Repo.UpdateStatus(ctx, id, newStatus)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewErrorResponse(http.StatusNotFound, fmt.Sprintf("Demande non trouvée (ID: %s)", id))
		}
		return nil, fmt.Errorf("failed to update demande status: %w", err)
	}
	return demande, nil
}

// DeleteDemande hard-deletes a demande. Admin only.
func (s *DemandeService) DeleteDemande(ctx context.Context, actor *models.User, id string) error {
	if !CanDelete(actor) {
		return models.NewErrorResponse(http.StatusForbidden, "Non autorisé")
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.NewErrorResponse(http.StatusNotFound, fmt.Sprintf("Demande non trouvée (ID: %s)", id))
		}
		return fmt.Errorf("failed to delete demande: %w", err)
	}
	return nil
}

// dispatchNotification alerts all admins about a new demande. It runs after
// the store write, off the request path, and is strictly best-effort: a
// dispatch failure never fails the create.
func (s *DemandeService) dispatchNotification(demande *models.Demande) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.NotifyTimeout)
		defer cancel()

		admins, err := s.Users.ListAdmins(ctx)
		if err != nil {
			s.Logger.Printf("failed to load admins for demande %s notification: %v", demande.ID, err)
			return
		}
		if err := s.Notifier.NotifyNewDemande(ctx, demande, admins); err != nil {
			s.Logger.Printf("failed to notify admins about demande %s: %v", demande.ID, err)
		}
	}()
}
