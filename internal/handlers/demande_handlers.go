package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/assistancekmy/sos-service/internal/models"
	"github.com/assistancekmy/sos-service/internal/services"
	"github.com/assistancekmy/sos-service/internal/utils"
)

// DemandeHandler handles HTTP requests for the demande lifecycle.
type DemandeHandler struct {
	Service *services.DemandeService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewDemandeHandler creates a new DemandeHandler.
func NewDemandeHandler(service *services.DemandeService, logger *log.Logger, timeout time.Duration) *DemandeHandler {
	return &DemandeHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// List handles GET /api/demandes.
func (h *DemandeHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	actor := ActorFromContext(r.Context())
	demandes, err := h.Service.ListDemandes(ctx, actor, r.URL.Query()["status"])
	if err != nil {
		h.sendError(w, err, "Impossible de récupérer les demandes")
		return
	}
	if demandes == nil {
		demandes = []models.Demande{}
	}

	utils.SendJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"demandes": demandes,
	})
}

// Create handles POST /api/demande (authenticated submission).
func (h *DemandeHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.DemandeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := ActorFromContext(r.Context())
	demande, err := h.Service.CreateDemande(ctx, actor, req)
	if err != nil {
		h.sendError(w, err, "Une erreur est survenue lors de l'envoi de la demande. Veuillez réessayer.")
		return
	}

	utils.SendJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Demande SOS envoyée avec succès",
		"demande": demande,
	})
}

// CreateAnonymous handles POST /api/demande-anonyme. No authentication.
func (h *DemandeHandler) CreateAnonymous(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.DemandeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.Service.CreateAnonymousDemande(ctx, req)
	if err != nil {
		h.sendError(w, err, "Une erreur est survenue lors de l'envoi de la demande. Veuillez réessayer.")
		return
	}

	utils.SendJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Demande SOS anonyme envoyée avec succès. Une ambulance a été alertée.",
		"demande": view,
	})
}

// Show handles GET /api/demandes/{id}.
func (h *DemandeHandler) Show(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	actor := ActorFromContext(r.Context())
	demande, err := h.Service.GetDemande(ctx, actor, r.PathValue("id"))
	if err != nil {
		h.sendError(w, err, "Impossible de récupérer la demande")
		return
	}

	utils.SendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"demande": demande,
	})
}

// UpdateStatus handles PATCH /api/demandes/{id}/status. Admin only.
func (h *DemandeHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := ActorFromContext(r.Context())
	demande, err := h.Service.UpdateStatus(ctx, actor, r.PathValue("id"), body.Status)
	if err != nil {
		h.sendError(w, err, "Impossible de mettre à jour le statut")
		return
	}

	utils.SendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Statut mis à jour avec succès",
		"demande": demande,
	})
}

// Delete handles DELETE /api/demandes/{id}. Admin only.
func (h *DemandeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	actor := ActorFromContext(r.Context())
	if err := h.Service.DeleteDemande(ctx, actor, r.PathValue("id")); err != nil {
		h.sendError(w, err, "Impossible de supprimer la demande")
		return
	}

	utils.SendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Demande supprimée avec succès",
	})
}

// sendError maps service errors to the response envelope. Unexpected errors
// are logged server-side and surfaced as a generic 500.
func (h *DemandeHandler) sendError(w http.ResponseWriter, err error, fallback string) {
	if errorResponse, ok := err.(*models.ErrorResponse); ok {
		utils.SendError(w, errorResponse)
		return
	}
	h.Logger.Println(err)
	utils.SendErrorResponse(w, http.StatusInternalServerError, fallback)
}
