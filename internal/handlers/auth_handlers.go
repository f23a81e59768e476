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

// AuthHandler handles account and session endpoints.
type AuthHandler struct {
	Service *services.AuthService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *services.AuthService, logger *log.Logger, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.Service.Register(ctx, req)
	if err != nil {
		h.sendError(w, err, "Impossible de créer le compte")
		return
	}

	utils.SendJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Compte créé avec succès",
		"user":    user,
		"token":   token,
	})
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.Service.Login(ctx, req)
	if err != nil {
		h.sendError(w, err, "Impossible de se connecter")
		return
	}

	utils.SendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

// Logout handles POST /api/logout. Requires authentication.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	if err := h.Service.Logout(ctx, SessionFromContext(r.Context())); err != nil {
		h.sendError(w, err, "Impossible de se déconnecter")
		return
	}

	utils.SendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Déconnexion réussie",
	})
}

// CurrentUser handles GET /api/user. Requires authentication.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	utils.SendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    ActorFromContext(r.Context()),
	})
}

func (h *AuthHandler) sendError(w http.ResponseWriter, err error, fallback string) {
	if errorResponse, ok := err.(*models.ErrorResponse); ok {
		utils.SendError(w, errorResponse)
		return
	}
	h.Logger.Println(err)
	utils.SendErrorResponse(w, http.StatusInternalServerError, fallback)
}
