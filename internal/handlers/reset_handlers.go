package handlers

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/assistancekmy/sos-service/internal/models"
	"github.com/assistancekmy/sos-service/internal/services"
	"github.com/assistancekmy/sos-service/internal/utils"
)

//go:embed templates/*.html
var resetTemplates embed.FS

// ResetHandler handles the password-reset API endpoints and the small
// templated web flow the reset email links to.
type ResetHandler struct {
	Service   *services.PasswordResetService
	Logger    *log.Logger
	Timeout   time.Duration
	templates *template.Template
}

// NewResetHandler creates a new ResetHandler with its parsed templates.
func NewResetHandler(service *services.PasswordResetService, logger *log.Logger, timeout time.Duration) (*ResetHandler, error) {
	tmpl, err := template.ParseFS(resetTemplates, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &ResetHandler{
		Service:   service,
		Logger:    logger,
		Timeout:   timeout,
		templates: tmpl,
	}, nil
}

// Forgot handles POST /api/forgot-password. The response never reveals
// whether the account exists.
func (h *ResetHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.Forgot(ctx, req); err != nil {
		h.sendError(w, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Si ce compte existe, un lien de réinitialisation a été envoyé",
	})
}

// Reset handles POST /api/reset-password.
func (h *ResetHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.Reset(ctx, req); err != nil {
		h.sendError(w, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Mot de passe réinitialisé avec succès",
	})
}

// ShowForm handles GET /reset-password/{token}: the HTML form the mailed
// link points to.
func (h *ResetHandler) ShowForm(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Token string
		Email string
	}{
		Token: r.PathValue("token"),
		Email: r.URL.Query().Get("email"),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "reset_password.html", data); err != nil {
		h.Logger.Println(err)
	}
}

// ShowSuccess handles GET /password-reset-success.
func (h *ResetHandler) ShowSuccess(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "reset_success.html", nil); err != nil {
		h.Logger.Println(err)
	}
}

func (h *ResetHandler) sendError(w http.ResponseWriter, err error) {
	if errorResponse, ok := err.(*models.ErrorResponse); ok {
		utils.SendError(w, errorResponse)
		return
	}
	h.Logger.Println(err)
	utils.SendErrorResponse(w, http.StatusInternalServerError, "Une erreur est survenue")
}
