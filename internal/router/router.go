package router

import (
	"net/http"

	"github.com/assistancekmy/sos-service/internal/handlers"
)

// InitRoutes wires the public and token-guarded routes.
func InitRoutes(demandeHandler *handlers.DemandeHandler, authHandler *handlers.AuthHandler, resetHandler *handlers.ResetHandler, authMW *handlers.AuthMiddleware) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/ping", handlers.PingHandler)

	// Public auth routes
	mux.HandleFunc("POST /api/register", authHandler.Register)
	mux.HandleFunc("POST /api/login", authHandler.Login)
	mux.HandleFunc("POST /api/forgot-password", resetHandler.Forgot)
	mux.HandleFunc("POST /api/reset-password", resetHandler.Reset)

	// Anonymous SOS submission: never requires a token
	mux.HandleFunc("POST /api/demande-anonyme", demandeHandler.CreateAnonymous)

	// Protected routes
	mux.HandleFunc("POST /api/logout", authMW.RequireAuth(authHandler.Logout))
	mux.HandleFunc("GET /api/user", authMW.RequireAuth(authHandler.CurrentUser))
	mux.HandleFunc("GET /api/demandes", authMW.RequireAuth(demandeHandler.List))
	mux.HandleFunc("POST /api/demande", authMW.RequireAuth(demandeHandler.Create))
	mux.HandleFunc("GET /api/demandes/{id}", authMW.RequireAuth(demandeHandler.Show))
	mux.HandleFunc("PATCH /api/demandes/{id}/status", authMW.RequireAuth(demandeHandler.UpdateStatus))
	mux.HandleFunc("DELETE /api/demandes/{id}", authMW.RequireAuth(demandeHandler.Delete))

	// Password-reset web flow linked from the reset email
	mux.HandleFunc("GET /reset-password/{token}", resetHandler.ShowForm)
	mux.HandleFunc("GET /password-reset-success", resetHandler.ShowSuccess)

	return mux
}
