package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/assistancekmy/sos-service/internal/models"
	"github.com/assistancekmy/sos-service/internal/security"
	"github.com/assistancekmy/sos-service/internal/services"
	"github.com/assistancekmy/sos-service/internal/utils"
)

type ctxKey int

const (
	actorKey ctxKey = iota
	sessionKey
)

// AuthMiddleware resolves the bearer token on protected routes and stores the
// acting user and session in the request context.
type AuthMiddleware struct {
	Auth   *services.AuthService
	Logger *log.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(auth *services.AuthService, logger *log.Logger) *AuthMiddleware {
	return &AuthMiddleware{Auth: auth, Logger: logger}
}

// RequireAuth rejects requests without a valid, unrevoked session token.
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		rawToken, found := strings.CutPrefix(header, "Bearer ")
		if !found || rawToken == "" {
			utils.SendErrorResponse(w, http.StatusUnauthorized, "Non authentifié")
			return
		}

		user, session, err := m.Auth.Authenticate(r.Context(), rawToken)
		if err != nil {
			if errorResponse, ok := err.(*models.ErrorResponse); ok {
				utils.SendError(w, errorResponse)
				return
			}
			m.Logger.Println(err)
			utils.SendErrorResponse(w, http.StatusInternalServerError, "Une erreur est survenue")
			return
		}

		ctx := context.WithValue(r.Context(), actorKey, user)
		ctx = context.WithValue(ctx, sessionKey, session)
		next(w, r.WithContext(ctx))
	}
}

// ActorFromContext returns the authenticated user, or nil on public routes.
func ActorFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(actorKey).(*models.User)
	return user
}

// SessionFromContext returns the parsed session of the current request.
func SessionFromContext(ctx context.Context) security.Session {
	session, _ := ctx.Value(sessionKey).(security.Session)
	return session
}
