package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/assistancekmy/sos-service/internal/models"
	"github.com/assistancekmy/sos-service/internal/repository"
	"github.com/assistancekmy/sos-service/internal/security"
)

// TokenDenylist stores revoked session token ids until they would expire anyway.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthService handles account registration and session tokens.
type AuthService struct {
	Users    repository.UserRepository
	Hasher   *security.BcryptHasher
	Tokens   *security.TokenManager
	Denylist TokenDenylist
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repository.UserRepository, hasher *security.BcryptHasher, tokens *security.TokenManager, denylist TokenDenylist) *AuthService {
	return &AuthService{
		Users:    users,
		Hasher:   hasher,
		Tokens:   tokens,
		Denylist: denylist,
	}
}

// Register creates an account with the user role and returns it with a fresh
// session token.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, string, error) {
	if errResp := validateRegisterRequest(req); errResp != nil {
		return nil, "", errResp
	}

	hash, err := s.Hasher.Hash(req.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.Users.Create(ctx, req.Name, strings.ToLower(req.Email), hash, models.RoleUser)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, "", models.NewValidationError("Données invalides", map[string][]string{
				"email": {"The email has already been taken."},
			})
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, _, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return user, token, nil
}

// Login verifies credentials and returns the account with a session token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error) {
	if req.Email == "" || req.Password == "" {
		return nil, "", models.NewValidationError("Données invalides", map[string][]string{
			"email": {"The email and password fields are required."},
		})
	}

	user, err := s.Users.GetByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", models.NewErrorResponse(http.StatusUnauthorized, "Identifiants invalides")
		}
		return nil, "", fmt.Errorf("failed to fetch user: %w", err)
	}
	if err := s.Hasher.Compare(user.Password, req.Password); err != nil {
		return nil, "", models.NewErrorResponse(http.StatusUnauthorized, "Identifiants invalides")
	}

	token, _, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return user, token, nil
}

// Authenticate resolves a raw bearer token to its account, rejecting revoked
// or expired sessions.
func (s *AuthService) Authenticate(ctx context.Context, rawToken string) (*models.User, security.Session, error) {
	session, err := s.Tokens.Parse(rawToken)
	if err != nil {
		return nil, security.Session{}, models.NewErrorResponse(http.StatusUnauthorized, "Non authentifié")
	}

	revoked, err := s.Denylist.IsRevoked(ctx, session.TokenID)
	if err != nil {
		return nil, security.Session{}, fmt.Errorf("failed to check session denylist: %w", err)
	}
	if revoked {
		return nil, security.Session{}, models.NewErrorResponse(http.StatusUnauthorized, "Non authentifié")
	}

	user, err := s.Users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, security.Session{}, models.NewErrorResponse(http.StatusUnauthorized, "Non authentifié")
		}
		return nil, security.Session{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, session, nil
}

// Logout revokes the session token for the remainder of its lifetime.
func (s *AuthService) Logout(ctx context.Context, session security.Session) error {
	if err := s.Denylist.Revoke(ctx, session.TokenID, time.Until(session.ExpiresAt)); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func validateRegisterRequest(req models.RegisterRequest) *models.ErrorResponse {
	fieldErrors := map[string][]string{}

	if req.Name == "" {
		fieldErrors["name"] = append(fieldErrors["name"], "The name field is required.")
	} else if len(req.Name) > 255 {
		fieldErrors["name"] = append(fieldErrors["name"], "The name may not be greater than 255 characters.")
	}
	if req.Email == "" {
		fieldErrors["email"] = append(fieldErrors["email"], "The email field is required.")
	} else if !strings.Contains(req.Email, "@") || len(req.Email) > 255 {
		fieldErrors["email"] = append(fieldErrors["email"], "The email must be a valid email address.")
	}
	if len(req.Password) < 8 {
		fieldErrors["password"] = append(fieldErrors["password"], "The password must be at least 8 characters.")
	}
	if req.Password != req.PasswordConfirmation {
		fieldErrors["password"] = append(fieldErrors["password"], "The password confirmation does not match.")
	}

	if len(fieldErrors) > 0 {
		return models.NewValidationError("Données invalides", fieldErrors)
	}
	return nil
}
