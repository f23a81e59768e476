package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/assistancekmy/sos-service/internal/mailer"
	"github.com/assistancekmy/sos-service/internal/models"
	"github.com/assistancekmy/sos-service/internal/repository"
	"github.com/assistancekmy/sos-service/internal/security"

	"github.com/google/uuid"
)

// ResetTokenStore keeps short-lived password-reset tokens keyed by email.
type ResetTokenStore interface {
	Put(ctx context.Context, email, token string, ttl time.Duration) error
	Check(ctx context.Context, email, token string) (bool, error)
	Delete(ctx context.Context, email string) error
}

// PasswordResetService issues and consumes password-reset tokens.
type PasswordResetService struct {
	Users   repository.UserRepository
	Hasher  *security.BcryptHasher
	Tokens  ResetTokenStore
	Mailer  mailer.Mailer
	Logger  *log.Logger
	TTL     time.Duration
	BaseURL string
}

// NewPasswordResetService creates a new PasswordResetService.
func NewPasswordResetService(users repository.UserRepository, hasher *security.BcryptHasher, tokens ResetTokenStore, m mailer.Mailer, logger *log.Logger, ttl time.Duration, baseURL string) *PasswordResetService {
	return &PasswordResetService{
		Users:   users,
		Hasher:  hasher,
		Tokens:  tokens,
		Mailer:  m,
		Logger:  logger,
		TTL:     ttl,
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Forgot issues a reset token and mails the reset link. The response is the
// same whether or not the account exists, so addresses cannot be enumerated.
func (s *PasswordResetService) Forgot(ctx context.Context, req models.ForgotPasswordRequest) error {
	if req.Email == "" {
		return models.NewValidationError("Données invalides", map[string][]string{
			"email": {"The email field is required."},
		})
	}
	email := strings.ToLower(req.Email)

	if _, err := s.Users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to fetch user: %w", err)
	}

	token := uuid.New().String()
	if err := s.Tokens.Put(ctx, email, token, s.TTL); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	link := fmt.Sprintf("%s/reset-password/%s?email=%s", s.BaseURL, token, url.QueryEscape(email))
	if err := s.Mailer.SendPasswordResetLink(ctx, email, link); err != nil {
		// Best-effort like the admin notifications; failing here would also
		// reveal whether the account exists.
		s.Logger.Printf("failed to send reset link to %s: %v", email, err)
	}
	return nil
}

// Reset consumes a valid token and replaces the account password.
func (s *PasswordResetService) Reset(ctx context.Context, req models.ResetPasswordRequest) error {
	if errResp := validateResetRequest(req); errResp != nil {
		return errResp
	}
	email := strings.ToLower(req.Email)

	invalidToken := models.NewValidationError("Données invalides", map[string][]string{
		"token": {"This password reset token is invalid."},
	})

	ok, err := s.Tokens.Check(ctx, email, req.Token)
	if err != nil {
		return fmt.Errorf("failed to check reset token: %w", err)
	}
	if !ok {
		return invalidToken
	}

	hash, err := s.Hasher.Hash(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.Users.UpdatePassword(ctx, email, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalidToken
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.Tokens.Delete(ctx, email); err != nil {
		s.Logger.Printf("failed to consume reset token for %s: %v", email, err)
	}
	return nil
}

func validateResetRequest(req models.ResetPasswordRequest) *models.ErrorResponse {
	fieldErrors := map[string][]string{}

	if req.Email == "" {
		fieldErrors["email"] = append(fieldErrors["email"], "The email field is required.")
	}
	if req.Token == "" {
		fieldErrors["token"] = append(fieldErrors["token"], "The token field is required.")
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
