package mailer

import (
	"context"
	"log"
)

// Mailer delivers password-reset links. Mail transport is an external
// collaborator; this interface keeps the reset flow decoupled from it.
type Mailer interface {
	SendPasswordResetLink(ctx context.Context, email, link string) error
}

// LogMailer writes the reset link to the application log. Used in deployments
// without an outbound mail relay and in tests.
type LogMailer struct {
	Logger *log.Logger
}

// SendPasswordResetLink logs the link instead of mailing it.
func (m *LogMailer) SendPasswordResetLink(_ context.Context, email, link string) error {
	m.Logger.Printf("password reset link for %s: %s", email, link)
	return nil
}
