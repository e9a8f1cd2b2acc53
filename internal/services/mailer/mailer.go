// Package mailer defines the e-mail interface used by the CodeTech services.
package mailer

import (
	"context"

	"codetech/internal/models"
)

// Mailer defines the interface for email sending functionality
type Mailer interface {
	// SendChallenge notifies the recipient of a challenge sent by sender
	SendChallenge(ctx context.Context, sender *models.User, challenge *models.UserChallenge) error

	// SendEmail sends a generic email with the given parameters
	SendEmail(ctx context.Context, to, subject, templateName string, data map[string]interface{}) error

	// IsEnabled returns whether email functionality is enabled
	IsEnabled() bool
}
