package services

import (
	"context"
	"sync"

	"codetech/internal/config"
	"codetech/internal/models"
	"codetech/internal/observability"
	contextutils "codetech/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// SentEmail is a message captured by TestEmailService
type SentEmail struct {
	To       string
	Subject  string
	Template string
	Body     string
}

// TestEmailService implements the Mailer interface for test mode.
// It renders every message but only logs and records it.
type TestEmailService struct {
	cfg    *config.Config
	logger *observability.Logger

	mu   sync.Mutex
	sent []SentEmail
}

// NewTestEmailService creates a new TestEmailService instance
func NewTestEmailService(cfg *config.Config, logger *observability.Logger) *TestEmailService {
	return &TestEmailService{
		cfg:    cfg,
		logger: logger,
	}
}

// SendChallenge records a challenge notification
func (e *TestEmailService) SendChallenge(ctx context.Context, sender *models.User, challenge *models.UserChallenge) (err error) {
	ctx, span := observability.TraceEmailFunction(ctx, "send_challenge",
		observability.AttributeUserID(sender.ID), attribute.Bool("test_mode", true))
	defer observability.FinishSpan(span, &err)

	return e.SendEmail(ctx, challenge.RecipientEmail, challengeSubject(sender), ChallengeTemplate,
		challengeData(e.cfg, sender, challenge))
}

// SendEmail renders the template and records the message instead of sending it
func (e *TestEmailService) SendEmail(ctx context.Context, to, subject, templateName string, data map[string]interface{}) error {
	body, err := generateEmailContent(templateName, data)
	if err != nil {
		return contextutils.WrapError(err, "failed to generate email content")
	}

	e.mu.Lock()
	e.sent = append(e.sent, SentEmail{To: to, Subject: subject, Template: templateName, Body: body})
	e.mu.Unlock()

	e.logger.Info(ctx, "TEST MODE: Would send email", map[string]interface{}{
		"to":        contextutils.MaskEmail(to),
		"subject":   subject,
		"template":  templateName,
		"test_mode": true,
	})
	return nil
}

// IsEnabled always returns true in test mode
func (e *TestEmailService) IsEnabled() bool {
	return true
}

// Sent returns a copy of the captured messages
func (e *TestEmailService) Sent() []SentEmail {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]SentEmail, len(e.sent))
	copy(out, e.sent)
	return out
}
