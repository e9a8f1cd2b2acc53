package services

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"codetech/internal/config"
	"codetech/internal/models"
	"codetech/internal/observability"
	"codetech/internal/services/mailer"
	contextutils "codetech/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/mail.v2"
)

// ChallengeTemplate is the template name of challenge notifications
const ChallengeTemplate = "challenge"

// EmailService implements mailer.Mailer over SMTP using gomail
type EmailService struct {
	cfg    *config.Config
	logger *observability.Logger
	dialer *mail.Dialer
}

// Ensure EmailService implements the Mailer interface
var _ mailer.Mailer = (*EmailService)(nil)

// NewEmailService creates a new EmailService instance
func NewEmailService(cfg *config.Config, logger *observability.Logger) *EmailService {
	var dialer *mail.Dialer
	if cfg.Email.Enabled && cfg.Email.SMTP.Host != "" {
		dialer = mail.NewDialer(
			cfg.Email.SMTP.Host,
			cfg.Email.SMTP.Port,
			cfg.Email.SMTP.Username,
			cfg.Email.SMTP.Password,
		)
	}

	return &EmailService{
		cfg:    cfg,
		logger: logger,
		dialer: dialer,
	}
}

// challengeData builds the template data of a challenge notification
func challengeData(cfg *config.Config, sender *models.User, challenge *models.UserChallenge) map[string]interface{} {
	senderName := sender.Name
	if senderName == "" {
		senderName = contextutils.DisplayNameFromEmail(sender.Email)
	}
	return map[string]interface{}{
		"SenderName":  senderName,
		"SenderEmail": sender.Email,
		"Message":     challenge.Message,
		"QuizType":    challenge.QuizType,
		"AppURL":      cfg.Server.AppBaseURL,
	}
}

// challengeSubject is the subject line of a challenge notification
func challengeSubject(sender *models.User) string {
	return fmt.Sprintf("%s challenged you on CodeTech!", contextutils.DisplayNameFromEmail(sender.Email))
}

// SendChallenge e-mails the recipient of a challenge
func (e *EmailService) SendChallenge(ctx context.Context, sender *models.User, challenge *models.UserChallenge) (err error) {
	ctx, span := observability.TraceEmailFunction(ctx, "send_challenge",
		observability.AttributeUserID(sender.ID))
	defer observability.FinishSpan(span, &err)

	if !e.IsEnabled() {
		e.logger.Debug(ctx, "Email disabled, skipping challenge notification", map[string]interface{}{
			"sender_id": sender.ID,
		})
		return nil
	}

	err = e.SendEmail(ctx, challenge.RecipientEmail, challengeSubject(sender), ChallengeTemplate,
		challengeData(e.cfg, sender, challenge))
	if err != nil {
		return contextutils.WrapError(err, "failed to send challenge notification")
	}
	return nil
}

// SendEmail sends a generic email with the given parameters
func (e *EmailService) SendEmail(ctx context.Context, to, subject, templateName string, data map[string]interface{}) (err error) {
	ctx, span := observability.TraceEmailFunction(ctx, "send_email",
		attribute.String("email.template", templateName),
	)
	defer observability.FinishSpan(span, &err)

	if !e.IsEnabled() {
		e.logger.Info(ctx, "Email disabled, skipping email send", map[string]interface{}{
			"to":       contextutils.MaskEmail(to),
			"template": templateName,
		})
		return nil
	}

	if e.dialer == nil {
		return contextutils.ErrorWithContextf("email service not properly configured")
	}

	m := mail.NewMessage()
	m.SetHeader("From", m.FormatAddress(e.cfg.Email.SMTP.FromAddress, e.cfg.Email.SMTP.FromName))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)

	content, err := generateEmailContent(templateName, data)
	if err != nil {
		return contextutils.WrapError(err, "failed to generate email content")
	}

	m.SetBody("text/html", content)

	if err = e.dialer.DialAndSend(m); err != nil {
		e.logger.Error(ctx, "Failed to send email", err, map[string]interface{}{
			"to":       contextutils.MaskEmail(to),
			"template": templateName,
		})
		return contextutils.WrapError(err, "failed to send email")
	}

	e.logger.Info(ctx, "Email sent successfully", map[string]interface{}{
		"to":       contextutils.MaskEmail(to),
		"template": templateName,
	})

	return nil
}

// IsEnabled returns whether email functionality is enabled
func (e *EmailService) IsEnabled() bool {
	return e.cfg.Email.Enabled && e.cfg.Email.SMTP.Host != ""
}

const challengeTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>New Quiz Challenge</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #6C5CE7; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
        .content { background-color: #f9f9f9; padding: 20px; }
        .button { display: inline-block; background-color: #6C5CE7; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px; margin: 20px 0; }
        .footer { background-color: #eee; padding: 15px; text-align: center; font-size: 12px; color: #666; border-radius: 0 0 5px 5px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>You have a new quiz challenge!</h1>
        </div>
        <div class="content">
            <p><strong>{{.SenderName}}</strong> ({{.SenderEmail}}) challenged you{{if .QuizType}} to a {{.QuizType}} quiz{{end}}.</p>
            {{if .Message}}<blockquote>{{.Message}}</blockquote>{{end}}
            {{if .AppURL}}<div style="text-align: center;">
                <a href="{{.AppURL}}" class="button">Accept the challenge</a>
            </div>{{end}}
        </div>
        <div class="footer">
            <p>This email was sent by CodeTech because a friend entered your address.</p>
        </div>
    </div>
</body>
</html>`

var emailTemplates = map[string]*template.Template{
	ChallengeTemplate: template.Must(template.New(ChallengeTemplate).Parse(challengeTemplate)),
}

// generateEmailContent renders a named template
func generateEmailContent(templateName string, data map[string]interface{}) (string, error) {
	tmpl, ok := emailTemplates[templateName]
	if !ok {
		return "", contextutils.ErrorWithContextf("unknown template: %s", templateName)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", contextutils.WrapError(err, "failed to execute template")
	}

	return buf.String(), nil
}
