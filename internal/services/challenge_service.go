package services

import (
	"context"
	"database/sql"
	"strings"

	"codetech/internal/models"
	"codetech/internal/observability"
	"codetech/internal/services/mailer"
	contextutils "codetech/internal/utils"
)

// ChallengeServiceInterface defines friend challenge operations
type ChallengeServiceInterface interface {
	SendChallenge(ctx context.Context, sender *models.User, recipientEmail, message, quizType string) (*models.UserChallenge, error)
	ListChallengesFor(ctx context.Context, recipientEmail string) ([]models.UserChallenge, error)
}

// ChallengeService stores challenges and notifies their recipients
type ChallengeService struct {
	db     *sql.DB
	mailer mailer.Mailer
	logger *observability.Logger
}

// NewChallengeServiceWithLogger creates a ChallengeService. mailer may be nil.
func NewChallengeServiceWithLogger(db *sql.DB, m mailer.Mailer, logger *observability.Logger) *ChallengeService {
	return &ChallengeService{db: db, mailer: m, logger: logger}
}

// SendChallenge stores a challenge and e-mails the recipient. A failed
// notification is logged and does not fail the call.
func (s *ChallengeService) SendChallenge(ctx context.Context, sender *models.User, recipientEmail, message, quizType string) (result0 *models.UserChallenge, err error) {
	ctx, span := observability.TraceChallengeFunction(ctx, "send_challenge", observability.AttributeUserID(sender.ID))
	defer observability.FinishSpan(span, &err)

	recipientEmail = strings.TrimSpace(recipientEmail)
	if recipientEmail == "" {
		return nil, contextutils.WithMessage(contextutils.ErrMissingRequired, "Friend email is required")
	}

	challenge := &models.UserChallenge{
		SenderID:       sender.ID,
		RecipientEmail: recipientEmail,
		Message:        message,
		QuizType:       quizType,
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO user_challenges (sender_id, recipient_email, message, quiz_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		sender.ID, recipientEmail, message, quizType,
	).Scan(&challenge.ID, &challenge.CreatedAt)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to save challenge")
	}

	if s.mailer != nil && s.mailer.IsEnabled() {
		if mailErr := s.mailer.SendChallenge(ctx, sender, challenge); mailErr != nil {
			s.logger.Error(ctx, "Failed to send challenge notification", mailErr, map[string]interface{}{
				"challenge_id": challenge.ID,
				"recipient":    contextutils.MaskEmail(recipientEmail),
			})
		}
	}

	s.logger.Info(ctx, "Challenge sent", map[string]interface{}{
		"challenge_id": challenge.ID,
		"sender_id":    sender.ID,
	})
	return challenge, nil
}

// ListChallengesFor returns challenges addressed to an e-mail, ignoring case, newest first
func (s *ChallengeService) ListChallengesFor(ctx context.Context, recipientEmail string) (result0 []models.UserChallenge, err error) {
	ctx, span := observability.TraceChallengeFunction(ctx, "list_challenges")
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_id, recipient_email, message, quiz_type, created_at
		FROM user_challenges
		WHERE LOWER(recipient_email) = LOWER($1)
		ORDER BY created_at DESC, id DESC`, strings.TrimSpace(recipientEmail))
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list challenges")
	}
	defer rows.Close()

	challenges := []models.UserChallenge{}
	for rows.Next() {
		var c models.UserChallenge
		if err := rows.Scan(&c.ID, &c.SenderID, &c.RecipientEmail, &c.Message, &c.QuizType, &c.CreatedAt); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan challenge")
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate challenges")
	}
	return challenges, nil
}
