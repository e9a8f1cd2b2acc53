package services

import (
	"context"
	"errors"
	"testing"

	"codetech/internal/models"
	"codetech/internal/observability"
	contextutils "codetech/internal/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestChallengeService_SendChallenge(t *testing.T) {
	sender := &models.User{ID: 5, Email: "jane.doe@example.com"}

	tests := []struct {
		name    string
		enabled bool
		mailErr error
	}{
		{name: "notification sent", enabled: true},
		{name: "notification failure is not fatal", enabled: true, mailErr: errors.New("smtp timeout")},
		{name: "mail disabled", enabled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, sqlMock := newMockDB(t)
			sqlMock.ExpectQuery("INSERT INTO user_challenges").
				WithArgs(5, "friend@example.com", "Beat my score", "python").
				WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(3, fixedNow()))

			m := &MockMailer{}
			m.On("IsEnabled").Return(tt.enabled)
			if tt.enabled {
				m.On("SendChallenge", mock.Anything, sender, mock.MatchedBy(func(c *models.UserChallenge) bool {
					return c.ID == 3 && c.RecipientEmail == "friend@example.com"
				})).Return(tt.mailErr).Once()
			}

			service := NewChallengeServiceWithLogger(db, m, observability.NewNopLogger())
			challenge, err := service.SendChallenge(context.Background(), sender, " friend@example.com ", "Beat my score", "python")
			require.NoError(t, err)
			assert.Equal(t, 3, challenge.ID)
			assert.Equal(t, 5, challenge.SenderID)
			m.AssertExpectations(t)
		})
	}
}

func TestChallengeService_SendChallenge_RequiresRecipient(t *testing.T) {
	service := NewChallengeServiceWithLogger(nil, nil, observability.NewNopLogger())
	_, err := service.SendChallenge(context.Background(), &models.User{ID: 5}, "  ", "", "")

	var appErr *contextutils.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Friend email is required", appErr.Message)
}

func TestChallengeService_ListChallengesFor(t *testing.T) {
	db, sqlMock := newMockDB(t)
	sqlMock.ExpectQuery("WHERE LOWER\\(recipient_email\\) = LOWER\\(\\$1\\)").
		WithArgs("Friend@Example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sender_id", "recipient_email", "message", "quiz_type", "created_at"}).
			AddRow(3, 5, "friend@example.com", "Beat my score", "python", fixedNow()))

	service := NewChallengeServiceWithLogger(db, nil, observability.NewNopLogger())
	challenges, err := service.ListChallengesFor(context.Background(), "Friend@Example.com")
	require.NoError(t, err)
	require.Len(t, challenges, 1)
	assert.Equal(t, "python", challenges[0].QuizType)
}
