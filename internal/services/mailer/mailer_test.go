package mailer

import (
	"context"
	"testing"

	"codetech/internal/models"

	"github.com/stretchr/testify/assert"
)

// MockMailer implements Mailer for testing
type MockMailer struct {
	SendChallengeCalled bool
	SendEmailCalled     bool
	IsEnabledResult     bool
}

func (m *MockMailer) SendChallenge(_ context.Context, _ *models.User, _ *models.UserChallenge) error {
	m.SendChallengeCalled = true
	return nil
}

func (m *MockMailer) SendEmail(_ context.Context, _, _, _ string, _ map[string]interface{}) error {
	m.SendEmailCalled = true
	return nil
}

func (m *MockMailer) IsEnabled() bool {
	return m.IsEnabledResult
}

func TestMailerInterface_Implementation(t *testing.T) {
	var _ Mailer = (*MockMailer)(nil)

	mock := &MockMailer{IsEnabledResult: true}
	ctx := context.Background()

	err := mock.SendChallenge(ctx, &models.User{ID: 1, Email: "ada@example.com"}, &models.UserChallenge{RecipientEmail: "bob@example.com"})
	assert.NoError(t, err)
	assert.True(t, mock.SendChallengeCalled)

	err = mock.SendEmail(ctx, "test@example.com", "Test Subject", "challenge", map[string]interface{}{})
	assert.NoError(t, err)
	assert.True(t, mock.SendEmailCalled)

	assert.True(t, mock.IsEnabled())
}
