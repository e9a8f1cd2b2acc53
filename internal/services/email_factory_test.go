package services

import (
	"testing"

	"codetech/internal/config"
	"codetech/internal/observability"

	"github.com/stretchr/testify/assert"
)

func TestCreateEmailService_TestMode(t *testing.T) {
	cfg := &config.Config{
		IsTest: true,
	}
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})

	service := CreateEmailService(cfg, logger)

	assert.IsType(t, &TestEmailService{}, service)
	assert.True(t, service.IsEnabled())
}

func TestCreateEmailService_ProductionMode(t *testing.T) {
	cfg := &config.Config{
		IsTest: false,
		Email: config.EmailConfig{
			Enabled: true,
			SMTP: config.SMTPConfig{
				Host: "smtp.example.com",
			},
		},
	}
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})

	service := CreateEmailService(cfg, logger)

	assert.IsType(t, &EmailService{}, service)
	assert.True(t, service.IsEnabled())
}
