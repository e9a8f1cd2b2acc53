//go:build test

package config

// Test data constants - only available during testing
const (
	TestUserID    = 123
	TestAdminID   = 1
	TestJWTSecret = "test-secret-at-least-16-bytes"
)
