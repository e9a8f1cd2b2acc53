package contextutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected string
	}{
		{name: "empty", email: "", expected: "[EMPTY]"},
		{name: "no at sign", email: "abc", expected: "***"},
		{name: "short local part", email: "ab@x.io", expected: "**@x.io"},
		{name: "regular", email: "john.doe@example.com", expected: "j******e@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskEmail(tt.email))
		})
	}
}

func TestDisplayNameFromEmail(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"john.doe@example.com", "John Doe"},
		{"alice@example.com", "Alice"},
		{"ADMINibra@gmail.com", "Adminibra"},
		{"bob2x.smith@example.com", "Bob2X Smith"},
		{"no-at-sign", "No-At-Sign"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.expected, DisplayNameFromEmail(tt.email))
		})
	}
}
