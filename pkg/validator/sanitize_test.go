package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_SizeLimit(t *testing.T) {
	limit := DefaultMaxInputSize

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sanitize(strings.Repeat("a", tt.inputSize))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInputTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitize_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "Is it raining?", "Is it raining?"},
		{"Line Breaks Folded", "Is it\nraining?\t", "Is it raining? "},
		{"ANSI Code", "\x1b[31mIs it red?", "[31mIs it red?"},
		{"Null Byte", "Is\x00 it", "Is it"},
		{"Bell", "Ding\x07", "Ding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sanitize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitize_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "10")

	_, err := Sanitize("12345678901")
	assert.ErrorIs(t, err, ErrInputTooLarge)

	_, err = Sanitize("12345")
	assert.NoError(t, err)
}

func TestSanitizeWithLimit_ExplicitLimit(t *testing.T) {
	_, err := SanitizeWithLimit("is it?", 3)
	assert.ErrorIs(t, err, ErrInputTooLarge)

	got, err := SanitizeWithLimit("is it?", 0)
	require.NoError(t, err)
	assert.Equal(t, "is it?", got)
}

func TestSanitize_InvalidUTF8(t *testing.T) {
	_, err := Sanitize("\xbd\xb2\x3d\xbc\x20\xe2\x8c\x98")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}
