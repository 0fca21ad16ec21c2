package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo)

	logger.Info("audio", "error", errors.New("no device"))
	logger.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, `err="no device"`)
	assert.NotContains(t, out, "error=")
	assert.NotContains(t, out, "hidden")
}

func TestForSession(t *testing.T) {
	var buf bytes.Buffer
	ForSession(NewWithWriter(&buf, slog.LevelInfo), "abc").Info("ready")
	assert.Contains(t, buf.String(), "session_id=abc")
}

func TestNewNop(t *testing.T) {
	assert.NotPanics(t, func() { NewNop().Error("nothing") })
}
