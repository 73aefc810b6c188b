package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLine(t *testing.T) {
	t.Run("renders key value pairs", func(t *testing.T) {
		out := logLine("Registered account", []any{"user_id", "abc-123", "email", "dj@station.fm"})
		assert.Equal(t, "Registered account user_id=abc-123 email=dj@station.fm", out)
	})

	t.Run("no args leaves message untouched", func(t *testing.T) {
		assert.Equal(t, "token rejected", logLine("token rejected", nil))
	})

	t.Run("odd trailing arg is appended as-is", func(t *testing.T) {
		out := logLine("update failed", []any{"user_id", "abc-123", "dangling"})
		assert.Equal(t, "update failed user_id=abc-123 dangling", out)
	})

	t.Run("non-string values are formatted", func(t *testing.T) {
		out := logLine("listing", []any{"page", 2, "limit", 50})
		assert.Equal(t, "listing page=2 limit=50", out)
	})
}
