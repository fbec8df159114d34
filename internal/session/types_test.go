package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionSerialization(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	stopped := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	t.Run("serializes all fields", func(t *testing.T) {
		s := Session{
			ID:         "test-session-1",
			Name:       "server.debug",
			Kind:       KindDebug,
			Mode:       "debug",
			PID:        4242,
			Program:    "/work/bin/linux_amd64/debug/server/server",
			Dir:        "/work/bin/linux_amd64/debug/server",
			Args:       []string{"--port", "8080"},
			Status:     StatusStopped,
			StartedAt:  now,
			StoppedAt:  &stopped,
			ExitReason: "terminated",
		}

		data, err := json.Marshal(s)
		require.NoError(t, err)

		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))

		assert.Equal(t, "test-session-1", m["id"])
		assert.Equal(t, "server.debug", m["name"])
		assert.Equal(t, "debug", m["kind"])
		assert.Equal(t, float64(4242), m["pid"])
		assert.Equal(t, "terminated", m["exit_reason"])
		assert.NotEmpty(t, m["stopped_at"])
	})

	t.Run("omitempty omits zero-value optional fields", func(t *testing.T) {
		s := Session{
			ID:        "test-session-2",
			Name:      "worker.release",
			Kind:      KindRun,
			Status:    StatusRunning,
			StartedAt: now,
		}

		data, err := json.Marshal(s)
		require.NoError(t, err)

		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))

		assert.NotContains(t, m, "args")
		assert.NotContains(t, m, "stopped_at")
		assert.NotContains(t, m, "exit_reason")
	})
}

func TestMarkStopped(t *testing.T) {
	s := &Session{Status: StatusRunning}
	assert.True(t, s.Running())

	at := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	s.MarkStopped("exited", at)

	assert.False(t, s.Running())
	require.NotNil(t, s.StoppedAt)
	assert.Equal(t, at, *s.StoppedAt)
	assert.Equal(t, "exited", s.ExitReason)
}
