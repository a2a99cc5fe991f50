package alert_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mediakit/pkg/alert"
)

func TestAlertSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		alert    alert.Alert
		expected string
	}{
		{
			name:     "security violation with operation",
			alert:    alert.Alert{Category: alert.CategorySecurityViolation, Operation: "file_upload"},
			expected: "[TranslationHub] SECURITY ALERT: file_upload",
		},
		{
			name:     "disk space without operation",
			alert:    alert.Alert{Category: alert.CategoryDiskSpace},
			expected: "[TranslationHub] CRITICAL: Low Disk Space",
		},
		{
			name:     "anomaly",
			alert:    alert.Alert{Category: alert.CategoryAnomaly, Operation: "high_operation_rate"},
			expected: "[TranslationHub] File Operation Anomaly: high_operation_rate",
		},
		{
			name:     "critical error",
			alert:    alert.Alert{Category: alert.CategoryCriticalError, Operation: "directory_creation"},
			expected: "[TranslationHub] Critical File System Error: directory_creation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.alert.Subject("TranslationHub"))
		})
	}
}

func TestAlertBody(t *testing.T) {
	t.Parallel()

	t.Run("details are sorted and timestamp rendered", func(t *testing.T) {
		t.Parallel()

		ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		a := alert.Alert{
			Category:  alert.CategorySecurityViolation,
			Operation: "file_upload",
			Message:   "path traversal attempt",
			Details: map[string]string{
				"user_id": "42",
				"path":    "../../etc/passwd",
			},
			Timestamp: ts,
		}

		body := a.Body()
		assert.Contains(t, body, "SECURITY VIOLATION DETECTED:")
		assert.Contains(t, body, "Operation: file_upload")
		assert.Contains(t, body, "Timestamp: 2025-06-01T12:00:00Z")
		assert.Contains(t, body, "IMMEDIATE ACTION REQUIRED!")
		// Sorted detail keys: path before user_id.
		assert.Less(t, strings.Index(body, "path:"), strings.Index(body, "user_id:"))
	})

	t.Run("body is deterministic across renders", func(t *testing.T) {
		t.Parallel()

		a := alert.Alert{
			Category:  alert.CategoryAnomaly,
			Message:   "suspicious file type",
			Details:   map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"},
			Timestamp: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		}
		first := a.Body()
		for range 10 {
			assert.Equal(t, first, a.Body())
		}
	})
}

func TestNewPostmarkNotifier(t *testing.T) {
	t.Parallel()

	valid := alert.Config{
		PostmarkServerToken:  "server-token",
		PostmarkAccountToken: "account-token",
		SenderEmail:          "alerts@example.com",
		AdminEmail:           "admin@example.com",
	}

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()
		n, err := alert.NewPostmarkNotifier(valid)
		require.NoError(t, err)
		require.NotNil(t, n)
	})

	t.Run("missing server token", func(t *testing.T) {
		t.Parallel()
		cfg := valid
		cfg.PostmarkServerToken = ""
		_, err := alert.NewPostmarkNotifier(cfg)
		require.ErrorIs(t, err, alert.ErrInvalidConfig)
	})

	t.Run("invalid sender email", func(t *testing.T) {
		t.Parallel()
		cfg := valid
		cfg.SenderEmail = "not-an-email"
		_, err := alert.NewPostmarkNotifier(cfg)
		require.ErrorIs(t, err, alert.ErrInvalidConfig)
	})

	t.Run("missing admin email", func(t *testing.T) {
		t.Parallel()
		cfg := valid
		cfg.AdminEmail = ""
		_, err := alert.NewPostmarkNotifier(cfg)
		require.ErrorIs(t, err, alert.ErrInvalidConfig)
	})
}

func TestLogNotifier(t *testing.T) {
	t.Parallel()

	t.Run("writes alert fields to logger", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&buf, nil))
		n := alert.NewLogNotifier(log)

		err := n.Notify(context.Background(), alert.Alert{
			Category:  alert.CategoryDiskSpace,
			Operation: "disk_space_check",
			Message:   "available space below threshold",
			Details:   map[string]string{"available_mb": "87"},
			Timestamp: time.Now(),
		})
		require.NoError(t, err)

		out := buf.String()
		assert.Contains(t, out, "disk_space")
		assert.Contains(t, out, "disk_space_check")
		assert.Contains(t, out, "available space below threshold")
		assert.Contains(t, out, "87")
	})

	t.Run("rejects empty alert", func(t *testing.T) {
		t.Parallel()

		n := alert.NewLogNotifier(nil)
		err := n.Notify(context.Background(), alert.Alert{})
		require.ErrorIs(t, err, alert.ErrEmptyAlert)
	})
}
