package alert

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Category classifies an alert and selects its subject/body template.
type Category string

const (
	// CategoryCriticalError covers unrecoverable file system errors
	// (failed directory creation, failed cleanup, OS-level failures).
	CategoryCriticalError Category = "critical_error"
	// CategorySecurityViolation covers rejected traversal attempts,
	// executable uploads and unauthorized upload attempts.
	CategorySecurityViolation Category = "security_violation"
	// CategoryDiskSpace covers low-disk-space conditions.
	CategoryDiskSpace Category = "disk_space"
	// CategoryAnomaly covers operational anomalies detected by the
	// monitor (suspicious file types, abnormal operation rates).
	CategoryAnomaly Category = "anomaly"
)

// Alert is a single administrator notification.
type Alert struct {
	Category  Category
	Operation string
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Notifier delivers alerts to administrators. Implementations must be
// safe for concurrent use. Callers treat delivery as best-effort and
// must not fail their own operation when Notify returns an error.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// Subject renders the alert's email subject line.
func (a Alert) Subject(appName string) string {
	var title string
	switch a.Category {
	case CategorySecurityViolation:
		title = "SECURITY ALERT"
	case CategoryDiskSpace:
		title = "CRITICAL: Low Disk Space"
	case CategoryAnomaly:
		title = "File Operation Anomaly"
	default:
		title = "Critical File System Error"
	}
	if a.Operation == "" {
		return fmt.Sprintf("[%s] %s", appName, title)
	}
	return fmt.Sprintf("[%s] %s: %s", appName, title, a.Operation)
}

// Body renders the alert's plain-text email body. Detail keys are
// sorted so repeated alerts produce identical text.
func (a Alert) Body() string {
	var b strings.Builder

	switch a.Category {
	case CategorySecurityViolation:
		b.WriteString("SECURITY VIOLATION DETECTED:\n\n")
	case CategoryDiskSpace:
		b.WriteString("CRITICAL DISK SPACE WARNING:\n\n")
	case CategoryAnomaly:
		b.WriteString("File operation anomaly detected:\n\n")
	default:
		b.WriteString("Critical file system error occurred:\n\n")
	}

	if a.Operation != "" {
		fmt.Fprintf(&b, "Operation: %s\n", a.Operation)
	}
	if a.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", a.Message)
	}

	keys := make([]string, 0, len(a.Details))
	for k := range a.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, a.Details[k])
	}

	ts := a.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	fmt.Fprintf(&b, "Timestamp: %s\n", ts.Format(time.RFC3339))

	switch a.Category {
	case CategorySecurityViolation, CategoryCriticalError:
		b.WriteString("\nIMMEDIATE ACTION REQUIRED!\n")
	case CategoryDiskSpace:
		b.WriteString("\nPlease free up disk space immediately to prevent system failures.\n")
	default:
		b.WriteString("\nPlease investigate this activity.\n")
	}
	return b.String()
}
