package oplog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/mediakit/pkg/alert"
	"github.com/dmitrymomot/mediakit/pkg/logger"
)

// criticalOperations always trigger an administrator notification when
// they fail, regardless of the notifyAdmins flag.
var criticalOperations = map[string]struct{}{
	"directory_creation_failed":      {},
	"file_upload_security_violation": {},
	"file_cleanup_failed":            {},
	"disk_space_critical":            {},
	"permission_denied":              {},
}

// Event describes a single file operation for statistics aggregation.
type Event struct {
	Operation string
	UserID    int64
	Path      string
	Size      int64
	Success   bool
}

// Recorder aggregates operation events into operational statistics.
// Implementations must be safe for concurrent use.
type Recorder interface {
	RecordOperation(ctx context.Context, e Event)
	RecordError(ctx context.Context, e Event, errMsg string)
}

// Logger writes structured audit records for file storage operations.
type Logger struct {
	log      *slog.Logger
	recorder Recorder
	notifier alert.Notifier
}

// Option configures a Logger.
type Option func(*Logger)

// WithRecorder attaches a statistics recorder. Nil recorders are ignored.
func WithRecorder(r Recorder) Option {
	return func(l *Logger) {
		if r != nil {
			l.recorder = r
		}
	}
}

// WithNotifier attaches an administrator alert channel. Nil notifiers
// are ignored.
func WithNotifier(n alert.Notifier) Option {
	return func(l *Logger) {
		if n != nil {
			l.notifier = n
		}
	}
}

// New creates an operation logger writing to log. A nil log falls back
// to slog.Default.
func New(log *slog.Logger, opts ...Option) *Logger {
	if log == nil {
		log = slog.Default()
	}
	l := &Logger{log: log}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DirectoryCreated records a successful directory creation.
func (l *Logger) DirectoryCreated(ctx context.Context, path string, userID int64, opContext string) {
	l.log.InfoContext(ctx, "directory created",
		logger.Operation("directory_created"),
		logger.FilePath(path),
		logger.UserID(userID),
		slog.String("context", opContext),
	)
	l.record(ctx, Event{Operation: "directory_creation", UserID: userID, Path: path, Success: true})
}

// FileUploaded records a successful file upload.
func (l *Logger) FileUploaded(ctx context.Context, path string, userID int64, size int64, fileType string) {
	l.log.InfoContext(ctx, "file uploaded",
		logger.Operation("file_uploaded"),
		logger.FilePath(path),
		logger.UserID(userID),
		logger.FileSize(size),
		slog.String("file_type", fileType),
	)
	l.record(ctx, Event{Operation: "file_upload", UserID: userID, Path: path, Size: size, Success: true})
}

// FileDeleted records a successful file deletion.
func (l *Logger) FileDeleted(ctx context.Context, path string, userID int64, opContext string) {
	l.log.InfoContext(ctx, "file deleted",
		logger.Operation("file_deleted"),
		logger.FilePath(path),
		logger.UserID(userID),
		slog.String("context", opContext),
	)
	l.record(ctx, Event{Operation: "file_deletion", UserID: userID, Path: path, Success: true})
}

// Error records a failed operation. Administrators are notified when
// notifyAdmins is set or the operation is in the critical set.
func (l *Logger) Error(ctx context.Context, operation string, err error, path string, userID int64, notifyAdmins bool) {
	l.log.ErrorContext(ctx, "file operation failed",
		logger.Operation(operation),
		logger.Error(err),
		logger.FilePath(path),
		logger.UserID(userID),
	)

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	if l.recorder != nil {
		l.recorder.RecordError(ctx, Event{Operation: operation, UserID: userID, Path: path}, errMsg)
	}

	if _, critical := criticalOperations[operation]; notifyAdmins || critical {
		l.notify(ctx, alert.Alert{
			Category:  alert.CategoryCriticalError,
			Operation: operation,
			Message:   errMsg,
			Details: map[string]string{
				"path":    path,
				"user_id": fmt.Sprintf("%d", userID),
			},
			Timestamp: time.Now(),
		})
	}
}

// SecurityViolation records a security violation. Administrators are
// always notified.
func (l *Logger) SecurityViolation(ctx context.Context, violationType, path string, userID int64, ipAddress, details string) {
	l.log.WarnContext(ctx, "security violation",
		logger.Operation("security_violation"),
		slog.String("violation_type", violationType),
		logger.FilePath(path),
		logger.UserID(userID),
		slog.String("ip_address", ipAddress),
		slog.String("details", details),
	)
	if l.recorder != nil {
		l.recorder.RecordError(ctx, Event{Operation: violationType, UserID: userID, Path: path}, details)
	}

	l.notify(ctx, alert.Alert{
		Category:  alert.CategorySecurityViolation,
		Operation: violationType,
		Message:   details,
		Details: map[string]string{
			"path":       path,
			"user_id":    fmt.Sprintf("%d", userID),
			"ip_address": ipAddress,
		},
		Timestamp: time.Now(),
	})
}

// DiskSpaceWarning records a low-disk-space condition. Administrators
// are notified when available space falls below half the threshold.
func (l *Logger) DiskSpaceWarning(ctx context.Context, path string, availableBytes, thresholdBytes int64) {
	l.log.WarnContext(ctx, "low disk space",
		logger.Operation("disk_space_warning"),
		logger.FilePath(path),
		slog.Int64("available_bytes", availableBytes),
		slog.Int64("threshold_bytes", thresholdBytes),
	)

	if availableBytes < thresholdBytes/2 {
		l.notify(ctx, alert.Alert{
			Category:  alert.CategoryDiskSpace,
			Operation: "disk_space_critical",
			Message:   "available disk space below half the configured threshold",
			Details: map[string]string{
				"path":            path,
				"available_bytes": fmt.Sprintf("%d", availableBytes),
				"threshold_bytes": fmt.Sprintf("%d", thresholdBytes),
			},
			Timestamp: time.Now(),
		})
	}
}

func (l *Logger) record(ctx context.Context, e Event) {
	if l.recorder != nil {
		l.recorder.RecordOperation(ctx, e)
	}
}

// notify delivers an alert, swallowing delivery errors so the logged
// operation never fails because of a broken alert channel.
func (l *Logger) notify(ctx context.Context, a alert.Alert) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.Notify(ctx, a); err != nil {
		l.log.ErrorContext(ctx, "failed to send admin notification",
			logger.Error(err),
			slog.String("category", string(a.Category)),
		)
	}
}
