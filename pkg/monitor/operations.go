package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/mediakit/pkg/alert"
	"github.com/dmitrymomot/mediakit/pkg/logger"
	"github.com/dmitrymomot/mediakit/pkg/oplog"
)

// Ring capacities for recent operation and error records.
const (
	recentOperationsLimit = 100
	recentErrorsLimit     = 50
)

// criticalErrorTypes always escalate to an administrator alert.
var criticalErrorTypes = map[string]struct{}{
	"permission_denied":  {},
	"disk_full":          {},
	"security_violation": {},
	"data_corruption":    {},
}

// Thresholds configure anomaly detection.
type Thresholds struct {
	MaxOperationsPerMinute int
	MaxFileSizeBytes       int64
	MaxErrorsPerHour       int
	SuspiciousExtensions   []string
}

// DefaultThresholds returns the standard anomaly thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxOperationsPerMinute: 100,
		MaxFileSizeBytes:       50 * 1024 * 1024,
		MaxErrorsPerHour:       10,
		SuspiciousExtensions:   []string{".exe", ".bat", ".cmd", ".scr"},
	}
}

// OperationRecord is one entry in an operation type's recent ring.
type OperationRecord struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    int64     `json:"user_id,omitempty"`
	Path      string    `json:"path,omitempty"`
	Size      int64     `json:"size"`
	Success   bool      `json:"success"`
}

// ErrorRecord is one entry in an error type's recent ring.
type ErrorRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	UserID    int64     `json:"user_id,omitempty"`
	Path      string    `json:"path,omitempty"`
}

// OperationStats are the running totals for one operation type.
type OperationStats struct {
	TotalCount     int64             `json:"total_count"`
	SuccessCount   int64             `json:"success_count"`
	ErrorCount     int64             `json:"error_count"`
	TotalSizeBytes int64             `json:"total_size_bytes"`
	Recent         []OperationRecord `json:"recent"`
}

// ErrorStats are the running totals for one error type.
type ErrorStats struct {
	Count  int64         `json:"count"`
	Recent []ErrorRecord `json:"recent"`
}

// Statistics is a point-in-time copy of all operation and error
// counters.
type Statistics struct {
	Timestamp  time.Time                 `json:"timestamp"`
	Operations map[string]OperationStats `json:"operations"`
	Errors     map[string]ErrorStats     `json:"errors"`
	Thresholds Thresholds                `json:"thresholds"`
}

// OperationMonitor tracks file operation statistics and raises alerts
// on anomalous activity. It implements oplog.Recorder, so it plugs
// directly into an oplog.Logger. Counters live in process memory;
// attach a StatsStore to additionally persist running totals.
type OperationMonitor struct {
	log        *slog.Logger
	notifier   alert.Notifier
	store      StatsStore
	thresholds Thresholds

	mu   sync.Mutex
	ops  map[string]*OperationStats
	errs map[string]*ErrorStats
}

// MonitorOption configures an OperationMonitor.
type MonitorOption func(*OperationMonitor)

// WithAlertNotifier attaches the administrator alert channel. Nil
// notifiers are ignored.
func WithAlertNotifier(n alert.Notifier) MonitorOption {
	return func(m *OperationMonitor) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithStatsStore attaches a persistent counter store. Nil stores are
// ignored.
func WithStatsStore(s StatsStore) MonitorOption {
	return func(m *OperationMonitor) {
		if s != nil {
			m.store = s
		}
	}
}

// WithThresholds overrides the anomaly detection thresholds.
func WithThresholds(t Thresholds) MonitorOption {
	return func(m *OperationMonitor) { m.thresholds = t }
}

// NewOperationMonitor creates a monitor writing diagnostics to log. A
// nil log falls back to slog.Default.
func NewOperationMonitor(log *slog.Logger, opts ...MonitorOption) *OperationMonitor {
	if log == nil {
		log = slog.Default()
	}
	m := &OperationMonitor{
		log:        log,
		thresholds: DefaultThresholds(),
		ops:        make(map[string]*OperationStats),
		errs:       make(map[string]*ErrorStats),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RecordOperation updates the counters for one file operation and
// runs anomaly checks against it.
func (m *OperationMonitor) RecordOperation(ctx context.Context, e oplog.Event) {
	rec := OperationRecord{
		Timestamp: time.Now(),
		UserID:    e.UserID,
		Path:      e.Path,
		Size:      e.Size,
		Success:   e.Success,
	}

	m.mu.Lock()
	stats, ok := m.ops[e.Operation]
	if !ok {
		stats = &OperationStats{}
		m.ops[e.Operation] = stats
	}
	stats.TotalCount++
	if e.Success {
		stats.SuccessCount++
	} else {
		stats.ErrorCount++
	}
	stats.TotalSizeBytes += e.Size
	stats.Recent = append(stats.Recent, rec)
	if len(stats.Recent) > recentOperationsLimit {
		stats.Recent = stats.Recent[len(stats.Recent)-recentOperationsLimit:]
	}
	lastMinute := m.countRecentLocked(e.Operation, time.Minute)
	m.mu.Unlock()

	observeOperation(e.Operation, e.Success, e.Size)

	if m.store != nil {
		if err := m.store.IncrOperation(ctx, e.Operation, e.Success, e.Size); err != nil {
			m.log.WarnContext(ctx, "failed to persist operation counters",
				logger.Operation(e.Operation), logger.Error(err))
		}
	}

	m.checkAnomalies(ctx, e.Operation, rec, lastMinute)
}

// RecordError updates the counters for one failed operation and runs
// critical error checks against it. The event's Operation field names
// the error type.
func (m *OperationMonitor) RecordError(ctx context.Context, e oplog.Event, errMsg string) {
	rec := ErrorRecord{
		Timestamp: time.Now(),
		Message:   errMsg,
		UserID:    e.UserID,
		Path:      e.Path,
	}

	m.mu.Lock()
	stats, ok := m.errs[e.Operation]
	if !ok {
		stats = &ErrorStats{}
		m.errs[e.Operation] = stats
	}
	stats.Count++
	stats.Recent = append(stats.Recent, rec)
	if len(stats.Recent) > recentErrorsLimit {
		stats.Recent = stats.Recent[len(stats.Recent)-recentErrorsLimit:]
	}
	lastHour := m.countRecentErrorsLocked(e.Operation, time.Hour)
	m.mu.Unlock()

	observeError(e.Operation)

	if m.store != nil {
		if err := m.store.IncrError(ctx, e.Operation); err != nil {
			m.log.WarnContext(ctx, "failed to persist error counters",
				logger.Operation(e.Operation), logger.Error(err))
		}
	}

	if _, critical := criticalErrorTypes[e.Operation]; critical {
		m.criticalAlert(ctx, e.Operation, rec)
	}
	if lastHour > m.thresholds.MaxErrorsPerHour {
		m.criticalAlert(ctx, "high_error_frequency", ErrorRecord{
			Timestamp: rec.Timestamp,
			Message:   fmt.Sprintf("%d %s errors in the last hour", lastHour, e.Operation),
			UserID:    rec.UserID,
			Path:      rec.Path,
		})
	}
}

// Statistics returns a copy of all counters and recent records.
func (m *OperationMonitor) Statistics() Statistics {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Statistics{
		Timestamp:  time.Now(),
		Operations: make(map[string]OperationStats, len(m.ops)),
		Errors:     make(map[string]ErrorStats, len(m.errs)),
		Thresholds: m.thresholds,
	}
	for op, stats := range m.ops {
		cp := *stats
		cp.Recent = append([]OperationRecord(nil), stats.Recent...)
		s.Operations[op] = cp
	}
	for et, stats := range m.errs {
		cp := *stats
		cp.Recent = append([]ErrorRecord(nil), stats.Recent...)
		s.Errors[et] = cp
	}
	return s
}

// StoredCounts reads the persisted running totals from the attached
// StatsStore. Returns nil maps when no store is attached.
func (m *OperationMonitor) StoredCounts(ctx context.Context) (map[string]OperationCounts, map[string]int64, error) {
	if m.store == nil {
		return nil, nil, nil
	}
	ops, err := m.store.OperationCounts(ctx)
	if err != nil {
		return nil, nil, err
	}
	errs, err := m.store.ErrorCounts(ctx)
	if err != nil {
		return nil, nil, err
	}
	return ops, errs, nil
}

func (m *OperationMonitor) countRecentLocked(op string, window time.Duration) int {
	cutoff := time.Now().Add(-window)
	n := 0
	for _, r := range m.ops[op].Recent {
		if r.Timestamp.After(cutoff) {
			n++
		}
	}
	return n
}

func (m *OperationMonitor) countRecentErrorsLocked(et string, window time.Duration) int {
	cutoff := time.Now().Add(-window)
	n := 0
	for _, r := range m.errs[et].Recent {
		if r.Timestamp.After(cutoff) {
			n++
		}
	}
	return n
}

func (m *OperationMonitor) checkAnomalies(ctx context.Context, op string, rec OperationRecord, lastMinute int) {
	if rec.Size > m.thresholds.MaxFileSizeBytes {
		m.anomaly(ctx, "large_file_upload",
			fmt.Sprintf("large file uploaded: %.2fMB", float64(rec.Size)/(1024*1024)), rec)
	}

	lowerPath := strings.ToLower(rec.Path)
	for _, ext := range m.thresholds.SuspiciousExtensions {
		if strings.HasSuffix(lowerPath, ext) {
			m.anomaly(ctx, "suspicious_file_type",
				"suspicious file type uploaded: "+rec.Path, rec)
			break
		}
	}

	if lastMinute > m.thresholds.MaxOperationsPerMinute {
		m.anomaly(ctx, "high_operation_frequency",
			fmt.Sprintf("%d %s operations in the last minute", lastMinute, op), rec)
	}
}

// anomaly logs every anomaly; only suspicious file types and abnormal
// operation rates escalate to an administrator email.
func (m *OperationMonitor) anomaly(ctx context.Context, anomalyType, msg string, rec OperationRecord) {
	m.log.WarnContext(ctx, "file operation anomaly detected",
		slog.String("anomaly_type", anomalyType),
		slog.String("message", msg),
		logger.UserID(rec.UserID),
		logger.FilePath(rec.Path),
		logger.FileSize(rec.Size),
	)

	if m.notifier == nil {
		return
	}
	if anomalyType != "suspicious_file_type" && anomalyType != "high_operation_frequency" {
		return
	}

	a := alert.Alert{
		Category:  alert.CategoryAnomaly,
		Operation: anomalyType,
		Message:   msg,
		Details: map[string]string{
			"user_id":   strconv.FormatInt(rec.UserID, 10),
			"file_path": rec.Path,
			"file_size": strconv.FormatInt(rec.Size, 10),
		},
		Timestamp: rec.Timestamp,
	}
	if err := m.notifier.Notify(ctx, a); err != nil {
		m.log.ErrorContext(ctx, "failed to send anomaly alert", logger.Error(err))
	}
}

func (m *OperationMonitor) criticalAlert(ctx context.Context, errType string, rec ErrorRecord) {
	m.log.ErrorContext(ctx, "critical file operation error",
		slog.String("error_type", errType),
		slog.String("message", rec.Message),
		logger.UserID(rec.UserID),
		logger.FilePath(rec.Path),
	)

	if m.notifier == nil {
		return
	}
	a := alert.Alert{
		Category:  alert.CategoryCriticalError,
		Operation: errType,
		Message:   rec.Message,
		Details: map[string]string{
			"user_id":   strconv.FormatInt(rec.UserID, 10),
			"file_path": rec.Path,
		},
		Timestamp: rec.Timestamp,
	}
	if err := m.notifier.Notify(ctx, a); err != nil {
		m.log.ErrorContext(ctx, "failed to send critical error alert", logger.Error(err))
	}
}
