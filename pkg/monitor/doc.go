// Package monitor instruments the file storage tree: disk and
// per-directory usage metrics with a cached aggregate snapshot,
// rolling operation/error statistics with threshold-based anomaly
// alerting, and an orphan scanner that diffs on-disk files against
// application records.
//
// The operation monitor implements oplog.Recorder, so wiring it into
// an oplog.Logger feeds it every recorded file operation:
//
//	mon := monitor.NewOperationMonitor(log, monitor.WithAlertNotifier(notifier))
//	opLog := oplog.New(log, oplog.WithRecorder(mon))
//
// Statistics live in process memory by default. Attach a StatsStore
// (monitor.NewRedisStore for multi-process deployments) to persist
// running counters across restarts; the in-memory rings of recent
// records remain per-process best effort.
package monitor
