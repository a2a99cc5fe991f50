// Package oplog provides structured audit logging for file storage
// operations: directory creation, uploads, deletions, errors, security
// violations and disk space warnings.
//
// Every log call writes a structured slog record. Calls optionally fan
// out to a Recorder (for operational statistics) and, for critical
// events, to an alert.Notifier. Both integrations are best-effort: a
// failed notification never fails the logged operation.
package oplog
