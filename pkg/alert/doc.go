// Package alert delivers administrator notifications for critical file
// system events: unrecoverable errors, security violations, low disk
// space and operational anomalies.
//
// Notifications are fire-and-forget by contract: callers log a failed
// delivery and move on, a broken alert channel must never block a file
// operation. Two implementations are provided: a Postmark-backed email
// notifier for production and a log-only notifier for development.
package alert
