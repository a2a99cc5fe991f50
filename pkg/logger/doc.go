// Package logger provides a context-aware wrapper around Go's slog package
// adding functional options for configuration, helper attribute constructors,
// and transparent injection of values stored in context.Context.
//
// The package exposes a single factory, New, that creates a *slog.Logger
// configured by a set of Option functions. These options allow you to:
//
//   - Select an output format (text or json)
//   - Set the minimum log level
//   - Supply default slog.Attr values applied to every record
//   - Register ContextExtractor callbacks that inject attributes pulled from
//     a context value (for example a request id) every time Handle is invoked.
//
// # Architecture
//
// New determines the concrete slog.Handler implementation, text or JSON,
// based on the configured Format, then wraps it with LogHandlerDecorator
// which executes registered ContextExtractor callbacks before delegating to
// the underlying handler.
//
// Helper constructors such as Group, Error, UserID, TeamID and FilePath live
// in attr.go and keep attribute naming consistent across the codebase.
//
// # Usage
//
//	import "github.com/dmitrymomot/mediakit/pkg/logger"
//
//	func main() {
//	    log := logger.New(
//	        logger.WithDevelopment("mediakit"),
//	        logger.WithContextValue("request_id", ctxKeyRequestID),
//	    )
//	    logger.SetAsDefault(log)
//
//	    log.InfoContext(ctx, "avatar stored",
//	        logger.UserID(42),
//	        logger.FilePath("users/42/avatar.jpg"),
//	    )
//	}
package logger
