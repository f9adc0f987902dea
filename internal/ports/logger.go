package ports

import "context"

// Logger defines a standard interface for logging messages and errors. This
// allows injecting different logging implementations (e.g., zerolog) without
// the core depending on a concrete logging library.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...map[string]interface{})
	Info(ctx context.Context, msg string, fields ...map[string]interface{})
	Warn(ctx context.Context, msg string, fields ...map[string]interface{})
	Error(ctx context.Context, err error, msg string, fields ...map[string]interface{})
}
