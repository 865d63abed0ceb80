// Package logging is the structured logger used by the accounts service and
// its command-line front end.
package logging

import "context"

// Logger is a context-aware leveled logger. Args are key/value pairs:
//
//	log.Info(ctx, "login.success", "principal", id)
//
// Callers never pass passwords, seeds, codes or keys as values; use
// models.Secret for anything that might end up here by accident.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}
