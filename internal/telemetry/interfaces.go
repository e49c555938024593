package telemetry

import (
	"log"

	"duskhollow/server/logging"
)

// Logger exposes the logging capabilities required by server components.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts functions into the Logger interface.
type LoggerFunc func(format string, args ...any)

// Printf implements Logger for LoggerFunc.
func (f LoggerFunc) Printf(format string, args ...any) {
	if f == nil {
		return
	}
	f(format, args...)
}

// WrapLogger adapts a standard library logger to the Logger interface.
func WrapLogger(logger *log.Logger) Logger {
	return &loggerAdapter{logger: logger}
}

type loggerAdapter struct {
	logger *log.Logger
}

func (l *loggerAdapter) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf(format, args...)
}

// Stats exposes event-routing counters for diagnostics payloads.
type Stats interface {
	RouterStats() logging.RouterStats
}

// WrapRouter adapts the logging router into the Stats interface.
func WrapRouter(router *logging.Router) Stats {
	return &routerAdapter{router: router}
}

type routerAdapter struct {
	router *logging.Router
}

func (r *routerAdapter) RouterStats() logging.RouterStats {
	if r == nil || r.router == nil {
		return logging.RouterStats{}
	}
	return r.router.Stats()
}
