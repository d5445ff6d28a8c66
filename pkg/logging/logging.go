package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

var (
	mu     sync.Mutex
	shared *slog.Logger
)

// Logger returns the process-wide logger. On first use it is built from the
// environment:
//   - CERTSRAG_LOG_FORMAT: "json" (default) or "text"
//   - CERTSRAG_LOG_LEVEL: debug|info|warn|error
func Logger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if shared == nil {
		shared = fromEnv()
	}
	return shared
}

// SetLogger replaces the shared logger; mainly useful for tests.
func SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	mu.Lock()
	shared = l
	mu.Unlock()
}

// WithComponent attaches a component field to the shared logger.
func WithComponent(component string) *slog.Logger {
	return Logger().With("component", component)
}

func fromEnv() *slog.Logger {
	level, ok := levels[strings.ToLower(os.Getenv("CERTSRAG_LOG_LEVEL"))]
	if !ok {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(os.Getenv("CERTSRAG_LOG_FORMAT"), "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler).With("service", "certs-rag")
}
