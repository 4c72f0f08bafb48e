// Package logging sets up the process-wide slog logger: console text plus a weekly
// rotating JSON file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/giygas/symptoms-api/config"
)

type LoggingService struct {
	Logger *slog.Logger
	closer io.Closer
}

var (
	DefaultLoggingService *LoggingService
	fallbackOnce          sync.Once
	fallbackLogger        *slog.Logger
)

// InitLogger initializes the global logger with development defaults
func InitLogger(logDir string) {
	install(SetupLogger(Options{
		LogDir:       logDir,
		ConsoleLevel: slog.LevelInfo,
		FileLevel:    GetFileLogLevel(),
	}))
}

// InitLoggerWithConfig initializes the global logger from the application config
func InitLoggerWithConfig(cfg *config.Config, logDir string) {
	verbose := os.Getenv("VERBOSE") == "1" || os.Getenv("VERBOSE") == "true"
	install(SetupLogger(Options{
		LogDir:         logDir,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
		ConsoleLevel:   GetConsoleLogLevel(cfg.Env, cfg.LogLevel, verbose),
		FileLevel:      GetFileLogLevel(),
	}))
}

// InitConsole installs a console-only logger at level, for command line tools
func InitConsole(level string) {
	install(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	})), nil)
}

func install(logger *slog.Logger, closer io.Closer) {
	if DefaultLoggingService != nil && DefaultLoggingService.closer != nil {
		_ = DefaultLoggingService.closer.Close()
	}
	DefaultLoggingService = &LoggingService{Logger: logger, closer: closer}
	slog.SetDefault(logger)
}

// Close flushes and closes the log file of the global logger
func Close() error {
	if DefaultLoggingService == nil || DefaultLoggingService.closer == nil {
		return nil
	}
	err := DefaultLoggingService.closer.Close()
	DefaultLoggingService.closer = nil
	return err
}

func current() *slog.Logger {
	if DefaultLoggingService != nil && DefaultLoggingService.Logger != nil {
		return DefaultLoggingService.Logger
	}
	// Not initialized: console only
	fallbackOnce.Do(func() {
		fallbackLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	})
	return fallbackLogger
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	current().Info(msg, args...)
}

func Error(msg string, args ...any) {
	current().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	current().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	current().Debug(msg, args...)
}

// Component returns the global logger tagged with a component name
func Component(name string) *slog.Logger {
	return current().With("component", name)
}
