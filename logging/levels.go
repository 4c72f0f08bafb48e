package logging

import (
	"log/slog"
	"strings"

	"github.com/giygas/symptoms-api/config"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel picks the console level. An explicit level wins, except in
// tests where the console stays at error unless verbose is set.
func GetConsoleLogLevel(env config.Environment, logLevelStr string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if logLevelStr != "" {
		return parseLogLevel(logLevelStr)
	}

	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel is the level of the rotating file handler; files keep everything
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}
