package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	filePrefix         = "symptoms-"
	defaultMaxFileSize = 100 * 1024 * 1024
	cleanupInterval    = 24 * time.Hour
)

var numberedFileRe = regexp.MustCompile(`^symptoms-\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingLogger is an io.Writer that writes to one file per ISO week, opening a
// numbered sibling when the current file reaches maxFileSize.
type RotatingLogger struct {
	logDir      string
	retention   time.Duration
	maxFileSize int64

	mu          sync.Mutex
	currentFile *os.File
	currentWeek string
	currentSize atomic.Int64

	now         func() time.Time
	cancel      context.CancelFunc
	cleanupDone chan struct{}
}

// NewRotatingLogger creates a rotating logger with the default 100MB file cap
func NewRotatingLogger(logDir string, retentionWeeks int) *RotatingLogger {
	return NewRotatingLoggerWithSizeLimit(logDir, retentionWeeks, defaultMaxFileSize)
}

// NewRotatingLoggerWithSizeLimit creates a rotating logger. maxFileSize 0 disables size rotation.
func NewRotatingLoggerWithSizeLimit(logDir string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	return &RotatingLogger{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		now:         time.Now,
	}
}

func getWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Open creates the log directory, opens the file for the current week and starts
// the daily retention cleanup.
func (rl *RotatingLogger) Open() error {
	if err := os.MkdirAll(rl.logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	rl.mu.Lock()
	err := rl.rotate(getWeekKey(rl.now()), false)
	rl.mu.Unlock()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	rl.cancel = cancel
	rl.cleanupDone = make(chan struct{})
	go rl.cleanupLoop(ctx)
	return nil
}

func (rl *RotatingLogger) cleanupLoop(ctx context.Context) {
	defer close(rl.cleanupDone)
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := rl.cleanupOldLogs(); err != nil {
				fmt.Fprintf(os.Stderr, "log cleanup failed: %v\n", err)
			}
		}
	}
}

// rotate closes the current file and opens the right one for week (caller holds mu)
func (rl *RotatingLogger) rotate(week string, full bool) error {
	if rl.currentFile != nil {
		if err := rl.currentFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
		}
		rl.currentFile = nil
	}

	name := rl.pickFile(week, full)
	path := filepath.Join(rl.logDir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	var size int64
	if info, statErr := file.Stat(); statErr == nil {
		size = info.Size()
	}

	rl.currentFile = file
	rl.currentWeek = week
	rl.currentSize.Store(size)
	return nil
}

// pickFile returns the base file of the week unless it (or the caller) says it is full,
// then the highest numbered file with room left, then a new numbered file.
func (rl *RotatingLogger) pickFile(week string, full bool) string {
	base := filePrefix + week + ".log"
	if !full && !rl.isFull(filepath.Join(rl.logDir, base)) {
		return base
	}

	highest := 0
	matches, _ := filepath.Glob(filepath.Join(rl.logDir, filePrefix+week+"_??.log"))
	for _, match := range matches {
		m := numberedFileRe.FindStringSubmatch(filepath.Base(match))
		if m == nil {
			continue
		}
		if n, _ := strconv.Atoi(m[1]); n > highest {
			highest = n
		}
	}

	if highest > 0 {
		last := fmt.Sprintf("%s%s_%02d.log", filePrefix, week, highest)
		if !full && !rl.isFull(filepath.Join(rl.logDir, last)) {
			return last
		}
	}
	return fmt.Sprintf("%s%s_%02d.log", filePrefix, week, highest+1)
}

func (rl *RotatingLogger) isFull(path string) bool {
	if rl.maxFileSize <= 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Size() >= rl.maxFileSize
}

// Write implements io.Writer
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	week := getWeekKey(rl.now())
	switch {
	case rl.currentFile == nil || rl.currentWeek != week:
		if err := rl.rotate(week, false); err != nil {
			return 0, err
		}
	case rl.maxFileSize > 0 && rl.currentSize.Load()+int64(len(p)) > rl.maxFileSize && rl.currentSize.Load() > 0:
		if err := rl.rotate(week, true); err != nil {
			return 0, err
		}
	}

	n, err := rl.currentFile.Write(p)
	rl.currentSize.Add(int64(n))
	return n, err
}

// cleanupOldLogs removes rotated files last modified before the retention window
func (rl *RotatingLogger) cleanupOldLogs() (int, error) {
	entries, err := os.ReadDir(rl.logDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := rl.now().Add(-rl.retention)
	deleted := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(rl.logDir, name)); err == nil {
			deleted++
		}
	}
	return deleted, nil
}

// Close stops the cleanup goroutine and closes the current file
func (rl *RotatingLogger) Close() error {
	if rl.cancel != nil {
		rl.cancel()
		select {
		case <-rl.cleanupDone:
		case <-time.After(time.Second):
			slog.Warn("log cleanup goroutine did not stop in time")
		}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.currentFile == nil {
		return nil
	}
	err := rl.currentFile.Close()
	rl.currentFile = nil
	return err
}
