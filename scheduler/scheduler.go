// Package scheduler loads the conditions dataset at startup and reloads it
// periodically. Each load builds a fresh snapshot that replaces the previous one
// as a whole; a failed load never replaces data.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/giygas/symptoms-api/conditionsparser/entities"
	"github.com/giygas/symptoms-api/interfaces"
	"github.com/giygas/symptoms-api/logging"
	"github.com/giygas/symptoms-api/matcher"
	"github.com/giygas/symptoms-api/metrics"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// defaultMonitorInterval is how often data staleness is checked
const defaultMonitorInterval = time.Hour

// Scheduler handles dataset loads and staleness monitoring using dependency injection
type Scheduler struct {
	dataStore interfaces.DataStore
	parser    interfaces.Parser
	validator interfaces.DataValidator
	scheduler *gocron.Scheduler

	interval        time.Duration
	monitorInterval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// NewScheduler creates a new scheduler. interval is the reload period; 0 disables reloads.
func NewScheduler(dataStore interfaces.DataStore, parser interfaces.Parser, validator interfaces.DataValidator, interval time.Duration) *Scheduler {
	return &Scheduler{
		dataStore:       dataStore,
		parser:          parser,
		validator:       validator,
		scheduler:       gocron.NewScheduler(time.Local),
		interval:        interval,
		monitorInterval: defaultMonitorInterval,
		stop:            make(chan struct{}),
	}
}

// Start performs the initial load and schedules the reloads. A failed initial load
// is logged and recorded for the health check; the service then runs with an empty
// dataset until a reload succeeds.
func (s *Scheduler) Start() error {
	if err := s.Reload(context.Background()); err != nil {
		logging.Error("Initial dataset load failed, serving an empty dataset", "error", err)
	}

	if s.interval <= 0 {
		logging.Info("Dataset reloads disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		if err := s.Reload(context.Background()); err != nil {
			logging.Error("Dataset reload failed, keeping previous data", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule dataset reloads", "error", err)
		return fmt.Errorf("failed to schedule dataset reloads: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Dataset reloads scheduled", "interval", s.interval.String())

	s.startStalenessMonitor()

	return nil
}

// Stop stops the reloads and the staleness monitor
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.scheduler.Stop()
	})
}

// Reload loads the dataset and swaps in a new snapshot. On failure the error is
// recorded in the data store and the current snapshot is kept.
func (s *Scheduler) Reload(ctx context.Context) error {
	// Prevent concurrent updates
	if !s.dataStore.BeginUpdate() {
		logging.Info("Update already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	start := time.Now()
	logging.Info("Starting dataset load", "started_at", start.Format(time.RFC3339))

	conditions, stats, err := s.parser.ParseConditions(ctx)
	if err != nil {
		metrics.DatasetReloadsTotal.WithLabelValues(metrics.StatusFailure).Inc()
		s.dataStore.RecordLoadError(err)
		return fmt.Errorf("failed to load conditions: %w", err)
	}

	conditions, rejected, dropped := s.filterValid(conditions)
	stats.Skipped += rejected
	stats.MalformedFields += dropped
	stats.Loaded = len(conditions)

	report := s.validator.ReportDataQuality(conditions, stats)
	logQualityReport(report)

	index := matcher.Build(conditions)
	s.dataStore.UpdateData(conditions, index, report)

	metrics.DatasetReloadsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	metrics.DatasetConditions.Set(float64(len(conditions)))

	logging.Info("Dataset load completed",
		"duration", time.Since(start).String(),
		"condition_count", len(conditions),
		"symptom_count", index.SymptomCount(),
		"skipped", stats.Skipped,
	)

	return nil
}

// filterValid drops records that fail validation and strips unusable symptoms from
// the rest. It returns the kept records, the rejected record count and the dropped
// symptom count.
func (s *Scheduler) filterValid(conditions []entities.Condition) ([]entities.Condition, int, int) {
	valid := make([]entities.Condition, 0, len(conditions))
	rejected, dropped := 0, 0
	for i := range conditions {
		if err := s.validator.ValidateCondition(&conditions[i]); err != nil {
			logging.Warn("Skipping invalid condition", "position", i, "error", err)
			rejected++
			continue
		}
		if n := s.validator.DropInvalidSymptoms(&conditions[i]); n > 0 {
			logging.Warn("Dropped unusable symptoms", "condition", conditions[i].Name, "dropped", n)
			dropped += n
		}
		valid = append(valid, conditions[i])
	}
	return valid, rejected, dropped
}

func logQualityReport(report *interfaces.DataQualityReport) {
	if report == nil || !report.HasIssues() {
		return
	}

	if len(report.DuplicateNames) > 0 {
		logging.Warn("Duplicate condition names detected",
			"total", len(report.DuplicateNames),
			"names", report.DuplicateNames,
		)
	}

	if len(report.ConditionsWithoutSymptoms) > 0 {
		logging.Warn("Conditions without symptoms can never be matched",
			"total", len(report.ConditionsWithoutSymptoms),
			"names", report.ConditionsWithoutSymptoms,
		)
	}

	if report.SkippedRecords > 0 || report.MalformedFields > 0 {
		logging.Warn("Malformed dataset records",
			"skipped", report.SkippedRecords,
			"malformed_fields", report.MalformedFields,
		)
	}

	logging.Debug("Dataset content gaps",
		"without_medications", report.ConditionsWithoutMedications,
		"without_instructions", report.ConditionsWithoutInstructions,
		"shared_symptoms", len(report.SharedSymptoms),
	)
}

// startStalenessMonitor warns when the data is older than twice the reload interval
func (s *Scheduler) startStalenessMonitor() {
	go func() {
		ticker := time.NewTicker(s.monitorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.checkStaleness()
			}
		}
	}()
}

// checkStaleness reports whether the data is stale, logging a warning when it is
func (s *Scheduler) checkStaleness() bool {
	lastUpdate := s.dataStore.GetLastUpdated()
	maxAge := 2 * s.interval
	if lastUpdate.IsZero() || time.Since(lastUpdate) > maxAge {
		logging.Warn("Dataset is stale",
			"last_update", lastUpdate.Format(time.RFC3339),
			"max_age", maxAge.String(),
		)
		return true
	}
	return false
}
