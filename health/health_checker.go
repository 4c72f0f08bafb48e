// Package health reports whether the symptoms API has usable data.
package health

import (
	"math"
	"runtime"
	"time"

	"github.com/giygas/symptoms-api/interfaces"
)

// Health statuses
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore      interfaces.DataStore
	reloadInterval time.Duration
}

// NewHealthChecker creates a new health checker. reloadInterval is the configured
// dataset reload period, 0 when reloads are disabled.
func NewHealthChecker(dataStore interfaces.DataStore, reloadInterval time.Duration) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		dataStore:      dataStore,
		reloadInterval: reloadInterval,
	}
}

// HealthCheck returns the status, the details served by /health and the error of
// the last failed dataset load, if any.
//
//   - unhealthy: no condition loaded
//   - degraded: the last load failed and older data is served, or the data is older
//     than twice the reload interval
//   - healthy: otherwise
func (h *HealthCheckerImpl) HealthCheck() (status string, details map[string]any, err error) {
	conditions := h.dataStore.GetConditions()
	index := h.dataStore.GetIndex()
	report := h.dataStore.GetQualityReport()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()
	loadErr := h.dataStore.GetLoadError()

	var dataAge time.Duration
	if !lastUpdate.IsZero() {
		dataAge = time.Since(lastUpdate)
	}

	switch {
	case len(conditions) == 0:
		status = StatusUnhealthy
	case loadErr != nil:
		status = StatusDegraded
	case h.reloadInterval > 0 && dataAge > 2*h.reloadInterval:
		status = StatusDegraded
	default:
		status = StatusHealthy
	}

	symptoms := 0
	if index != nil {
		symptoms = index.SymptomCount()
	}

	dataDetails := map[string]any{
		"conditions":  len(conditions),
		"symptoms":    symptoms,
		"is_updating": isUpdating,
	}
	if report != nil {
		dataDetails["skipped_records"] = report.SkippedRecords
		dataDetails["malformed_fields"] = report.MalformedFields
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	details = map[string]any{
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"data":           dataDetails,
		"system": map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       int(m.Alloc / 1024 / 1024),
				"total_alloc_mb": int(m.TotalAlloc / 1024 / 1024),
				"sys_mb":         int(m.Sys / 1024 / 1024),
				"num_gc":         m.NumGC,
			},
		},
	}

	if !lastUpdate.IsZero() {
		details["last_update"] = lastUpdate.Format(time.RFC3339)
	}
	if start := h.dataStore.GetServerStartTime(); !start.IsZero() {
		details["uptime_seconds"] = math.Round(time.Since(start).Seconds())
	}
	if next := h.CalculateNextUpdate(); !next.IsZero() {
		details["next_update"] = next.Format(time.RFC3339)
	}
	if loadErr != nil {
		details["load_error"] = loadErr.Error()
	}

	return status, details, loadErr
}

// CalculateNextUpdate returns when the next reload is due, or the zero time when
// reloads are disabled. An overdue reload is reported as due now.
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	if h.reloadInterval <= 0 {
		return time.Time{}
	}

	now := time.Now()
	lastUpdate := h.dataStore.GetLastUpdated()
	if lastUpdate.IsZero() {
		return now
	}

	next := lastUpdate.Add(h.reloadInterval)
	if next.Before(now) {
		return now
	}
	return next
}
