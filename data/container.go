// Package data holds the current dataset snapshot. A snapshot pairs the condition
// list with the index built from it and is replaced as a whole on reload, so a
// query never sees conditions from one load and an index from another.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/symptoms-api/conditionsparser/entities"
	"github.com/giygas/symptoms-api/interfaces"
	"github.com/giygas/symptoms-api/logging"
	"github.com/giygas/symptoms-api/matcher"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// snapshot is immutable once stored
type snapshot struct {
	conditions []entities.Condition
	index      *matcher.Index
	report     *interfaces.DataQualityReport
}

type loadFailure struct {
	err error
}

// DataContainer holds the snapshot behind atomic pointers for zero-downtime updates
type DataContainer struct {
	current         atomic.Pointer[snapshot]
	loadErr         atomic.Pointer[loadFailure]
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a DataContainer with an empty snapshot
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.current.Store(emptySnapshot())
	dc.loadErr.Store(&loadFailure{})
	dc.lastUpdated.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

func emptySnapshot() *snapshot {
	return &snapshot{
		conditions: []entities.Condition{},
		index:      matcher.Build(nil),
		report:     &interfaces.DataQualityReport{},
	}
}

func (dc *DataContainer) snapshot() *snapshot {
	if s := dc.current.Load(); s != nil {
		return s
	}
	logging.Warn("Dataset snapshot is missing, serving empty data")
	return emptySnapshot()
}

// GetConditions returns the conditions in dataset order. Callers must not modify it.
func (dc *DataContainer) GetConditions() []entities.Condition {
	return dc.snapshot().conditions
}

// GetIndex returns the symptom index of the current snapshot
func (dc *DataContainer) GetIndex() *matcher.Index {
	return dc.snapshot().index
}

// GetQualityReport returns the quality report of the current snapshot
func (dc *DataContainer) GetQualityReport() *interfaces.DataQualityReport {
	return dc.snapshot().report
}

// GetLoadError returns the error of the last failed load, nil after a success
func (dc *DataContainer) GetLoadError() error {
	if f := dc.loadErr.Load(); f != nil {
		return f.err
	}
	return nil
}

// GetLastUpdated returns the timestamp of the last successful data update
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a data update is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData swaps in a new snapshot and clears the last load error.
// A nil index is built from conditions.
func (dc *DataContainer) UpdateData(conditions []entities.Condition, index *matcher.Index, report *interfaces.DataQualityReport) {
	if conditions == nil {
		conditions = []entities.Condition{}
	}
	if index == nil {
		index = matcher.Build(conditions)
	}
	if report == nil {
		report = &interfaces.DataQualityReport{}
	}

	dc.current.Store(&snapshot{conditions: conditions, index: index, report: report})
	dc.loadErr.Store(&loadFailure{})
	dc.lastUpdated.Store(time.Now())
}

// RecordLoadError keeps err for health reporting. The snapshot is left untouched.
func (dc *DataContainer) RecordLoadError(err error) {
	dc.loadErr.Store(&loadFailure{err: err})
}

// BeginUpdate marks the start of a data update operation
// Returns true if update can proceed, false if another update is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a data update operation
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
