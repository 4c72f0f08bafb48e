// Package interfaces defines the contracts between the symptoms API components
// so the matching engine can be tested without transport, storage or a model.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/symptoms-api/conditionsparser/entities"
	"github.com/giygas/symptoms-api/matcher"
)

// DataQualityReport summarizes problems found in a loaded dataset
type DataQualityReport struct {
	DuplicateNames                []string            `json:"duplicateNames"`
	ConditionsWithoutSymptoms     []string            `json:"conditionsWithoutSymptoms"`
	ConditionsWithoutMedications  int                 `json:"conditionsWithoutMedications"`
	ConditionsWithoutInstructions int                 `json:"conditionsWithoutInstructions"`
	SharedSymptoms                map[string][]string `json:"sharedSymptoms"` // symptom -> condition names, only when listed by 2+ conditions
	SkippedRecords                int                 `json:"skippedRecords"`
	MalformedFields               int                 `json:"malformedFields"`
}

// HasIssues reports whether anything in the report deserves a warning
func (r *DataQualityReport) HasIssues() bool {
	if r == nil {
		return false
	}
	return len(r.DuplicateNames) > 0 || len(r.ConditionsWithoutSymptoms) > 0 ||
		r.SkippedRecords > 0 || r.MalformedFields > 0
}

// DataStore holds the current dataset snapshot. Readers always get a consistent
// pair of conditions and index; a reload replaces both at once.
type DataStore interface {
	GetConditions() []entities.Condition
	GetIndex() *matcher.Index
	GetQualityReport() *DataQualityReport
	GetLoadError() error
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	UpdateData(conditions []entities.Condition, index *matcher.Index, report *DataQualityReport)
	RecordLoadError(err error)
	BeginUpdate() bool
	EndUpdate()
}

// Parser loads the condition dataset from its persisted source
type Parser interface {
	ParseConditions(ctx context.Context) ([]entities.Condition, entities.LoadStats, error)
}

// Scheduler manages the initial dataset load and the periodic reloads
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler defines the HTTP endpoints
type HTTPHandler interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request)

	Home(w http.ResponseWriter, r *http.Request)
	Query(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)

	// V1 handlers
	MatchV1(w http.ResponseWriter, r *http.Request)
	ServeConditionsV1(w http.ResponseWriter, r *http.Request)
	FindConditionV1(w http.ResponseWriter, r *http.Request)
	FindBySymptomV1(w http.ResponseWriter, r *http.Request)
}

// HealthChecker reports system health
type HealthChecker interface {
	HealthCheck() (status string, details map[string]any, err error)
	CalculateNextUpdate() time.Time
}

// DataValidator validates user input and dataset records
type DataValidator interface {
	ValidateQuery(query string) error
	ValidateRole(role string) (string, error)
	ValidateStrategy(name string) (matcher.StrategyName, error)
	ValidateConditionName(name string) error
	ValidateCondition(c *entities.Condition) error
	DropInvalidSymptoms(c *entities.Condition) int
	ReportDataQuality(conditions []entities.Condition, stats entities.LoadStats) *DataQualityReport
}

// TextGenerator produces a free-text answer when no condition matches
type TextGenerator interface {
	Generate(ctx context.Context, role, query string) (string, error)
}

// SymptomExtractor turns a free-text query into symptom tokens for overlap matching
type SymptomExtractor interface {
	ExtractSymptoms(ctx context.Context, text string) ([]string, error)
}
