// Package validation checks user input and reports dataset quality problems.
package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/giygas/symptoms-api/conditionsparser/entities"
	"github.com/giygas/symptoms-api/generator"
	"github.com/giygas/symptoms-api/interfaces"
	"github.com/giygas/symptoms-api/matcher"
)

const (
	maxConditionNameRunes = 100
	maxSymptomRunes       = 100
)

var (
	conditionNameRegex = regexp.MustCompile(`^[\p{L}\p{N}\s\-'(),./’]+$`)

	validRoles = []string{generator.RoleDoctor, generator.RolePatient, generator.RoleGeneral}
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateQuery rejects a blank query. Any other text is a valid query.
func (v *DataValidatorImpl) ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	return nil
}

// ValidateRole normalizes a role; empty means general
func (v *DataValidatorImpl) ValidateRole(role string) (string, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return generator.RoleGeneral, nil
	}
	if !slices.Contains(validRoles, role) {
		return "", fmt.Errorf("%w: %q, must be one of %v", ErrInvalidRole, role, validRoles)
	}
	return role, nil
}

// ValidateStrategy parses a strategy name. Empty returns "" so the caller applies its default.
func (v *DataValidatorImpl) ValidateStrategy(name string) (matcher.StrategyName, error) {
	if strings.TrimSpace(name) == "" {
		return "", nil
	}
	strategy, err := matcher.ParseStrategy(name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidStrategy, err)
	}
	return strategy, nil
}

// ValidateConditionName checks a condition name taken from a URL path
func (v *DataValidatorImpl) ValidateConditionName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: cannot be empty", ErrInvalidConditionName)
	}

	if utf8.RuneCountInString(trimmed) > maxConditionNameRunes {
		return fmt.Errorf("%w: too long (maximum %d characters)", ErrInvalidConditionName, maxConditionNameRunes)
	}

	if strings.Contains(trimmed, "..") || !conditionNameRegex.MatchString(trimmed) {
		return fmt.Errorf("%w: contains invalid characters", ErrInvalidConditionName)
	}

	return nil
}

// ValidateCondition checks a loaded record. Only a record without a name is rejected.
func (v *DataValidatorImpl) ValidateCondition(c *entities.Condition) error {
	if c == nil {
		return fmt.Errorf("condition is nil")
	}

	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("condition has an empty name")
	}

	return nil
}

// DropInvalidSymptoms removes symptoms too long to be a symptom name and returns
// how many were removed. The rest of the record is kept.
func (v *DataValidatorImpl) DropInvalidSymptoms(c *entities.Condition) int {
	if c == nil {
		return 0
	}

	kept := c.Symptoms[:0]
	for _, symptom := range c.Symptoms {
		if utf8.RuneCountInString(symptom) > maxSymptomRunes {
			continue
		}
		kept = append(kept, symptom)
	}
	dropped := len(c.Symptoms) - len(kept)
	c.Symptoms = kept
	return dropped
}

// ReportDataQuality lists the problems of a loaded dataset. Names and symptoms are
// compared case-insensitively; reported names keep their dataset spelling.
func (v *DataValidatorImpl) ReportDataQuality(conditions []entities.Condition, stats entities.LoadStats) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		DuplicateNames:            []string{},
		ConditionsWithoutSymptoms: []string{},
		SharedSymptoms:            map[string][]string{},
		SkippedRecords:            stats.Skipped,
		MalformedFields:           stats.MalformedFields,
	}

	// Check 1: duplicate names, each reported once
	seenNames := make(map[string]int)
	for _, c := range conditions {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		seenNames[key]++
		if seenNames[key] == 2 {
			report.DuplicateNames = append(report.DuplicateNames, c.Name)
		}
	}

	// Check 2: records missing optional content
	for _, c := range conditions {
		if len(c.Symptoms) == 0 {
			report.ConditionsWithoutSymptoms = append(report.ConditionsWithoutSymptoms, c.Name)
		}
		if len(c.Medications) == 0 {
			report.ConditionsWithoutMedications++
		}
		if strings.TrimSpace(c.Instructions) == "" || c.Instructions == entities.DefaultInstructions {
			report.ConditionsWithoutInstructions++
		}
	}

	// Check 3: symptoms listed by several conditions, which makes exact matching fan out
	ix := matcher.Build(conditions)
	for _, symptom := range ix.Symptoms() {
		ids := ix.Lookup(symptom)
		if len(ids) < 2 {
			continue
		}
		names := make([]string, 0, len(ids))
		for _, id := range ids {
			if c, ok := ix.Condition(id); ok {
				names = append(names, c.Name)
			}
		}
		report.SharedSymptoms[symptom] = names
	}

	return report
}
