// Package matcher implements the condition matching engine: an immutable symptom index
// built once per dataset snapshot, plus the exact-token and overlap-scored matching strategies.
package matcher

import (
	"slices"
	"strings"

	"github.com/giygas/symptoms-api/conditionsparser/entities"
)

// ConditionID is the position of a condition in the loaded dataset.
// Ordering by ConditionID is the deterministic output order of every matcher.
type ConditionID int

// Index maps lower-cased symptoms to the conditions that list them.
// An Index is never modified after Build returns, so it can be shared by concurrent queries.
type Index struct {
	conditions          []entities.Condition
	symptomToConditions map[string][]ConditionID
}

// Build creates the index for a dataset. Conditions without symptoms are kept
// (they stay addressable by ID) but never appear through a symptom lookup.
func Build(conditions []entities.Condition) *Index {
	ix := &Index{
		conditions:          slices.Clone(conditions),
		symptomToConditions: make(map[string][]ConditionID),
	}

	for i, condition := range ix.conditions {
		id := ConditionID(i)
		for _, symptom := range condition.Symptoms {
			key := normalizeSymptom(symptom)
			if key == "" {
				continue
			}

			ids := ix.symptomToConditions[key]
			// IDs are appended in increasing order, so a repeat can only be the last element
			if len(ids) > 0 && ids[len(ids)-1] == id {
				continue
			}
			ix.symptomToConditions[key] = append(ids, id)
		}
	}

	return ix
}

// Len returns the number of conditions in the index
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.conditions)
}

// SymptomCount returns the number of distinct symptoms
func (ix *Index) SymptomCount() int {
	if ix == nil {
		return 0
	}
	return len(ix.symptomToConditions)
}

// Condition returns the condition stored under id
func (ix *Index) Condition(id ConditionID) (entities.Condition, bool) {
	if ix == nil || id < 0 || int(id) >= len(ix.conditions) {
		return entities.Condition{}, false
	}
	return ix.conditions[id], true
}

// Conditions returns a copy of the dataset in ID order
func (ix *Index) Conditions() []entities.Condition {
	if ix == nil {
		return []entities.Condition{}
	}
	return slices.Clone(ix.conditions)
}

// Lookup returns the IDs of the conditions listing symptom, in dataset order
func (ix *Index) Lookup(symptom string) []ConditionID {
	if ix == nil {
		return []ConditionID{}
	}
	ids, ok := ix.symptomToConditions[normalizeSymptom(symptom)]
	if !ok {
		return []ConditionID{}
	}
	return slices.Clone(ids)
}

// Symptoms returns every indexed symptom, sorted
func (ix *Index) Symptoms() []string {
	if ix == nil {
		return []string{}
	}
	symptoms := make([]string, 0, len(ix.symptomToConditions))
	for symptom := range ix.symptomToConditions {
		symptoms = append(symptoms, symptom)
	}
	slices.Sort(symptoms)
	return symptoms
}

// has is the allocation-free form of Lookup for the matching hot path. The token
// must already be lower-cased and trimmed, and the returned slice is shared with the
// index and must not be modified.
func (ix *Index) has(token string) ([]ConditionID, bool) {
	if ix == nil {
		return nil, false
	}
	ids, ok := ix.symptomToConditions[token]
	return ids, ok
}

func normalizeSymptom(symptom string) string {
	return strings.ToLower(strings.TrimSpace(symptom))
}
