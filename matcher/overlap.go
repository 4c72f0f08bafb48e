package matcher

import (
	"cmp"
	"slices"

	"github.com/giygas/symptoms-api/conditionsparser/entities"
)

// DefaultThreshold is the minimum overlap score for a condition to count as a match
const DefaultThreshold = 0.5

// Match is a matched condition with its score in [0,1]
type Match struct {
	ID        ConditionID
	Condition entities.Condition
	Score     float64
}

// MatchByOverlap scores every condition by the share of its symptoms present in
// symptomTokens: common / max(|conditionSymptoms|, 1). Conditions scoring at least
// threshold are returned by descending score; equal scores keep dataset order.
func MatchByOverlap(symptomTokens []string, conditions []entities.Condition, threshold float64) []Match {
	tokens := toSet(symptomTokens)
	matches := make([]Match, 0)

	for i, condition := range conditions {
		score := overlapScore(tokens, toSet(condition.Symptoms))
		if score < threshold {
			continue
		}
		matches = append(matches, Match{
			ID:        ConditionID(i),
			Condition: condition,
			Score:     score,
		})
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		return cmp.Compare(b.Score, a.Score)
	})

	return matches
}

func overlapScore(tokens, symptoms map[string]struct{}) float64 {
	common := 0
	for symptom := range symptoms {
		if _, ok := tokens[symptom]; ok {
			common++
		}
	}
	return float64(common) / float64(max(len(symptoms), 1))
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if key := normalizeSymptom(v); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}
