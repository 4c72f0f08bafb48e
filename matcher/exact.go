package matcher

import (
	"slices"
	"strings"
)

// MatchExact lower-cases queryText, splits it on whitespace and collects every
// condition whose symptom set contains one of the tokens verbatim.
// The result is de-duplicated and sorted by ConditionID; no hit yields an empty slice.
func MatchExact(queryText string, ix *Index) []ConditionID {
	tokens := strings.Fields(strings.ToLower(queryText))
	if len(tokens) == 0 {
		return []ConditionID{}
	}

	seen := make(map[ConditionID]struct{})
	matched := make([]ConditionID, 0)

	for _, token := range tokens {
		ids, ok := ix.has(token)
		if !ok {
			continue
		}
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			matched = append(matched, id)
		}
	}

	slices.Sort(matched)
	return matched
}
