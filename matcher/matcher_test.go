package matcher

import (
	"testing"

	"github.com/giygas/symptoms-api/conditionsparser/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flu() entities.Condition {
	return entities.Condition{
		Name:         "Flu",
		Symptoms:     []string{"fever", "cough"},
		Medications:  []string{"paracetamol"},
		Instructions: entities.DefaultInstructions,
	}
}

func testDataset() []entities.Condition {
	return []entities.Condition{
		flu(),
		{Name: "Malaria", Symptoms: []string{"Fever", "chills", "sweating"}, Medications: []string{"artemisinin"}},
		{Name: "Migraine", Symptoms: []string{"headache", "nausea"}, Medications: []string{}},
		{Name: "Unknown", Symptoms: []string{}, Medications: []string{}},
	}
}

func TestBuildIndexFansOutSharedSymptoms(t *testing.T) {
	ix := Build(testDataset())

	assert.Equal(t, 4, ix.Len())
	assert.Equal(t, []ConditionID{0, 1}, ix.Lookup("fever"))
	assert.Equal(t, []ConditionID{0, 1}, ix.Lookup("FEVER"))
	assert.Equal(t, []ConditionID{2}, ix.Lookup("headache"))
	assert.Empty(t, ix.Lookup("rash"))
}

func TestBuildIndexDeduplicatesWithinCondition(t *testing.T) {
	ix := Build([]entities.Condition{
		{Name: "Cold", Symptoms: []string{"cough", "Cough", " cough ", ""}},
	})

	assert.Equal(t, []ConditionID{0}, ix.Lookup("cough"))
	assert.Equal(t, 1, ix.SymptomCount())
	assert.Equal(t, []string{"cough"}, ix.Symptoms())
}

func TestBuildIndexIsolatedFromInput(t *testing.T) {
	conditions := testDataset()
	ix := Build(conditions)

	conditions[0].Name = "changed"
	got, ok := ix.Condition(0)
	require.True(t, ok)
	assert.Equal(t, "Flu", got.Name)

	lookup := ix.Lookup("fever")
	lookup[0] = 99
	assert.Equal(t, []ConditionID{0, 1}, ix.Lookup("fever"))
}

func TestEmptyAndNilIndex(t *testing.T) {
	empty := Build(nil)
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, MatchExact("fever", empty))

	var nilIndex *Index
	assert.Equal(t, 0, nilIndex.Len())
	assert.Empty(t, MatchExact("fever", nilIndex))
	assert.Empty(t, nilIndex.Conditions())
	_, ok := nilIndex.Condition(0)
	assert.False(t, ok)
}

func TestMatchExact(t *testing.T) {
	ix := Build(testDataset())

	tests := []struct {
		name  string
		query string
		want  []ConditionID
	}{
		{"single token", "I have a fever", []ConditionID{0, 1}},
		{"repeated token collapses", "fever fever FEVER", []ConditionID{0, 1}},
		{"several tokens sorted by dataset order", "nausea and chills", []ConditionID{1, 2}},
		{"no hit", "headaches everywhere", []ConditionID{}},
		{"empty query", "   ", []ConditionID{}},
		{"punctuation is not stripped", "fever,", []ConditionID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchExact(tt.query, ix))
		})
	}
}

func TestIndexHasExpectsNormalizedTokens(t *testing.T) {
	ix := Build(testDataset())

	ids, ok := ix.has("fever")
	require.True(t, ok)
	assert.Equal(t, []ConditionID{0, 1}, ids)

	_, ok = ix.has("FEVER")
	assert.False(t, ok)
	assert.Equal(t, []ConditionID{0, 1}, MatchExact("FEVER", ix))
}

func TestMatchExactDeterministic(t *testing.T) {
	ix := Build(testDataset())
	first := MatchExact("sweating headache cough fever", ix)
	for range 50 {
		assert.Equal(t, first, MatchExact("sweating headache cough fever", ix))
	}
}

func TestMatchByOverlapThresholdBoundary(t *testing.T) {
	conditions := []entities.Condition{{Name: "AB", Symptoms: []string{"a", "b"}}}

	included := MatchByOverlap([]string{"a"}, conditions, 0.5)
	require.Len(t, included, 1)
	assert.InDelta(t, 0.5, included[0].Score, 1e-9)

	assert.Empty(t, MatchByOverlap([]string{"a"}, conditions, 0.51))
}

func TestMatchByOverlapDivisionGuard(t *testing.T) {
	conditions := []entities.Condition{{Name: "Empty", Symptoms: nil}}

	matches := MatchByOverlap([]string{"fever", "cough"}, conditions, 0)
	require.Len(t, matches, 1)
	assert.Equal(t, 0.0, matches[0].Score)

	assert.Empty(t, MatchByOverlap([]string{"fever"}, conditions, 0.01))
}

func TestMatchByOverlapRanking(t *testing.T) {
	conditions := []entities.Condition{
		{Name: "Low", Symptoms: []string{"fever", "a", "b", "c", "d"}},
		{Name: "High", Symptoms: []string{"fever", "cough", "fatigue"}},
	}

	matches := MatchByOverlap([]string{"fever", "cough"}, conditions, 0.2)
	require.Len(t, matches, 2)
	assert.Equal(t, "High", matches[0].Condition.Name)
	assert.InDelta(t, 2.0/3.0, matches[0].Score, 1e-9)
	assert.Equal(t, "Low", matches[1].Condition.Name)
	assert.InDelta(t, 0.2, matches[1].Score, 1e-9)

	top := MatchByOverlap([]string{"fever", "cough"}, conditions, DefaultThreshold)
	require.Len(t, top, 1)
	assert.Equal(t, ConditionID(1), top[0].ID)
}

func TestMatchByOverlapTieBreakKeepsDatasetOrder(t *testing.T) {
	conditions := []entities.Condition{
		{Name: "First", Symptoms: []string{"fever", "rash"}},
		{Name: "Second", Symptoms: []string{"fever", "chills"}},
		{Name: "Third", Symptoms: []string{"fever", "pain"}},
	}

	for range 20 {
		matches := MatchByOverlap([]string{"FEVER", "fever"}, conditions, 0.5)
		require.Len(t, matches, 3)
		assert.Equal(t, []ConditionID{0, 1, 2}, []ConditionID{matches[0].ID, matches[1].ID, matches[2].ID})
	}
}

func TestStrategies(t *testing.T) {
	ix := Build(testDataset())

	exact, err := NewStrategy(StrategyExact, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, StrategyExact, exact.Name())

	matches := exact.Match(Query{Text: "I have a fever"}, ix)
	require.Len(t, matches, 2)
	assert.Equal(t, "Flu", matches[0].Condition.Name)
	assert.Equal(t, 1.0, matches[0].Score)

	overlap, err := NewStrategy(StrategyOverlap, DefaultThreshold)
	require.NoError(t, err)
	matches = overlap.Match(Query{Tokens: []string{"fever", "cough"}}, ix)
	require.Len(t, matches, 1)
	assert.Equal(t, "Flu", matches[0].Condition.Name)

	assert.Empty(t, OverlapStrategy{Threshold: 0.5}.Match(Query{Tokens: []string{"fever"}}, nil))

	_, err = NewStrategy("fuzzy", 0.5)
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestParseStrategy(t *testing.T) {
	name, err := ParseStrategy(" Overlap ")
	require.NoError(t, err)
	assert.Equal(t, StrategyOverlap, name)

	name, err = ParseStrategy("exact")
	require.NoError(t, err)
	assert.Equal(t, StrategyExact, name)

	_, err = ParseStrategy("semantic")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}
