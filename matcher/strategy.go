package matcher

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStrategy is returned for a strategy name that is neither exact nor overlap
var ErrUnknownStrategy = errors.New("unknown matching strategy")

// StrategyName selects a matching strategy
type StrategyName string

const (
	StrategyExact   StrategyName = "exact"
	StrategyOverlap StrategyName = "overlap"
)

// Query is the matcher input: the raw text and the symptom tokens extracted from it.
// Exact matching reads Text, overlap matching reads Tokens.
type Query struct {
	Text   string
	Tokens []string
}

// Strategy is a matching algorithm over an Index
type Strategy interface {
	Name() StrategyName
	Match(q Query, ix *Index) []Match
}

// ExactStrategy reports every condition sharing a whitespace token with the query, score 1.0
type ExactStrategy struct{}

func (ExactStrategy) Name() StrategyName { return StrategyExact }

func (ExactStrategy) Match(q Query, ix *Index) []Match {
	ids := MatchExact(q.Text, ix)
	matches := make([]Match, 0, len(ids))
	for _, id := range ids {
		condition, _ := ix.Condition(id)
		matches = append(matches, Match{ID: id, Condition: condition, Score: 1.0})
	}
	return matches
}

// OverlapStrategy ranks conditions by symptom-set overlap
type OverlapStrategy struct {
	Threshold float64
}

func (OverlapStrategy) Name() StrategyName { return StrategyOverlap }

func (s OverlapStrategy) Match(q Query, ix *Index) []Match {
	if ix == nil {
		return []Match{}
	}
	return MatchByOverlap(q.Tokens, ix.conditions, s.Threshold)
}

// ParseStrategy converts a name to a StrategyName, case-insensitively
func ParseStrategy(name string) (StrategyName, error) {
	switch StrategyName(strings.ToLower(strings.TrimSpace(name))) {
	case StrategyExact:
		return StrategyExact, nil
	case StrategyOverlap:
		return StrategyOverlap, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// NewStrategy returns the strategy for name. threshold is only used by the overlap strategy.
func NewStrategy(name StrategyName, threshold float64) (Strategy, error) {
	switch name {
	case StrategyExact:
		return ExactStrategy{}, nil
	case StrategyOverlap:
		return OverlapStrategy{Threshold: threshold}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}
