// Package composer turns matcher results into the payload returned to callers.
// It only formats: ranking and filtering are decided by the matcher.
package composer

import (
	"strings"

	"github.com/giygas/symptoms-api/conditionsparser/entities"
	"github.com/giygas/symptoms-api/matcher"
)

// NotFoundMessage is returned when no condition matches the query
const NotFoundMessage = "-> Sorry, I couldn't find any related conditions from your symptoms."

// NotAvailable replaces an empty medication list in text responses
const NotAvailable = "Not available"

// Kind tells which of the possible outcomes a Response carries
type Kind string

const (
	KindConditions Kind = "conditions"
	KindCondition  Kind = "condition"
	KindNotFound   Kind = "not_found"
	KindGenerated  Kind = "generated"
)

// ConditionPayload is the structured form of a matched condition
type ConditionPayload struct {
	Condition    string   `json:"condition"`
	Symptoms     []string `json:"symptoms"`
	Medication   []string `json:"medication"`
	Instructions string   `json:"instructions"`
	Score        float64  `json:"score,omitempty"`
}

// Response is the outcome of a query
type Response struct {
	Kind      Kind               `json:"kind"`
	Strategy  string             `json:"strategy,omitempty"`
	Response  string             `json:"response,omitempty"`
	Condition *ConditionPayload  `json:"condition,omitempty"`
	Matches   []ConditionPayload `json:"matches,omitempty"`
	Score     float64            `json:"score,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// NotFound reports whether no condition was matched
func (r Response) NotFound() bool {
	return r.Kind == KindNotFound
}

// Text renders the response as plain text. A structured match becomes a text block.
func (r Response) Text() string {
	if r.Response != "" || r.Condition == nil {
		return r.Response
	}

	return FormatCondition(entities.Condition{
		Name:         r.Condition.Condition,
		Symptoms:     r.Condition.Symptoms,
		Medications:  r.Condition.Medication,
		Instructions: r.Condition.Instructions,
	})
}

// Compose formats matches for strategy. The exact strategy produces one text block
// per match in the given order; the overlap strategy produces the best match as a
// structured record.
func Compose(matches []matcher.Match, strategy matcher.StrategyName) Response {
	if len(matches) == 0 {
		return NotFound(strategy)
	}

	if strategy == matcher.StrategyOverlap {
		best := payload(matches[0])
		return Response{
			Kind:      KindCondition,
			Strategy:  string(strategy),
			Condition: &best,
			Score:     matches[0].Score,
		}
	}

	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, FormatCondition(m.Condition))
	}

	return Response{
		Kind:     KindConditions,
		Strategy: string(strategy),
		Response: strings.Join(blocks, "\n"),
	}
}

// ComposeAll is Compose plus every match in structured form
func ComposeAll(matches []matcher.Match, strategy matcher.StrategyName) Response {
	resp := Compose(matches, strategy)
	if resp.NotFound() {
		return resp
	}

	resp.Matches = make([]ConditionPayload, 0, len(matches))
	for _, m := range matches {
		resp.Matches = append(resp.Matches, payload(m))
	}
	return resp
}

// NotFound is the fixed no-match outcome
func NotFound(strategy matcher.StrategyName) Response {
	return Response{
		Kind:     KindNotFound,
		Strategy: string(strategy),
		Response: NotFoundMessage,
	}
}

// Generated wraps text produced by the fallback generator
func Generated(strategy matcher.StrategyName, text string) Response {
	return Response{
		Kind:     KindGenerated,
		Strategy: string(strategy),
		Response: text,
	}
}

// GenerationFailed is the no-match outcome carrying the reason the fallback failed
func GenerationFailed(strategy matcher.StrategyName, reason string) Response {
	resp := NotFound(strategy)
	resp.Error = reason
	return resp
}

// FormatCondition renders one condition as a text block
func FormatCondition(c entities.Condition) string {
	medications := NotAvailable
	if len(c.Medications) > 0 {
		medications = strings.Join(c.Medications, ", ")
	}

	instructions := c.Instructions
	if strings.TrimSpace(instructions) == "" {
		instructions = entities.DefaultInstructions
	}

	lines := []string{
		"-> Condition: " + c.Name,
		"-> Symptoms: " + strings.Join(c.Symptoms, ", "),
		"-> Medications: " + medications,
		"-> Instructions: " + instructions,
	}
	return strings.Join(lines, "\n")
}

func payload(m matcher.Match) ConditionPayload {
	instructions := m.Condition.Instructions
	if strings.TrimSpace(instructions) == "" {
		instructions = entities.DefaultInstructions
	}

	return ConditionPayload{
		Condition:    m.Condition.Name,
		Symptoms:     nonNil(m.Condition.Symptoms),
		Medication:   nonNil(m.Condition.Medications),
		Instructions: instructions,
		Score:        m.Score,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
