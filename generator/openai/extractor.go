package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/giygas/symptoms-api/generator"
	"github.com/giygas/symptoms-api/interfaces"
	"github.com/tmc/langchaingo/llms"
)

var _ interfaces.SymptomExtractor = (*SymptomExtractor)(nil)

const extractionAttempts = 3

// SymptomExtractor asks the model for the symptoms named in a query.
type SymptomExtractor struct {
	client chatModel
	logger *slog.Logger
}

type extraction struct {
	Symptoms []string `json:"symptoms"`
}

func newSymptomExtractor(client chatModel) *SymptomExtractor {
	return &SymptomExtractor{
		client: client,
		logger: slog.Default().With("component", "openai-extractor"),
	}
}

// ExtractSymptoms returns lower-case, de-duplicated symptom names. Malformed JSON
// is retried; transport errors are returned at once.
func (e *SymptomExtractor) ExtractSymptoms(ctx context.Context, text string) ([]string, error) {
	content := messages(generator.ExtractionPrompt, text)

	var lastErr error
	for attempt := 1; attempt <= extractionAttempts; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt, "err", err)
			return nil, fmt.Errorf("%w: %w", generator.ErrGenerationUnavailable, err)
		}

		if len(response.Choices) == 0 {
			return nil, generator.ErrEmptyGeneration
		}

		var result extraction
		raw := stripCodeFences(response.Choices[0].Content)
		if err := json.Unmarshal([]byte(raw), &result); err != nil {
			lastErr = err
			e.logger.Warn("error parsing extractor response", "attempt", attempt, "response", raw, "err", err)
			continue
		}

		return normalizeSymptoms(result.Symptoms), nil
	}

	return nil, fmt.Errorf("parse extractor response: %w", lastErr)
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func normalizeSymptoms(symptoms []string) []string {
	seen := make(map[string]struct{}, len(symptoms))
	out := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		s = strings.ToLower(strings.Join(strings.Fields(s), " "))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
