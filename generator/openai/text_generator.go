package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/giygas/symptoms-api/generator"
	"github.com/giygas/symptoms-api/interfaces"
	"github.com/tmc/langchaingo/llms"
)

var _ interfaces.TextGenerator = (*TextGenerator)(nil)

// TextGenerator answers queries that matched no condition.
type TextGenerator struct {
	client      chatModel
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

func newTextGenerator(config *generator.Config, client chatModel) *TextGenerator {
	return &TextGenerator{
		client:      client,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		logger:      slog.Default().With("component", "openai-generator"),
	}
}

// Generate returns the model's answer for query, written for role.
func (g *TextGenerator) Generate(ctx context.Context, role, query string) (string, error) {
	system, user := generator.BuildPrompt(role, query)

	options := []llms.CallOption{llms.WithTemperature(g.temperature)}
	if g.maxTokens > 0 {
		options = append(options, llms.WithMaxTokens(g.maxTokens))
	}

	response, err := g.client.GenerateContent(ctx, messages(system, user), options...)
	if err != nil {
		g.logger.Warn("generation failed", "role", role, "err", err)
		return "", fmt.Errorf("%w: %w", generator.ErrGenerationUnavailable, err)
	}

	if len(response.Choices) == 0 {
		return "", generator.ErrEmptyGeneration
	}

	text := strings.TrimSpace(response.Choices[0].Content)
	if text == "" {
		return "", generator.ErrEmptyGeneration
	}
	return text, nil
}
