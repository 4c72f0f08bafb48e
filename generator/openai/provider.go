// Package openai implements text generation and symptom extraction against
// OpenAI-compatible chat APIs (OpenAI, Ollama, vLLM, LocalAI) through langchaingo.
package openai

import (
	"context"
	"log/slog"

	"github.com/giygas/symptoms-api/generator"
	"github.com/giygas/symptoms-api/interfaces"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// chatModel is the part of llms.Model used here
type chatModel interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Provider owns one chat client and exposes it as a generator and an extractor.
type Provider struct {
	config    *generator.Config
	generator *TextGenerator
	extractor *SymptomExtractor
	logger    *slog.Logger
}

// NewProvider validates config and creates the chat client.
func NewProvider(config *generator.Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Local servers ignore the token but the client requires one
	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	return newProvider(config, client), nil
}

func newProvider(config *generator.Config, client chatModel) *Provider {
	return &Provider{
		config:    config,
		generator: newTextGenerator(config, client),
		extractor: newSymptomExtractor(client),
		logger:    slog.Default().With("component", "openai-provider"),
	}
}

// TextGenerator returns the fallback answer generator.
func (p *Provider) TextGenerator() interfaces.TextGenerator {
	return p.generator
}

// SymptomExtractor returns the model-backed symptom extractor.
func (p *Provider) SymptomExtractor() interfaces.SymptomExtractor {
	return p.extractor
}

// Close releases resources held by the provider. The HTTP client needs no cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider", "model", p.config.Model)
	return nil
}

func messages(system, user string) []llms.MessageContent {
	return []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(user)},
		},
	}
}
