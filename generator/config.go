// Package generator holds the configuration, prompts and errors shared by the text
// generation backends used when no condition matches a query.
package generator

import (
	"errors"
	"strings"
)

// Config holds configuration for the generation backend.
type Config struct {
	// Host is the base URL of an OpenAI-compatible API.
	// Example: "http://localhost:11434/v1" for a local Ollama server
	Host string

	// Model is the chat model identifier.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	Model string

	// Token is the API token. Local servers accept any value.
	Token string

	// Temperature controls sampling for generated answers. Extraction always runs at 0.
	Temperature float64

	// MaxTokens caps the length of a generated answer. 0 leaves it to the server.
	MaxTokens int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the API base URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithToken sets the API token.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithTemperature sets the sampling temperature for generated answers.
func WithTemperature(t float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithMaxTokens caps the generated answer length.
func WithMaxTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// DefaultConfig returns a Config for a local OpenAI-compatible server.
func DefaultConfig() *Config {
	return &Config{
		Host:        "http://localhost:11434/v1",
		Model:       "qwen2.5:3b",
		Token:       "none",
		Temperature: 0.3,
		MaxTokens:   400,
	}
}

// NewConfig creates a Config with the default values and applies opts.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize adds the /v1 suffix expected by OpenAI-compatible servers and
// defaults an empty token.
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/") + "/v1"
	}
	if c.Token == "" {
		c.Token = "none"
	}
}

// Validate normalizes the configuration and checks it is complete.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return errors.New("generator config: Host is required")
	}
	if c.Model == "" {
		return errors.New("generator config: Model is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("generator config: Temperature must be between 0 and 2")
	}
	if c.MaxTokens < 0 {
		return errors.New("generator config: MaxTokens cannot be negative")
	}
	return nil
}
