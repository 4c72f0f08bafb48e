// Package mock provides test doubles for the text generator and the symptom
// extractor so callers can be tested without a model server.
//
//	gen := mock.NewGenerator()
//	gen.GenerateFunc = func(ctx context.Context, role, query string) (string, error) {
//	    return "", generator.ErrGenerationUnavailable
//	}
package mock

import (
	"context"
	"sync"

	"github.com/giygas/symptoms-api/interfaces"
	"github.com/giygas/symptoms-api/tokenizer"
)

var (
	_ interfaces.TextGenerator    = (*Generator)(nil)
	_ interfaces.SymptomExtractor = (*Extractor)(nil)
)

// Generator is a test double for interfaces.TextGenerator.
type Generator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, Generate echoes the role and query.
	GenerateFunc func(ctx context.Context, role, query string) (string, error)

	mu        sync.Mutex
	callCount int
	lastRole  string
}

// NewGenerator creates a mock generator with default behavior.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate implements interfaces.TextGenerator.
func (g *Generator) Generate(ctx context.Context, role, query string) (string, error) {
	g.mu.Lock()
	g.callCount++
	g.lastRole = role
	fn := g.GenerateFunc
	g.mu.Unlock()

	if fn != nil {
		return fn(ctx, role, query)
	}
	return "generated for " + role + ": " + query, nil
}

// CallCount returns the number of Generate calls.
func (g *Generator) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.callCount
}

// LastRole returns the role of the most recent call.
func (g *Generator) LastRole() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastRole
}

// Extractor is a test double for interfaces.SymptomExtractor.
type Extractor struct {
	// ExtractFunc is called by ExtractSymptoms if set.
	// If nil, the lexical tokenizer is used.
	ExtractFunc func(ctx context.Context, text string) ([]string, error)

	mu        sync.Mutex
	callCount int
}

// NewExtractor creates a mock extractor with default behavior.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractSymptoms implements interfaces.SymptomExtractor.
func (e *Extractor) ExtractSymptoms(ctx context.Context, text string) ([]string, error) {
	e.mu.Lock()
	e.callCount++
	fn := e.ExtractFunc
	e.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	return tokenizer.Tokens(text), nil
}

// CallCount returns the number of ExtractSymptoms calls.
func (e *Extractor) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.callCount
}
