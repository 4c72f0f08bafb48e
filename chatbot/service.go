// Package chatbot answers free-text symptom queries: it validates the query,
// matches it against the current dataset snapshot and, when nothing matches,
// optionally delegates to a text generator.
package chatbot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/giygas/symptoms-api/composer"
	"github.com/giygas/symptoms-api/interfaces"
	"github.com/giygas/symptoms-api/logging"
	"github.com/giygas/symptoms-api/matcher"
	"github.com/giygas/symptoms-api/metrics"
	"github.com/giygas/symptoms-api/tokenizer"
)

// DefaultGenerationTimeout bounds a fallback generation call
const DefaultGenerationTimeout = 20 * time.Second

// Request is one query to answer. Empty Role and Strategy use the service defaults.
type Request struct {
	Query    string `json:"query"`
	Role     string `json:"role,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	All      bool   `json:"all,omitempty"`
}

// Service runs the query pipeline. It is safe for concurrent use.
type Service struct {
	store     interfaces.DataStore
	validator interfaces.DataValidator
	extractor interfaces.SymptomExtractor
	generator interfaces.TextGenerator

	strategy          matcher.StrategyName
	threshold         float64
	generationTimeout time.Duration
	logger            *slog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithGenerator enables the generation fallback for unmatched queries
func WithGenerator(g interfaces.TextGenerator) Option {
	return func(s *Service) {
		s.generator = g
	}
}

// WithStrategy sets the strategy used when a request names none
func WithStrategy(name matcher.StrategyName) Option {
	return func(s *Service) {
		if name != "" {
			s.strategy = name
		}
	}
}

// WithThreshold sets the minimum overlap score
func WithThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 && threshold <= 1 {
			s.threshold = threshold
		}
	}
}

// WithGenerationTimeout bounds each generation call
func WithGenerationTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.generationTimeout = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a Service. A nil extractor means the lexical tokenizer.
func NewService(store interfaces.DataStore, validator interfaces.DataValidator, extractor interfaces.SymptomExtractor, opts ...Option) *Service {
	if extractor == nil {
		extractor = tokenizer.Lexical{}
	}

	s := &Service{
		store:             store,
		validator:         validator,
		extractor:         extractor,
		strategy:          matcher.StrategyExact,
		threshold:         matcher.DefaultThreshold,
		generationTimeout: DefaultGenerationTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Component("chatbot")
	}
	return s
}

// DefaultStrategy returns the strategy used when a request names none
func (s *Service) DefaultStrategy() matcher.StrategyName {
	return s.strategy
}

// Answer runs the pipeline for req. Only validation failures are returned as errors;
// no match and failed generation are reported in the Response.
func (s *Service) Answer(ctx context.Context, req Request) (composer.Response, error) {
	if err := s.validator.ValidateQuery(req.Query); err != nil {
		return composer.Response{}, err
	}

	role, err := s.validator.ValidateRole(req.Role)
	if err != nil {
		return composer.Response{}, err
	}

	name, err := s.validator.ValidateStrategy(req.Strategy)
	if err != nil {
		return composer.Response{}, err
	}
	if name == "" {
		name = s.strategy
	}

	strategy, err := matcher.NewStrategy(name, s.threshold)
	if err != nil {
		return composer.Response{}, err
	}

	query := matcher.Query{Text: req.Query}
	if name == matcher.StrategyOverlap {
		query.Tokens = s.extract(ctx, req.Query)
	}

	matches := strategy.Match(query, s.store.GetIndex())

	var resp composer.Response
	if req.All {
		resp = composer.ComposeAll(matches, name)
	} else {
		resp = composer.Compose(matches, name)
	}

	if len(matches) > 0 && name == matcher.StrategyOverlap {
		metrics.MatchBestScore.Observe(matches[0].Score)
	}

	if resp.NotFound() && s.generator != nil {
		resp = s.generate(ctx, name, role, req.Query)
	}

	metrics.MatchQueriesTotal.WithLabelValues(string(name), string(resp.Kind)).Inc()
	s.logger.Debug("Query answered",
		"strategy", name,
		"outcome", resp.Kind,
		"matches", len(matches),
	)

	return resp, nil
}

func (s *Service) extract(ctx context.Context, text string) []string {
	tokens, err := s.extractor.ExtractSymptoms(ctx, text)
	if err != nil {
		s.logger.Warn("Symptom extraction failed, using lexical tokens", "error", err)
		return tokenizer.Tokens(text)
	}
	return tokens
}

func (s *Service) generate(ctx context.Context, strategy matcher.StrategyName, role, query string) composer.Response {
	genCtx, cancel := context.WithTimeout(ctx, s.generationTimeout)
	defer cancel()

	text, err := s.generator.Generate(genCtx, role, query)
	if err != nil {
		status := metrics.StatusFailure
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			status = "timeout"
		}
		metrics.GenerationRequestsTotal.WithLabelValues(status).Inc()
		s.logger.Warn("Fallback generation failed", "role", role, "error", err)
		return composer.GenerationFailed(strategy, err.Error())
	}

	metrics.GenerationRequestsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	return composer.Generated(strategy, text)
}
