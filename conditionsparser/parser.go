// Package conditionsparser loads the medical conditions dataset from a JSON file or
// a SQLite database and normalizes every record into entities.Condition.
package conditionsparser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/giygas/symptoms-api/conditionsparser/entities"
	"github.com/giygas/symptoms-api/interfaces"
)

// Compile-time check to ensure ConditionsParser implements Parser interface
var _ interfaces.Parser = (*ConditionsParser)(nil)

// ErrDatasetLoad wraps every failure to read or decode the dataset
var ErrDatasetLoad = errors.New("dataset load failed")

// Dataset sources
const (
	SourceJSON   = "json"
	SourceSQLite = "sqlite"
)

// ConditionsParser implements the Parser interface
type ConditionsParser struct {
	source   string
	path     string
	encoding string
	logger   *slog.Logger
}

// NewConditionsParser creates a parser for the dataset at path. source is json or
// sqlite; encoding only applies to JSON files (auto, utf-8, latin1, windows-1252).
func NewConditionsParser(source, path, encoding string) *ConditionsParser {
	return &ConditionsParser{
		source:   strings.ToLower(source),
		path:     path,
		encoding: strings.ToLower(encoding),
		logger:   slog.Default().With("component", "conditionsparser"),
	}
}

// ParseConditions implements the Parser interface
func (p *ConditionsParser) ParseConditions(ctx context.Context) ([]entities.Condition, entities.LoadStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, entities.LoadStats{}, loadError("parse", err)
	}

	var (
		conditions []entities.Condition
		stats      entities.LoadStats
		err        error
	)

	switch p.source {
	case SourceJSON, "":
		conditions, stats, err = LoadJSONFile(p.path, p.encoding)
	case SourceSQLite:
		conditions, stats, err = LoadSQLite(ctx, p.path)
	default:
		return nil, entities.LoadStats{}, loadError("parse", fmt.Errorf("unknown source %q", p.source))
	}
	if err != nil {
		return nil, stats, err
	}

	p.logger.Info("Dataset parsed",
		"source", p.source,
		"path", p.path,
		"records", stats.Records,
		"loaded", stats.Loaded,
		"skipped", stats.Skipped,
		"malformed_fields", stats.MalformedFields)

	return conditions, stats, nil
}

func loadError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDatasetLoad, op, err)
}

// normalize applies the record defaults shared by every source
func normalize(c entities.Condition) entities.Condition {
	c.Name = strings.TrimSpace(c.Name)
	c.Symptoms = cleanList(c.Symptoms)
	c.Medications = cleanList(c.Medications)
	if strings.TrimSpace(c.Instructions) == "" {
		c.Instructions = entities.DefaultInstructions
	}
	return c
}

// cleanList trims entries, drops empty ones and never returns nil
func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
