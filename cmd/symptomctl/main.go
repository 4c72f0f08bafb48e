// Command symptomctl answers symptom queries against a dataset file without the
// HTTP server, and maintains the SQLite copy of the dataset.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/giygas/symptoms-api/chatbot"
	"github.com/giygas/symptoms-api/composer"
	"github.com/giygas/symptoms-api/conditionsparser"
	"github.com/giygas/symptoms-api/data"
	"github.com/giygas/symptoms-api/generator"
	"github.com/giygas/symptoms-api/generator/openai"
	"github.com/giygas/symptoms-api/logging"
	"github.com/giygas/symptoms-api/matcher"
	"github.com/giygas/symptoms-api/scheduler"
	"github.com/giygas/symptoms-api/validation"
	"github.com/panjf2000/ants/v2"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	matchFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "strategy",
			Aliases: []string{"s"},
			Usage:   "Matching strategy (exact, overlap)",
			Value:   string(matcher.StrategyExact),
		},
		&cli.Float64Flag{
			Name:  "threshold",
			Usage: "Minimum overlap score for the overlap strategy",
			Value: matcher.DefaultThreshold,
		},
		&cli.StringFlag{
			Name:  "role",
			Usage: "Audience of generated answers (patient, doctor, general)",
		},
		&cli.BoolFlag{
			Name:  "all",
			Usage: "Include every match in structured form",
		},
		&cli.BoolFlag{
			Name:  "generate",
			Usage: "Ask the generation backend when nothing matches",
		},
	}

	return &cli.App{
		Name:  "symptomctl",
		Usage: "Match symptoms against the medical conditions dataset",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dataset",
				Aliases: []string{"d"},
				Usage:   "Path to the dataset (JSON file or SQLite database)",
				Value:   "medicaldata.json",
				EnvVars: []string{"DATASET_PATH"},
			},
			&cli.StringFlag{
				Name:    "source",
				Usage:   "Dataset source (json, sqlite)",
				Value:   conditionsparser.SourceJSON,
				EnvVars: []string{"DATASET_SOURCE"},
			},
			&cli.StringFlag{
				Name:    "encoding",
				Usage:   "JSON dataset encoding (auto, utf-8, latin1, windows-1252)",
				Value:   "auto",
				EnvVars: []string{"DATASET_ENCODING"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:    "generator-host",
				Usage:   "OpenAI-compatible API base URL",
				Value:   "http://localhost:11434/v1",
				EnvVars: []string{"GENERATOR_HOST"},
			},
			&cli.StringFlag{
				Name:    "generator-model",
				Usage:   "Generation model name",
				Value:   "qwen2.5:3b",
				EnvVars: []string{"GENERATOR_MODEL"},
			},
			&cli.StringFlag{
				Name:    "generator-token",
				Usage:   "Generation API token",
				Value:   "none",
				EnvVars: []string{"GENERATOR_TOKEN"},
			},
			&cli.DurationFlag{
				Name:  "generator-timeout",
				Usage: "Time limit of one generation call",
				Value: chatbot.DefaultGenerationTimeout,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "query",
				Usage:     "Answer a symptom description as text",
				ArgsUsage: "<symptoms...>",
				Action:    queryCommand,
				Flags:     matchFlags,
			},
			{
				Name:      "match",
				Usage:     "Answer a symptom description as JSON",
				ArgsUsage: "<symptoms...>",
				Action:    matchCommand,
				Flags:     matchFlags,
			},
			{
				Name:   "batch",
				Usage:  "Answer one query per input line, writing JSON lines in input order",
				Action: batchCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "File with one query per line, - for stdin",
						Value:   "-",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of queries answered concurrently",
						Value: runtime.NumCPU(),
					},
				}, matchFlags...),
			},
			{
				Name:   "validate",
				Usage:  "Load the dataset and print its quality report",
				Action: validateCommand,
			},
			{
				Name:   "import",
				Usage:  "Copy the dataset into a SQLite database",
				Action: importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "sqlite",
						Usage:    "Path of the SQLite database to write",
						Required: true,
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	level := strings.ToLower(c.String("log-level"))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", level)
	}

	logging.InitConsole(level)
	return nil
}

// loadDataset runs the same load and validation pass as the server
func loadDataset(c *cli.Context) (*data.DataContainer, error) {
	store := data.NewDataContainer()
	parser := conditionsparser.NewConditionsParser(c.String("source"), c.String("dataset"), c.String("encoding"))

	loader := scheduler.NewScheduler(store, parser, validation.NewDataValidator(), 0)
	if err := loader.Reload(c.Context); err != nil {
		return nil, err
	}
	return store, nil
}

func newService(c *cli.Context, store *data.DataContainer) (*chatbot.Service, error) {
	validator := validation.NewDataValidator()
	opts := []chatbot.Option{
		chatbot.WithThreshold(c.Float64("threshold")),
		chatbot.WithGenerationTimeout(c.Duration("generator-timeout")),
	}

	if c.Bool("generate") {
		provider, err := openai.NewProvider(generator.NewConfig(
			generator.WithHost(c.String("generator-host")),
			generator.WithModel(c.String("generator-model")),
			generator.WithToken(c.String("generator-token")),
		))
		if err != nil {
			return nil, fmt.Errorf("create generation provider: %w", err)
		}
		opts = append(opts, chatbot.WithGenerator(provider.TextGenerator()))
	}

	return chatbot.NewService(store, validator, nil, opts...), nil
}

func requestFrom(c *cli.Context, query string) chatbot.Request {
	return chatbot.Request{
		Query:    query,
		Role:     c.String("role"),
		Strategy: c.String("strategy"),
		All:      c.Bool("all"),
	}
}

func answerArgs(c *cli.Context) (composer.Response, error) {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return composer.Response{}, errors.New("a symptom description is required")
	}

	store, err := loadDataset(c)
	if err != nil {
		return composer.Response{}, err
	}
	service, err := newService(c, store)
	if err != nil {
		return composer.Response{}, err
	}

	return service.Answer(c.Context, requestFrom(c, query))
}

func queryCommand(c *cli.Context) error {
	resp, err := answerArgs(c)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, resp.Text())
	if resp.Error != "" {
		fmt.Fprintln(c.App.ErrWriter, "generation failed:", resp.Error)
	}
	return nil
}

func matchCommand(c *cli.Context) error {
	resp, err := answerArgs(c)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(c.App.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

type batchResult struct {
	Line     int                `json:"line"`
	Query    string             `json:"query"`
	Response *composer.Response `json:"response,omitempty"`
	Error    string             `json:"error,omitempty"`
}

func readQueries(r io.Reader) ([]batchResult, error) {
	var queries []batchResult
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		queries = append(queries, batchResult{Line: line, Query: text})
	}
	return queries, scanner.Err()
}

func batchCommand(c *cli.Context) error {
	input := io.Reader(os.Stdin)
	if path := c.String("input"); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		input = f
	}

	results, err := readQueries(input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	store, err := loadDataset(c)
	if err != nil {
		return err
	}
	service, err := newService(c, store)
	if err != nil {
		return err
	}

	workers := c.Int("workers")
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	start := time.Now()
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		// Each task writes only its own slot
		err := pool.Submit(func() {
			defer wg.Done()
			resp, err := service.Answer(c.Context, requestFrom(c, results[i].Query))
			if err != nil {
				results[i].Error = err.Error()
				return
			}
			results[i].Response = &resp
		})
		if err != nil {
			wg.Done()
			results[i].Error = err.Error()
		}
	}
	wg.Wait()

	encoder := json.NewEncoder(c.App.Writer)
	for _, result := range results {
		if err := encoder.Encode(result); err != nil {
			return err
		}
	}

	logging.Info("Batch completed", "queries", len(results), "workers", workers, "duration", time.Since(start).String())
	return nil
}

func validateCommand(c *cli.Context) error {
	store, err := loadDataset(c)
	if err != nil {
		return err
	}

	report := store.GetQualityReport()
	encoder := json.NewEncoder(c.App.Writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(struct {
		Conditions int `json:"conditions"`
		Symptoms   int `json:"symptoms"`
		Report     any `json:"report"`
	}{
		Conditions: store.GetIndex().Len(),
		Symptoms:   store.GetIndex().SymptomCount(),
		Report:     report,
	}); err != nil {
		return err
	}

	if store.GetIndex().Len() == 0 {
		return errors.New("dataset has no usable conditions")
	}
	return nil
}

func importCommand(c *cli.Context) error {
	store, err := loadDataset(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, 5*time.Minute)
	defer cancel()

	conditions := store.GetConditions()
	if err := conditionsparser.SeedSQLite(ctx, c.String("sqlite"), conditions); err != nil {
		return fmt.Errorf("import into %s: %w", c.String("sqlite"), err)
	}

	fmt.Fprintf(c.App.Writer, "Imported %d conditions into %s\n", len(conditions), c.String("sqlite"))
	return nil
}
