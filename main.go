package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/giygas/symptoms-api/chatbot"
	"github.com/giygas/symptoms-api/conditionsparser"
	"github.com/giygas/symptoms-api/config"
	"github.com/giygas/symptoms-api/data"
	"github.com/giygas/symptoms-api/generator"
	"github.com/giygas/symptoms-api/generator/openai"
	"github.com/giygas/symptoms-api/handlers"
	"github.com/giygas/symptoms-api/health"
	"github.com/giygas/symptoms-api/interfaces"
	"github.com/giygas/symptoms-api/logging"
	"github.com/giygas/symptoms-api/matcher"
	"github.com/giygas/symptoms-api/scheduler"
	"github.com/giygas/symptoms-api/server"
	"github.com/giygas/symptoms-api/tokenizer"
	"github.com/giygas/symptoms-api/validation"
	"github.com/joho/godotenv"
)

func loadEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}

	// If failed, try loading from executable directory
	ex, err := os.Executable()
	if err != nil {
		logging.Error("Failed to get executable path", "error", err)
		os.Exit(1)
	}
	if err := os.Chdir(filepath.Dir(ex)); err != nil {
		logging.Error("Failed to change directory", "error", err)
		os.Exit(1)
	}
	_ = godotenv.Load()
}

// newService builds the chatbot with the extractor and generator selected by cfg.
// The returned provider is nil when generation is disabled.
func newService(cfg *config.Config, dataStore interfaces.DataStore, validator interfaces.DataValidator) (*chatbot.Service, *openai.Provider) {
	opts := []chatbot.Option{
		chatbot.WithStrategy(matcher.StrategyName(cfg.MatchStrategy)),
		chatbot.WithThreshold(cfg.MatchThreshold),
		chatbot.WithGenerationTimeout(cfg.GeneratorTimeout),
	}

	var extractor interfaces.SymptomExtractor = tokenizer.Lexical{}
	var provider *openai.Provider

	if cfg.GeneratorEnabled {
		genConfig := generator.NewConfig(
			generator.WithHost(cfg.GeneratorHost),
			generator.WithModel(cfg.GeneratorModel),
			generator.WithToken(cfg.GeneratorToken),
		)

		p, err := openai.NewProvider(genConfig)
		if err != nil {
			// Matching still works without a generator
			logging.Error("Failed to create generation provider, fallback disabled", "error", err)
		} else {
			provider = p
			opts = append(opts, chatbot.WithGenerator(provider.TextGenerator()))
			if cfg.SymptomExtractor == config.ExtractorLLM {
				extractor = provider.SymptomExtractor()
			}
			logging.Info("Generation fallback enabled", "host", cfg.GeneratorHost, "model", cfg.GeneratorModel, "extractor", cfg.SymptomExtractor)
		}
	}

	return chatbot.NewService(dataStore, validator, extractor, opts...), provider
}

func main() {
	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLoggerWithConfig(cfg, "logs")
	defer func() {
		if err := logging.Close(); err != nil {
			logging.Error("Failed to close logger", "error", err)
		}
	}()

	dataContainer := data.NewDataContainer()
	dataContainer.SetServerStartTime(time.Now())

	parser := conditionsparser.NewConditionsParser(cfg.DatasetSource, cfg.DatasetPath, cfg.DatasetEncoding)
	validator := validation.NewDataValidator()

	sched := scheduler.NewScheduler(dataContainer, parser, validator, cfg.ReloadInterval)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	service, provider := newService(cfg, dataContainer, validator)
	if provider != nil {
		defer func() {
			if err := provider.Close(); err != nil {
				logging.Warn("Failed to close generation provider", "error", err)
			}
		}()
	}

	healthChecker := health.NewHealthChecker(dataContainer, cfg.ReloadInterval)
	httpHandler := handlers.NewHTTPHandler(dataContainer, validator, healthChecker, service)
	srv := server.NewServer(cfg, httpHandler)

	// Profiling endpoint (accessible at /debug/pprof/) - only for local dev
	if cfg.Env == config.EnvDevelopment {
		go func() {
			logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
			if err := http.ListenAndServe("localhost:6060", nil); err != nil {
				logging.Error("Profiling server failed", "error", err)
			}
		}()
	}

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Block until a signal is received
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server shutdown failed", "error", err)
	}
}
