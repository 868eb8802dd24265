package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/gops/agent"
	"github.com/joho/godotenv"
	"github.com/viant/afs"
	"github.com/viant/afs/url"

	"docrank/internal/config"
	"docrank/internal/descriptor"
	"docrank/internal/domain"
	"docrank/internal/embedding"
	"docrank/internal/embedding/ollama"
	"docrank/internal/embedding/openai"
	"docrank/internal/embedding/tfidf"
	"docrank/internal/extract"
	"docrank/internal/logging"
	"docrank/internal/rank"
	"docrank/internal/service"
	"docrank/internal/summarizer"
	"docrank/internal/tui"
	"docrank/internal/vectorstore"
	"docrank/internal/vectorstore/memory"
	"docrank/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath   string
		inputDir  string
		outputDir string
		topK      int
		view      bool
		withGops  bool
		noColor   bool
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docrank/config.yaml if not provided)")
	flag.StringVar(&inputDir, "input", "", "Input location holding the descriptor and documents (overrides config)")
	flag.StringVar(&outputDir, "output", "", "Output location for the result file (overrides config)")
	flag.IntVar(&topK, "top-k", 0, "Number of documents to select (overrides config)")
	flag.BoolVar(&view, "view", false, "Browse ranked sections in a terminal UI after the run")
	flag.BoolVar(&withGops, "gops", false, "Start a gops diagnostics agent")
	flag.BoolVar(&noColor, "no-color", false, "Disable colored console output")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if inputDir != "" {
		cfg.Input.Dir = inputDir
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if topK > 0 {
		cfg.Ranking.TopK = topK
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}
	slog.SetDefault(logger)
	console := logging.NewConsole(os.Stdout, noColor || cfg.Log.NoColor)

	if withGops {
		if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
			log.Fatalf("gops agent: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Assemble components
	var emb embedding.Embedder
	switch cfg.Embedder.Type {
	case "tfidf", "":
		emb = tfidf.NewEmbedder()
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatalf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:    cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv:  cfg.Embedder.OpenAI.APIKeyEnv,
			Model:      cfg.Embedder.OpenAI.Model,
			Timeout:    time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Embedder.OpenAI.MaxRetries,
			AllowNoKey: cfg.Embedder.OpenAI.AllowNoKey,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		emb = client
	case "ollama":
		if cfg.Embedder.Ollama == nil {
			log.Fatalf("ollama embedder config missing")
		}
		client, err := ollama.NewClient(ollama.Config{
			Host:       cfg.Embedder.Ollama.Host,
			Model:      cfg.Embedder.Ollama.Model,
			Timeout:    time.Duration(cfg.Embedder.Ollama.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Embedder.Ollama.MaxRetries,
		})
		if err != nil {
			log.Fatalf("ollama embedder init failed: %v", err)
		}
		emb = client
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var st vectorstore.Storage
	switch cfg.VectorStore.Type {
	case "memory", "":
		st = memory.NewStorage()
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			log.Fatalf("qdrant config missing")
		}
		qs, err := qdrant.NewStorage(qdrant.Config{
			Address:    cfg.VectorStore.Qdrant.Address,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("qdrant init failed: %v", err)
		}
		defer qs.Close()
		st = qs
	default:
		log.Fatalf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	var sum domain.Summarizer
	switch cfg.Summarizer.Type {
	case "frequency", "":
		sum = summarizer.NewFrequencySummarizer()
	case "none":
	default:
		log.Fatalf("unknown summarizer: %s", cfg.Summarizer.Type)
	}

	fs := afs.New()
	inputURL := location(cfg.Input.Dir)
	desc, err := descriptor.Load(ctx, fs, url.Join(inputURL, cfg.Input.Descriptor))
	if err != nil {
		log.Fatalf("failed to load descriptor: %v", err)
	}

	extractor := extract.New(extract.Options{
		MinChars:      cfg.Extractor.MinChars,
		TitleMaxChars: cfg.Extractor.TitleMaxChars,
		Logger:        logger,
	})
	svc := service.NewRankService(fs, extractor, rank.NewScorer(emb, st, logger), sum, service.Options{
		Workers:             cfg.Extractor.Workers,
		TopK:                cfg.Ranking.TopK,
		OutputCap:           cfg.Ranking.OutputCap,
		SummaryMaxSentences: cfg.Summarizer.MaxSentences,
		Logger:              logger,
		Reporter:            console,
	})

	outputURL := url.Join(location(cfg.Output.Dir), cfg.Output.File)
	outcome, _, err := svc.Run(ctx, service.Request{
		Persona:   desc.Persona.Role,
		Task:      desc.JobToBeDone.Task,
		InputDir:  inputURL,
		Documents: desc.Filenames(),
		OutputURL: outputURL,
	})
	if errors.Is(err, domain.ErrEmptyCandidateSet) {
		console.Warn("No valid sections found in any document.")
		return
	}
	if err != nil {
		log.Fatalf("ranking failed: %v", err)
	}
	console.Success("Results saved to %s", outputURL)

	if view {
		summary := svc.Summary(outcome.Ranked)
		m := tui.New(svc, desc.Persona.Role, desc.JobToBeDone.Task, summary, outcome.Ranked)
		if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
			log.Fatal(err)
		}
	}
}

// location turns a local path into an absolute one; afs URLs pass through.
func location(p string) string {
	if strings.Contains(p, "://") {
		return p
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve %s: %v\n", p, err)
		return p
	}
	return abs
}
