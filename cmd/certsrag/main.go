// Command certsrag serves the healthcare-certification question
// answering API: it ingests the markdown corpus, indexes it into a
// vector store, and exposes the agentic pipeline over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	openaiembedder "github.com/tomenglish23/healthcare-certs-rag/contrib/embedder/openai"
	claudeprovider "github.com/tomenglish23/healthcare-certs-rag/contrib/provider/claude"
	geminiprovider "github.com/tomenglish23/healthcare-certs-rag/contrib/provider/gemini"
	openaiprovider "github.com/tomenglish23/healthcare-certs-rag/contrib/provider/openai"
	"github.com/tomenglish23/healthcare-certs-rag/contrib/vector/inmemory"
	"github.com/tomenglish23/healthcare-certs-rag/contrib/vector/pg"

	"github.com/tomenglish23/healthcare-certs-rag/config"
	"github.com/tomenglish23/healthcare-certs-rag/pkg/logging"
	"github.com/tomenglish23/healthcare-certs-rag/pkg/telemetry"
	"github.com/tomenglish23/healthcare-certs-rag/provider"
	"github.com/tomenglish23/healthcare-certs-rag/rag/agentic"
	"github.com/tomenglish23/healthcare-certs-rag/rag/index"
	"github.com/tomenglish23/healthcare-certs-rag/rag/ingest"
	"github.com/tomenglish23/healthcare-certs-rag/rag/visibility"
	"github.com/tomenglish23/healthcare-certs-rag/server"
	"github.com/tomenglish23/healthcare-certs-rag/vector"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	// Missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := logging.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "certs-rag",
		Environment: os.Getenv("CERTSRAG_ENV"),
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	llm, cleanup, err := buildProvider(ctx, cfg)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	embedder := openaiembedder.New(cfg.Embedding.APIKey, cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.Dimension)

	idx, err := index.New(store, embedder)
	if err != nil {
		return err
	}

	// Serve immediately; endpoints answer 503 until ingestion finishes.
	srv := server.New(cfg)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Run(ctx) }()

	loader, err := ingest.NewLoader(
		ingest.WithMaxTokens(cfg.Corpus.MaxTokens),
		ingest.WithOverlapTokens(cfg.Corpus.OverlapTokens),
	)
	if err != nil {
		return err
	}
	corpus, err := loader.LoadFile(ctx, cfg.Corpus.Path)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	logger.Info("corpus loaded", "path", cfg.Corpus.Path, "chunks", len(corpus.Chunks))

	if err := idx.IndexChunks(ctx, corpus.Chunks...); err != nil {
		return fmt.Errorf("index corpus: %w", err)
	}

	pipe, err := agentic.NewPipeline(llm, idx, corpus.Catalog,
		agentic.WithCritic(cfg.Pipeline.EnableCritic),
		agentic.WithMaxQueries(cfg.Pipeline.MaxQueries),
		agentic.WithMaxEvidence(cfg.Pipeline.MaxEvidence),
	)
	if err != nil {
		return err
	}
	explorer, err := visibility.New(llm, idx)
	if err != nil {
		return err
	}

	srv.Ready(pipe, explorer, corpus.Catalog, corpus.Chunks, llm)
	logger.Info("service initialised",
		"provider", cfg.Provider.Name,
		"store", cfg.Store.Driver,
		"addr", cfg.Addr(),
	)

	return <-serveErr
}

func buildProvider(ctx context.Context, cfg *config.Config) (provider.Completer, func() error, error) {
	pcfg := &provider.Config{
		APIKey:      cfg.Provider.APIKey,
		BaseURL:     cfg.Provider.BaseURL,
		Model:       cfg.Provider.Model,
		MaxTokens:   cfg.Provider.MaxTokens,
		Temperature: cfg.Provider.Temperature,
	}
	switch cfg.Provider.Name {
	case "claude":
		return claudeprovider.New(pcfg), nil, nil
	case "gemini":
		p, err := geminiprovider.New(ctx, pcfg)
		if err != nil {
			return nil, nil, fmt.Errorf("init gemini: %w", err)
		}
		return p, p.Close, nil
	default:
		return openaiprovider.New(pcfg), nil, nil
	}
}

func buildStore(cfg *config.Config) (vector.VectorStore, error) {
	if cfg.Store.Driver == "postgres" {
		return pg.NewPGVectorStore(&pg.PGVectorConfig{
			DSN:       cfg.Store.DSN,
			Dimension: cfg.Embedding.Dimension,
		})
	}
	return inmemory.NewInMemoryVectorStore(), nil
}
