// Command policypal answers questions about U.S. Executive Orders from
// a locally ingested corpus.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/policypal/policypal/internal/adapters/driven/ai"
	"github.com/policypal/policypal/internal/adapters/driven/config/file"
	"github.com/policypal/policypal/internal/adapters/driven/feed/federalregister"
	"github.com/policypal/policypal/internal/adapters/driven/storage/sqlite"
	"github.com/policypal/policypal/internal/adapters/driven/vector/memory"
	"github.com/policypal/policypal/internal/adapters/driven/vector/qdrant"
	"github.com/policypal/policypal/internal/adapters/driving/cli"
	"github.com/policypal/policypal/internal/core/domain"
	"github.com/policypal/policypal/internal/core/ports/driven"
	"github.com/policypal/policypal/internal/core/services"
	"github.com/policypal/policypal/internal/postprocessors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := file.Load(os.Getenv("POLICYPAL_CONFIG"))
	if err != nil {
		return err
	}

	dataDir, err := resolveDataDir(cfg.Storage.DataDir)
	if err != nil {
		return err
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}
	defer store.Close()

	embedder, err := ai.CreateEmbeddingService(ctx, cfg.Embedding)
	if err != nil {
		return fmt.Errorf("configuring embedding provider: %w", err)
	}
	defer embedder.Close()

	llm, err := ai.CreateLLMService(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("configuring llm provider: %w", err)
	}
	if llm != nil {
		defer llm.Close()
	}

	index, saveIndex, err := openVectorIndex(ctx, cfg.Vector, dataDir, embedder.Dimensions())
	if err != nil {
		return err
	}
	defer saveIndex()

	pipeline, err := buildPipeline(cfg.Chunker)
	if err != nil {
		return err
	}

	ingest := services.NewIngestService(store, index, embedder, pipeline)
	retriever := services.NewRetrieverService(store, index, embedder, llm, services.RetrieverConfig{
		TopK:           cfg.Retrieval.TopK,
		MinSimilarity:  cfg.Retrieval.MinSimilarity,
		MaxPerDocument: cfg.Retrieval.MaxPerDocument,
	})
	documents := services.NewDocumentService(store, index)
	composer := services.NewComposerService(llm)
	composer.SetCorpusSummarizer(documents)
	chat := services.NewChatService(retriever, composer)

	feed := federalregister.NewFeed(federalregister.Config{
		RequestsPerSecond: cfg.Feed.RequestsPerSecond,
	})

	cli.SetServices(cli.Services{
		Ingest:    ingest,
		Retriever: retriever,
		Chat:      chat,
		Documents: documents,
		Feed:      feed,
		WatchDir:  cfg.Feed.WatchDir,
	})

	return cli.Execute()
}

// buildPipeline assembles the ingestion pipeline from the processor
// registry so chunker settings flow through the same builder path as
// any processor configured by name.
func buildPipeline(cfg file.ChunkerConfig) (*postprocessors.Pipeline, error) {
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)

	norm, err := registry.Build("textnorm", nil)
	if err != nil {
		return nil, fmt.Errorf("building textnorm processor: %w", err)
	}
	chunk, err := registry.Build("chunker", map[string]any{
		"chunk_size": cfg.ChunkSize,
		"overlap":    cfg.Overlap,
	})
	if err != nil {
		return nil, fmt.Errorf("building chunker processor: %w", err)
	}
	return postprocessors.NewPipeline(norm, chunk), nil
}

// resolveDataDir expands an empty data dir to ~/.policypal/data and
// creates it.
func resolveDataDir(dir string) (string, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving data dir: %w", err)
		}
		dir = filepath.Join(home, ".policypal", "data")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}
	return dir, nil
}

// openVectorIndex builds the configured vector backend. The memory
// backend loads its snapshot when one exists and returns a save
// function that persists the index on shutdown; a corrupt snapshot is
// replaced with an empty index so the corpus can be re-embedded with
// `ingest rebuild-index`. The qdrant backend persists server-side and
// saves nothing locally.
func openVectorIndex(ctx context.Context, cfg file.VectorConfig, dataDir string, dimension int) (driven.VectorIndex, func(), error) {
	switch cfg.Backend {
	case file.BackendQdrant:
		idx, err := qdrant.New(ctx, qdrant.Config{
			Addr:       cfg.QdrantAddr,
			Collection: cfg.QdrantCollection,
			Dimension:  dimension,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to qdrant: %w", err)
		}
		return idx, func() { idx.Close() }, nil

	case file.BackendMemory:
		path := cfg.SnapshotPath
		if path == "" {
			path = filepath.Join(dataDir, "index.snapshot")
		}

		idx, err := memory.Open(path, dimension)
		switch {
		case err == nil:
		case errors.Is(err, os.ErrNotExist):
			idx, err = memory.New(dimension)
		case errors.Is(err, domain.ErrIndexCorrupt):
			fmt.Fprintf(os.Stderr, "Warning: vector snapshot unusable (%v); starting empty, run `policypal ingest rebuild-index`\n", err)
			idx, err = memory.New(dimension)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("opening vector index: %w", err)
		}

		save := func() {
			if err := idx.SaveSnapshot(path); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: saving vector snapshot: %v\n", err)
			}
		}
		return idx, save, nil

	default:
		return nil, nil, fmt.Errorf("unsupported vector backend %q", cfg.Backend)
	}
}
