// Package file loads PolicyPal configuration from a TOML file.
//
// The file lives at ~/.policypal/config.toml by default. A missing file
// is not an error: every setting has a default, and API keys can come
// from the environment.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Provider names accepted in the embedding and llm sections.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderGemini    = "gemini"
	ProviderNone      = "none"
)

// Vector backend names.
const (
	BackendMemory = "memory"
	BackendQdrant = "qdrant"
)

// Config is the full application configuration.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Chunker   ChunkerConfig   `toml:"chunker"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Embedding ProviderConfig  `toml:"embedding"`
	LLM       ProviderConfig  `toml:"llm"`
	Vector    VectorConfig    `toml:"vector"`
	Feed      FeedConfig      `toml:"feed"`
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	// DataDir holds the database file (default: ~/.policypal/data).
	DataDir string `toml:"data_dir"`
}

// ChunkerConfig tunes document splitting.
type ChunkerConfig struct {
	// ChunkSize is the chunk length in characters (default: 1000).
	ChunkSize int `toml:"chunk_size"`

	// Overlap is how many characters consecutive chunks share
	// (default: 200).
	Overlap int `toml:"overlap"`
}

// RetrievalConfig tunes similarity search.
type RetrievalConfig struct {
	// TopK is the default result count (default: 5).
	TopK int `toml:"top_k"`

	// MinSimilarity is the relevance floor (default: 0.30).
	MinSimilarity float64 `toml:"min_similarity"`

	// MaxPerDocument caps chunks per order in a result set (default: 3).
	MaxPerDocument int `toml:"max_per_document"`
}

// ProviderConfig selects and configures an external model provider.
// The same shape serves both the embedding and llm sections.
type ProviderConfig struct {
	// Provider is one of openai, anthropic, ollama, gemini; the llm
	// section also accepts none (default: openai for embedding, openai
	// for llm).
	Provider string `toml:"provider"`

	// Model overrides the provider's default model.
	Model string `toml:"model"`

	// APIKey authenticates against the provider. Left empty, the
	// provider-specific environment variable is used.
	APIKey string `toml:"api_key"`

	// BaseURL overrides the provider endpoint (Ollama host, Azure
	// OpenAI, compatible APIs).
	BaseURL string `toml:"base_url"`

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration `toml:"timeout"`
}

// VectorConfig selects the vector index backend.
type VectorConfig struct {
	// Backend is memory or qdrant (default: memory).
	Backend string `toml:"backend"`

	// SnapshotPath is where the memory backend persists itself
	// (default: <data_dir>/index.snapshot).
	SnapshotPath string `toml:"snapshot_path"`

	// QdrantAddr is the qdrant gRPC address (default: localhost:6334).
	QdrantAddr string `toml:"qdrant_addr"`

	// QdrantCollection is the qdrant collection name
	// (default: executive_orders).
	QdrantCollection string `toml:"qdrant_collection"`
}

// FeedConfig configures upstream document sources.
type FeedConfig struct {
	// WatchDir is the directory `ingest watch` monitors when invoked
	// without a path argument.
	WatchDir string `toml:"watch_dir"`

	// RequestsPerSecond throttles Federal Register requests
	// (default: 2).
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Chunker: ChunkerConfig{
			ChunkSize: 1000,
			Overlap:   200,
		},
		Retrieval: RetrievalConfig{
			TopK:           5,
			MinSimilarity:  0.30,
			MaxPerDocument: 3,
		},
		Embedding: ProviderConfig{
			Provider: ProviderOpenAI,
		},
		LLM: ProviderConfig{
			Provider: ProviderOpenAI,
		},
		Vector: VectorConfig{
			Backend:          BackendMemory,
			QdrantAddr:       "localhost:6334",
			QdrantCollection: "executive_orders",
		},
		Feed: FeedConfig{
			RequestsPerSecond: 2,
		},
	}
}

// DefaultPath returns ~/.policypal/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".policypal", "config.toml"), nil
}

// Load reads the configuration at path, applying defaults for anything
// the file leaves unset. An empty path uses DefaultPath; a missing file
// yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating the directory if
// needed.
func Save(path string, cfg Config) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encoding: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

func (c Config) validate() error {
	switch c.Embedding.Provider {
	case ProviderOpenAI, ProviderOllama, ProviderGemini:
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderOllama, ProviderGemini, ProviderNone:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}

	switch c.Vector.Backend {
	case BackendMemory, BackendQdrant:
	default:
		return fmt.Errorf("unknown vector backend %q", c.Vector.Backend)
	}

	if c.Chunker.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive")
	}
	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.ChunkSize {
		return fmt.Errorf("overlap must be in [0, chunk_size)")
	}
	if c.Retrieval.MinSimilarity < 0 || c.Retrieval.MinSimilarity > 1 {
		return fmt.Errorf("min_similarity must be in [0, 1]")
	}
	return nil
}
