// Package config reads the runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bull/docqa/internal/chunker"
	"github.com/bull/docqa/internal/embedding"
	"github.com/bull/docqa/internal/errs"
	"github.com/bull/docqa/internal/index"
	"github.com/bull/docqa/internal/llm"
	"github.com/bull/docqa/internal/storage"
)

// Vector store kinds.
const (
	StoreMemory = "memory"
	StoreBadger = "badger"
	StoreQdrant = "qdrant"
)

// DefaultDocumentPath is the document ingested when DOCUMENT_PATH is unset.
const DefaultDocumentPath = "The_Gift_of_the_Magi.pdf"

// Config holds every setting of a session and its hosts.
type Config struct {
	DocumentPath string

	GoogleAPIKey string
	OpenAIAPIKey string
	GitHubToken  string

	GenerationProvider string
	EmbeddingProvider  string
	GeminiModel        string
	OpenAIModel        string
	GeminiEmbedModel   string
	OpenAIEmbedModel   string

	ChunkSize    int
	ChunkOverlap int
	TopK         int

	VectorStore    string
	CollectionName string
	BadgerPath     string
	QdrantHost     string
	QdrantPort     int

	BackendTimeout time.Duration
	OCRPlainText   bool

	Port       string
	ServerMode bool
}

// Load reads the configuration from the environment and validates it.
// Errors match errs.ErrConfiguration.
func Load() (*Config, error) {
	cfg := &Config{
		DocumentPath: getEnv("DOCUMENT_PATH", DefaultDocumentPath),

		GoogleAPIKey: os.Getenv("GOOGLE_API_KEY"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		GitHubToken:  os.Getenv("GITHUB_TOKEN"),

		GenerationProvider: getEnv("GENERATION_PROVIDER", llm.ProviderGemini),
		EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", llm.ProviderGemini),
		GeminiModel:        getEnv("GEMINI_MODEL", llm.DefaultGeminiModel),
		OpenAIModel:        getEnv("OPENAI_MODEL", llm.DefaultOpenAIModel),
		GeminiEmbedModel:   getEnv("GEMINI_EMBED_MODEL", embedding.DefaultGeminiModel),
		OpenAIEmbedModel:   getEnv("OPENAI_EMBED_MODEL", embedding.DefaultOpenAIModel),

		VectorStore:    strings.ToLower(getEnv("VECTOR_STORE", StoreMemory)),
		CollectionName: getEnv("COLLECTION_NAME", storage.DefaultCollectionName),
		BadgerPath:     getEnv("BADGER_PATH", "./data/docqa"),
		QdrantHost:     getEnv("QDRANT_HOST", "localhost"),

		Port:       getEnv("PORT", "8080"),
		ServerMode: getEnv("SERVER_MODE", "false") == "true",
	}

	var err error
	if cfg.ChunkSize, err = getEnvInt("CHUNK_SIZE", chunker.DefaultSize); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", chunker.DefaultOverlap); err != nil {
		return nil, err
	}
	if cfg.TopK, err = getEnvInt("TOP_K", index.DefaultTopK); err != nil {
		return nil, err
	}
	if cfg.QdrantPort, err = getEnvInt("QDRANT_PORT", 6334); err != nil {
		return nil, err
	}
	if cfg.BackendTimeout, err = getEnvDuration("BACKEND_TIMEOUT", llm.DefaultTimeout); err != nil {
		return nil, err
	}
	if cfg.OCRPlainText, err = getEnvBool("OCR_PLAIN_TEXT", false); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks provider names, credentials, store kind and chunk parameters.
func (c *Config) Validate() error {
	var err error
	if c.GenerationProvider, err = llm.ParseProvider(c.GenerationProvider); err != nil {
		return err
	}
	if c.EmbeddingProvider, err = llm.ParseProvider(c.EmbeddingProvider); err != nil {
		return err
	}

	for _, provider := range []string{c.GenerationProvider, c.EmbeddingProvider} {
		switch {
		case provider == llm.ProviderGemini && c.GoogleAPIKey == "":
			return fmt.Errorf("%w: GOOGLE_API_KEY is required for the gemini provider", errs.ErrConfiguration)
		case provider == llm.ProviderOpenAI && c.OpenAIAPIKey == "":
			return fmt.Errorf("%w: OPENAI_API_KEY is required for the openai provider", errs.ErrConfiguration)
		}
	}

	switch c.VectorStore {
	case StoreMemory, StoreBadger, StoreQdrant:
	default:
		return fmt.Errorf("%w: unknown VECTOR_STORE %q: %w", errs.ErrConfiguration, c.VectorStore, storage.ErrUnknownStore)
	}

	if _, err := chunker.New(c.ChunkSize, c.ChunkOverlap); err != nil {
		return err
	}
	if c.TopK <= 0 {
		return fmt.Errorf("%w: TOP_K must be positive, got %d", errs.ErrConfiguration, c.TopK)
	}
	if c.CollectionName == "" {
		return fmt.Errorf("%w: COLLECTION_NAME must not be empty", errs.ErrConfiguration)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", errs.ErrConfiguration, key, v)
	}
	return i, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean, got %q", errs.ErrConfiguration, key, v)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a duration, got %q", errs.ErrConfiguration, key, v)
	}
	return d, nil
}
