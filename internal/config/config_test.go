package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/docqa/internal/errs"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DOCUMENT_PATH", "GOOGLE_API_KEY", "OPENAI_API_KEY", "GITHUB_TOKEN",
		"GENERATION_PROVIDER", "EMBEDDING_PROVIDER", "GEMINI_MODEL", "OPENAI_MODEL",
		"GEMINI_EMBED_MODEL", "OPENAI_EMBED_MODEL", "CHUNK_SIZE", "CHUNK_OVERLAP", "TOP_K",
		"VECTOR_STORE", "COLLECTION_NAME", "BADGER_PATH", "QDRANT_HOST", "QDRANT_PORT",
		"BACKEND_TIMEOUT", "OCR_PLAIN_TEXT", "PORT", "SERVER_MODE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultDocumentPath, cfg.DocumentPath)
	assert.Equal(t, "gemini", cfg.GenerationProvider)
	assert.Equal(t, "gemini", cfg.EmbeddingProvider)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, StoreMemory, cfg.VectorStore)
	assert.Equal(t, "my_collection", cfg.CollectionName)
	assert.Equal(t, 6334, cfg.QdrantPort)
	assert.Equal(t, 60*time.Second, cfg.BackendTimeout)
	assert.False(t, cfg.OCRPlainText)
	assert.False(t, cfg.ServerMode)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GENERATION_PROVIDER", "OpenAI")
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("CHUNK_SIZE", "200")
	t.Setenv("CHUNK_OVERLAP", "20")
	t.Setenv("TOP_K", "5")
	t.Setenv("VECTOR_STORE", "Qdrant")
	t.Setenv("BACKEND_TIMEOUT", "15s")
	t.Setenv("OCR_PLAIN_TEXT", "true")
	t.Setenv("SERVER_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.GenerationProvider)
	assert.Equal(t, 200, cfg.ChunkSize)
	assert.Equal(t, 20, cfg.ChunkOverlap)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, StoreQdrant, cfg.VectorStore)
	assert.Equal(t, 15*time.Second, cfg.BackendTimeout)
	assert.True(t, cfg.OCRPlainText)
	assert.True(t, cfg.ServerMode)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing google key", env: map[string]string{}},
		{name: "missing openai key", env: map[string]string{"GOOGLE_API_KEY": "k", "EMBEDDING_PROVIDER": "openai"}},
		{name: "unknown provider", env: map[string]string{"GOOGLE_API_KEY": "k", "GENERATION_PROVIDER": "claude"}},
		{name: "unknown store", env: map[string]string{"GOOGLE_API_KEY": "k", "VECTOR_STORE": "chroma"}},
		{name: "overlap not below size", env: map[string]string{"GOOGLE_API_KEY": "k", "CHUNK_SIZE": "50", "CHUNK_OVERLAP": "50"}},
		{name: "zero size", env: map[string]string{"GOOGLE_API_KEY": "k", "CHUNK_SIZE": "0"}},
		{name: "non-numeric size", env: map[string]string{"GOOGLE_API_KEY": "k", "CHUNK_SIZE": "big"}},
		{name: "bad timeout", env: map[string]string{"GOOGLE_API_KEY": "k", "BACKEND_TIMEOUT": "soon"}},
		{name: "bad bool", env: map[string]string{"GOOGLE_API_KEY": "k", "OCR_PLAIN_TEXT": "maybe"}},
		{name: "negative top k", env: map[string]string{"GOOGLE_API_KEY": "k", "TOP_K": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrConfiguration)
		})
	}
}
