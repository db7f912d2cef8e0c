package embedding

import (
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/docqa/internal/errs"
)

func TestNewClient_MissingKey(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConfiguration))
}

func TestNewOpenAIEmbedder_Defaults(t *testing.T) {
	e := NewOpenAIEmbedder(nil, "", 0)
	assert.Equal(t, DefaultOpenAIModel, e.model)
	assert.Equal(t, DefaultBatchSize, e.batchSize)

	e = NewOpenAIEmbedder(nil, "text-embedding-3-large", 16)
	assert.Equal(t, "text-embedding-3-large", e.model)
	assert.Equal(t, 16, e.batchSize)
}

func TestNewGeminiEmbedder_Defaults(t *testing.T) {
	e := NewGeminiEmbedder(nil, "", 768)
	assert.Equal(t, DefaultGeminiModel, e.model)
	assert.Equal(t, int32(768), e.dimension)
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, isRateLimitError(&openai.Error{StatusCode: 429}))
	assert.False(t, isRateLimitError(&openai.Error{StatusCode: 401}))
	assert.False(t, isRateLimitError(errors.New("connection reset")))
}

func TestToFloat32(t *testing.T) {
	assert.Equal(t, []float32{0.5, -1, 0}, toFloat32([]float64{0.5, -1, 0}))
}
