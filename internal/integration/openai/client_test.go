package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/courseqa/courseqa-backend/internal/config"
	"github.com/courseqa/courseqa-backend/internal/entity"
	pkgRetry "github.com/courseqa/courseqa-backend/internal/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(t *testing.T, handler http.HandlerFunc, dim int) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.OpenAIConfig{
		APIKey:         "test-key",
		BaseURL:        srv.URL,
		EmbedModel:     "text-embedding-3-large",
		EmbedDim:       dim,
		EmbedBatchSize: 100,
		ChatModel:      "gpt-4o-mini",
		RequestTimeout: 5 * time.Second,
		Retry: pkgRetry.RetryConfig{
			Attempts: 2,
			Delay:    time.Millisecond,
			MaxDelay: time.Millisecond,
		},
	}, zap.NewNop())
}

func embeddingsHandler(t *testing.T, vectors [][]float32, shuffle bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type item struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		items := make([]item, len(vectors))
		for i, v := range vectors {
			items[i] = item{Index: i, Embedding: v}
		}
		if shuffle && len(items) > 1 {
			items[0], items[1] = items[1], items[0]
		}
		resp := map[string]any{"data": items, "model": "text-embedding-3-large"}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}
}

func TestEmbedBatchOrderPreserving(t *testing.T) {
	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}}
	c := testClient(t, embeddingsHandler(t, vectors, true), 3)

	got, err := c.EmbedBatch(context.Background(), []string{"first", "second"})

	require.NoError(t, err)
	require.Len(t, got, 2)
	// Vectors follow input order even when the provider responds out of order.
	assert.Equal(t, vectors[0], got[0])
	assert.Equal(t, vectors[1], got[1])
}

func TestEmbedBatchRejectsDimensionMismatch(t *testing.T) {
	c := testClient(t, embeddingsHandler(t, [][]float32{{1, 2}}, false), 3)

	_, err := c.EmbedBatch(context.Background(), []string{"text"})

	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrDimensionMismatch)
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	c := testClient(t, embeddingsHandler(t, nil, false), 3)

	_, err := c.EmbedBatch(context.Background(), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrMissingField)
}

func TestEmbedBatchProviderFailure(t *testing.T) {
	calls := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}, 3)

	_, err := c.EmbedBatch(context.Background(), []string{"text"})

	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrEmbeddingFailed)
	assert.Equal(t, 2, calls, "failure should be retried per policy")
}

func TestComplete(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "grounded answer"}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}, 3)

	answer, err := c.Complete(context.Background(), "system", "user")

	require.NoError(t, err)
	assert.Equal(t, "grounded answer", answer)
}

func TestMockClientDeterministic(t *testing.T) {
	m := NewMockClient(8, 100, zap.NewNop())

	a, err := m.EmbedQuery(context.Background(), "same text")
	require.NoError(t, err)
	b, err := m.EmbedQuery(context.Background(), "same text")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 8)
}
