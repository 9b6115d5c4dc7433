package openai

import (
	"context"
	"hash/fnv"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockClient is an offline stand-in for the model provider. Embeddings are a
// deterministic function of the input text, so identical texts land near each
// other and retrieval stays exercisable without credentials.
type MockClient struct {
	dim    int
	batch  int
	logger *zap.Logger
}

func NewMockClient(dim, batchSize int, logger *zap.Logger) *MockClient {
	return &MockClient{dim: dim, batch: batchSize, logger: logger}
}

func (m *MockClient) Dimension() int { return m.dim }

func (m *MockClient) BatchSize() int { return m.batch }

func (m *MockClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctxzap.Info(ctx, "[MOCK] embedding batch", zap.Int("text_count", len(texts)))

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.pseudoEmbedding(text)
	}
	return vectors, nil
}

func (m *MockClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	ctxzap.Info(ctx, "[MOCK] embedding query", zap.Int("length", len(text)))
	return m.pseudoEmbedding(text), nil
}

func (m *MockClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctxzap.Info(ctx, "[MOCK] generating answer", zap.Int("prompt_length", len(userPrompt)))
	return "This is a mock answer composed from the supplied context.", nil
}

// pseudoEmbedding hashes word positions into a fixed-dimension vector.
func (m *MockClient) pseudoEmbedding(text string) []float32 {
	v := make([]float32, m.dim)
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()
	for i := range v {
		seed = seed*1664525 + 1013904223
		v[i] = float32(seed%2000)/1000 - 1
	}
	return v
}
