package openai

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/avast/retry-go/v4"
	"github.com/courseqa/courseqa-backend/internal/config"
	"github.com/courseqa/courseqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client wraps the OpenAI API for embedding and answer generation. All calls
// retry per the configured policy; a timeout or exhausted retry surfaces as a
// batch failure to the caller.
type Client struct {
	api    *openai.Client
	cfg    config.OpenAIConfig
	logger *zap.Logger
}

func NewClient(cfg config.OpenAIConfig, logger *zap.Logger) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}

	return &Client{
		api:    openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
		logger: logger,
	}
}

// Dimension returns the corpus-wide embedding dimension this client enforces.
func (c *Client) Dimension() int {
	return c.cfg.EmbedDim
}

// BatchSize returns the configured number of texts per embedding call.
func (c *Client) BatchSize() int {
	return c.cfg.EmbedBatchSize
}

// EmbedBatch embeds texts in one provider call and returns one vector per
// input, order-preserving. Every returned vector is checked against the
// corpus dimension; a mismatch is rejected before it can reach the index.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts", entity.ErrMissingField)
	}

	var resp openai.EmbeddingResponse
	err := retry.Do(
		func() error {
			var callErr error
			resp, callErr = c.api.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
				Input: texts,
				Model: openai.EmbeddingModel(c.cfg.EmbedModel),
			})
			return callErr
		},
		append(c.cfg.Retry.ToRetryOptions(), retry.Context(ctx), retry.LastErrorOnly(true))...,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrEmbeddingFailed, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", entity.ErrEmbeddingFailed, len(resp.Data), len(texts))
	}

	// The API documents input-order responses; sort by index rather than
	// trusting it.
	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		if len(d.Embedding) != c.cfg.EmbedDim {
			ctxzap.Warn(ctx, "embedding dimension mismatch",
				zap.Int("got", len(d.Embedding)),
				zap.Int("want", c.cfg.EmbedDim),
				zap.String("model", c.cfg.EmbedModel),
			)
			return nil, fmt.Errorf("%w: got %d, corpus dimension is %d", entity.ErrDimensionMismatch, len(d.Embedding), c.cfg.EmbedDim)
		}
		vectors[i] = d.Embedding
	}

	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Complete asks the chat model for an answer under the given system
// instruction.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var resp openai.ChatCompletionResponse
	err := retry.Do(
		func() error {
			var callErr error
			resp, callErr = c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model: c.cfg.ChatModel,
				Messages: []openai.ChatCompletionMessage{
					{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
					{Role: openai.ChatMessageRoleUser, Content: userPrompt},
				},
			})
			return callErr
		},
		append(c.cfg.Retry.ToRetryOptions(), retry.Context(ctx), retry.LastErrorOnly(true))...,
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrSynthesisFailed, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", entity.ErrSynthesisFailed)
	}

	return resp.Choices[0].Message.Content, nil
}
