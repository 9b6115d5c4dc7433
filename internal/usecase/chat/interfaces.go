package chat

import "context"

// ModelProvider covers the two model calls the query pipeline makes: one
// embedding for retrieval and one completion for synthesis.
type ModelProvider interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
