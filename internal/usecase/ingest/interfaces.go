package ingest

import "context"

// Embedder turns text spans into fixed-dimension vectors.
type Embedder interface {
	Dimension() int
	BatchSize() int
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ObjectStorage holds the raw document bytes.
type ObjectStorage interface {
	Put(ctx context.Context, name string, data []byte) error
	Remove(ctx context.Context, names []string) error
}

// TextExtractor converts a document of a known extension into plain text.
// Extraction failures degrade to an empty string.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, ext string) string
}
