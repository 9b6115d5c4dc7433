package entity

import "time"

// File is a row in the corpus file registry. One row per uploaded or
// batch-discovered document; deleting it cascades to the document's chunks.
type File struct {
	ID         int64     `json:"id"`
	Name       string    `json:"file_name"`
	FileType   string    `json:"file_type"`
	SourcePath string    `json:"source_path"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ChunkMetadata is the provenance attached to every stored chunk. The
// scripture fields are populated only for JSONL record ingestion.
type ChunkMetadata struct {
	SourceFile string `json:"source_file"`
	ChunkIndex int    `json:"chunk_index"`
	FileType   string `json:"file_type"`
	Book       string `json:"book,omitempty"`
	Chapter    int    `json:"chapter,omitempty"`
	Verse      int    `json:"verse,omitempty"`
	Version    string `json:"version,omitempty"`
}

// Chunk is the atomic retrievable unit: a text span with its embedding.
type Chunk struct {
	Text      string
	Embedding []float32
	Metadata  ChunkMetadata
}

// Fragment is a chunk returned by similarity search.
type Fragment struct {
	Text       string  `json:"content"`
	SourceFile string  `json:"source_file"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float32 `json:"score"`
}

// Record is one pre-tokenized line of a JSONL source. Text is the span to
// embed; the remaining fields carry scripture provenance.
type Record struct {
	Text    string `json:"text"`
	Book    string `json:"book,omitempty"`
	Chapter int    `json:"chapter,omitempty"`
	Verse   int    `json:"verse,omitempty"`
	Version string `json:"version,omitempty"`
}

// QueryRecord is one audit entry for an answered question. It snapshots the
// retrieved set and is never mutated after insertion.
type QueryRecord struct {
	UserID        string     `json:"user_id,omitempty"`
	UserEmail     string     `json:"user_email,omitempty"`
	QueryText     string     `json:"query_text"`
	MatchedChunks []Fragment `json:"matched_docs"`
	ModelResponse string     `json:"model_response"`
	TopK          int        `json:"top_k"`
}

// IngestState tracks a document through the ingestion pipeline.
type IngestState string

const (
	IngestStateReceived  IngestState = "RECEIVED"
	IngestStateExtracted IngestState = "EXTRACTED"
	IngestStateChunked   IngestState = "CHUNKED"
	IngestStateEmbedding IngestState = "EMBEDDING"
	IngestStateIndexed   IngestState = "INDEXED"
	IngestStateDone      IngestState = "DONE"
	IngestStateFailed    IngestState = "FAILED"
)

// Ingest terminal statuses reported to callers.
const (
	IngestStatusSuccess = "success"
	IngestStatusNoText  = "no_text"
)

// IngestResult is the terminal outcome of ingesting one document. Partial
// completion is an accepted outcome: Failed counts chunks that could not be
// embedded or stored, while their siblings were still written.
type IngestResult struct {
	Status    string `json:"status"`
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"chunks"`
	Failed    int    `json:"failed"`
}
