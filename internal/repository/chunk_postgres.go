package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/courseqa/courseqa-backend/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository defines the interface for embedded chunk persistence and
// similarity search
type ChunkRepository interface {
	Insert(ctx context.Context, chunks []entity.Chunk) (failed []int, err error)
	DeleteBySource(ctx context.Context, sourceFile string) error
	SearchSimilar(ctx context.Context, embedding []float32, topK int, sourceFiles []string) ([]entity.Fragment, error)
}

var _ ChunkRepository = &ChunkPostgres{}

// ChunkPostgres implements ChunkRepository using PostgreSQL with pgvector
type ChunkPostgres struct {
	db *pgxpool.Pool
}

func NewChunkPostgres(db *pgxpool.Pool) *ChunkPostgres {
	return &ChunkPostgres{db: db}
}

// Insert writes chunks in a single round trip. Rows are inserted
// independently: one bad chunk does not discard its siblings. The returned
// slice holds the indexes of chunks that were not stored.
func (r *ChunkPostgres) Insert(ctx context.Context, chunks []entity.Chunk) ([]int, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	const query = `
		INSERT INTO documents (content, embedding, metadata)
		VALUES ($1, $2, $3)`

	batch := &pgx.Batch{}
	queued := make([]int, 0, len(chunks))
	var failed []int

	for i, chunk := range chunks {
		metadata, err := json.Marshal(chunk.Metadata)
		if err != nil {
			failed = append(failed, i)
			continue
		}
		batch.Queue(query, chunk.Text, pgvector.NewVector(chunk.Embedding), metadata)
		queued = append(queued, i)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for _, idx := range queued {
		if _, err := results.Exec(); err != nil {
			failed = append(failed, idx)
		}
	}

	if err := results.Close(); err != nil && len(failed) == 0 {
		return nil, fmt.Errorf("%w: insert chunks: %v", entity.ErrStoreWriteFailed, err)
	}

	return failed, nil
}

// DeleteBySource removes every chunk that originated from a source file.
// Called before re-ingestion so repeated uploads never duplicate chunks.
func (r *ChunkPostgres) DeleteBySource(ctx context.Context, sourceFile string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM documents WHERE metadata->>'source_file' = $1`, sourceFile)
	if err != nil {
		return fmt.Errorf("delete chunks by source: %w", err)
	}

	return nil
}

// SearchSimilar returns the topK chunks nearest to the query embedding by
// cosine distance. An empty sourceFiles slice searches the whole corpus.
// Equal distances are broken by source file and chunk index so results are
// stable across runs.
func (r *ChunkPostgres) SearchSimilar(ctx context.Context, embedding []float32, topK int, sourceFiles []string) ([]entity.Fragment, error) {
	const query = `
		SELECT content,
		       metadata->>'source_file',
		       COALESCE((metadata->>'chunk_index')::int, 0),
		       1 - (embedding <=> $1) AS score
		FROM documents
		WHERE cardinality($2::text[]) = 0 OR metadata->>'source_file' = ANY($2)
		ORDER BY embedding <=> $1,
		         metadata->>'source_file',
		         (metadata->>'chunk_index')::int
		LIMIT $3`

	if sourceFiles == nil {
		sourceFiles = []string{}
	}

	rows, err := r.db.Query(ctx, query, pgvector.NewVector(embedding), sourceFiles, topK)
	if err != nil {
		return nil, fmt.Errorf("search similar chunks: %w", err)
	}
	defer rows.Close()

	fragments := make([]entity.Fragment, 0, topK)
	for rows.Next() {
		var f entity.Fragment
		if err := rows.Scan(&f.Text, &f.SourceFile, &f.ChunkIndex, &f.Score); err != nil {
			return nil, fmt.Errorf("scan fragment row: %w", err)
		}
		fragments = append(fragments, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fragment rows: %w", err)
	}

	return fragments, nil
}
