package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/courseqa/courseqa-backend/internal/entity"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QueryLogRepository defines the interface for query audit persistence
type QueryLogRepository interface {
	Insert(ctx context.Context, record entity.QueryRecord) error
}

var _ QueryLogRepository = &QueryLogPostgres{}

// QueryLogPostgres implements QueryLogRepository using PostgreSQL
type QueryLogPostgres struct {
	db *pgxpool.Pool
}

func NewQueryLogPostgres(db *pgxpool.Pool) *QueryLogPostgres {
	return &QueryLogPostgres{db: db}
}

func (r *QueryLogPostgres) Insert(ctx context.Context, record entity.QueryRecord) error {
	matched, err := json.Marshal(record.MatchedChunks)
	if err != nil {
		return fmt.Errorf("marshal matched chunks: %w", err)
	}

	const query = `
		INSERT INTO rag_query_history (user_id, user_email, query_text, matched_docs, model_response, top_k)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = r.db.Exec(ctx, query,
		record.UserID, record.UserEmail, record.QueryText, matched, record.ModelResponse, record.TopK)
	if err != nil {
		return fmt.Errorf("insert query record: %w", err)
	}

	return nil
}
