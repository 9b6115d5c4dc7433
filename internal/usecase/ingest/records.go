package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/courseqa/courseqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ingestRecords indexes a JSONL file of pre-tokenized records. Each line is
// one chunk; the line order gives the chunk index. Malformed lines are
// skipped, not fatal.
func (uc *Usecase) ingestRecords(ctx context.Context, name string, data []byte) (*entity.IngestResult, error) {
	records, skipped := parseRecords(data)
	if skipped > 0 {
		ctxzap.Warn(ctx, "skipped malformed record lines", zap.Int("skipped", skipped))
	}

	uc.setState(ctx, entity.IngestStateChunked)

	if len(records) == 0 {
		ctxzap.Warn(ctx, "record file yielded no usable lines, nothing to index")
		return &entity.IngestResult{Status: entity.IngestStatusNoText}, nil
	}

	chunks := make([]entity.Chunk, len(records))
	for i, rec := range records {
		chunks[i] = entity.Chunk{
			Text: rec.Text,
			Metadata: entity.ChunkMetadata{
				SourceFile: name,
				ChunkIndex: i,
				FileType:   "jsonl",
				Book:       rec.Book,
				Chapter:    rec.Chapter,
				Verse:      rec.Verse,
				Version:    rec.Version,
			},
		}
	}

	return uc.embedAndStore(ctx, chunks)
}

// parseRecords reads one JSON record per line, tolerating blank and broken
// lines. Records without text are counted as skipped.
func parseRecords(data []byte) ([]entity.Record, int) {
	var records []entity.Record
	skipped := 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec entity.Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil || strings.TrimSpace(rec.Text) == "" {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	return records, skipped
}
