package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/courseqa/courseqa-backend/internal/chunk"
	"github.com/courseqa/courseqa-backend/internal/config"
	"github.com/courseqa/courseqa-backend/internal/entity"
	"github.com/courseqa/courseqa-backend/internal/pkg/logger"
	"github.com/courseqa/courseqa-backend/internal/pkg/validator"
	"github.com/courseqa/courseqa-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Usecase implements the document ingestion pipeline: raw bytes in, embedded
// chunks in the index out. Every step is idempotent per file name, so
// re-ingesting a document replaces its chunks instead of duplicating them.
type Usecase struct {
	fileRepo  repository.FileRepository
	chunkRepo repository.ChunkRepository
	extractor TextExtractor
	embedder  Embedder
	storage   ObjectStorage
	cfg       config.IngestConfig
	logger    *zap.Logger
}

// NewUsecase creates a new ingestion use case
func NewUsecase(
	fileRepo repository.FileRepository,
	chunkRepo repository.ChunkRepository,
	extractor TextExtractor,
	embedder Embedder,
	storage ObjectStorage,
	cfg config.IngestConfig,
	logger *zap.Logger,
) *Usecase {
	return &Usecase{
		fileRepo:  fileRepo,
		chunkRepo: chunkRepo,
		extractor: extractor,
		embedder:  embedder,
		storage:   storage,
		cfg:       cfg,
		logger:    logger,
	}
}

// IngestDocument runs the full pipeline for one document. JSONL files carry
// pre-tokenized records and skip extraction and chunking; everything else is
// extracted and split into sliding windows.
func (uc *Usecase) IngestDocument(ctx context.Context, filename string, data []byte) (*entity.IngestResult, error) {
	name := validator.SanitizeFilename(filename)
	ext := validator.FileExt(name)

	// One id per ingestion run so retries of the same file stay separable in logs.
	ctx = logger.AddFields(ctx,
		zap.String("source_file", name),
		zap.String("ingest_id", uuid.New().String()),
	)
	uc.setState(ctx, entity.IngestStateReceived)

	if !validator.AllowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", entity.ErrInvalidExtension, ext)
	}

	if int64(len(data)) > uc.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", entity.ErrFileTooLarge, len(data), uc.cfg.MaxFileSize)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", entity.ErrInvalidFile)
	}

	if err := uc.register(ctx, name, ext, data); err != nil {
		uc.setState(ctx, entity.IngestStateFailed)
		return nil, err
	}

	if ext == ".jsonl" {
		return uc.ingestRecords(ctx, name, data)
	}

	text := uc.extractor.Extract(ctx, data, ext)
	uc.setState(ctx, entity.IngestStateExtracted)

	if strings.TrimSpace(text) == "" {
		ctxzap.Warn(ctx, "document yielded no text, nothing to index")
		return &entity.IngestResult{Status: entity.IngestStatusNoText}, nil
	}

	var chunks []entity.Chunk
	for i, span := range chunk.Split(text, uc.cfg.ChunkSize, uc.cfg.ChunkOverlap) {
		chunks = append(chunks, entity.Chunk{
			Text: span,
			Metadata: entity.ChunkMetadata{
				SourceFile: name,
				ChunkIndex: i,
				FileType:   strings.TrimPrefix(ext, "."),
			},
		})
	}
	uc.setState(ctx, entity.IngestStateChunked)
	ctxzap.Info(ctx, "document chunked", zap.Int("chunk_count", len(chunks)))

	return uc.embedAndStore(ctx, chunks)
}

// register stores the raw bytes, upserts the registry row and clears any
// chunks left from a previous ingestion of the same name.
func (uc *Usecase) register(ctx context.Context, name, ext string, data []byte) error {
	if err := uc.storage.Put(ctx, name, data); err != nil {
		return fmt.Errorf("store raw document: %w", err)
	}

	if _, err := uc.fileRepo.Upsert(ctx, entity.File{
		Name:       name,
		FileType:   strings.TrimPrefix(ext, "."),
		SourcePath: name,
	}); err != nil {
		return fmt.Errorf("register file: %w", err)
	}

	if err := uc.chunkRepo.DeleteBySource(ctx, name); err != nil {
		return fmt.Errorf("clear previous chunks: %w", err)
	}

	return nil
}

// embedAndStore runs the embedding and indexing stages. Batches are
// independent: a failed embedding call marks only its own chunks as failed
// and the pipeline moves on to the next batch.
func (uc *Usecase) embedAndStore(ctx context.Context, chunks []entity.Chunk) (*entity.IngestResult, error) {
	uc.setState(ctx, entity.IngestStateEmbedding)

	result := &entity.IngestResult{
		Status:    entity.IngestStatusSuccess,
		Attempted: len(chunks),
	}

	batchSize := uc.embedder.BatchSize()
	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := uc.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			ctxzap.Warn(ctx, "embedding batch failed, skipping its chunks",
				zap.Int("batch_start", start),
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			result.Failed += len(batch)
			continue
		}

		for i := range batch {
			batch[i].Embedding = vectors[i]
		}

		failedIdx, err := uc.chunkRepo.Insert(ctx, batch)
		if err != nil {
			ctxzap.Warn(ctx, "chunk batch insert failed",
				zap.Int("batch_start", start),
				zap.Error(err),
			)
			result.Failed += len(batch)
			continue
		}

		result.Failed += len(failedIdx)
		result.Succeeded += len(batch) - len(failedIdx)
	}

	uc.setState(ctx, entity.IngestStateIndexed)

	if result.Attempted > 0 && result.Succeeded == 0 {
		uc.setState(ctx, entity.IngestStateFailed)
		return nil, fmt.Errorf("%w: no chunks stored out of %d", entity.ErrEmbeddingFailed, result.Attempted)
	}

	uc.setState(ctx, entity.IngestStateDone)
	ctxzap.Info(ctx, "document ingested",
		zap.Int("attempted", result.Attempted),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}

// ListFiles retrieves the corpus file registry
func (uc *Usecase) ListFiles(ctx context.Context) ([]*entity.File, error) {
	files, err := uc.fileRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	return files, nil
}

// DeleteFile removes a document everywhere: registry row, indexed chunks and
// the stored object.
func (uc *Usecase) DeleteFile(ctx context.Context, name string) error {
	name = validator.SanitizeFilename(name)
	if name == "" || name == "." {
		return fmt.Errorf("%w: file name", entity.ErrMissingField)
	}

	if err := uc.fileRepo.Delete(ctx, name); err != nil {
		return err
	}

	if err := uc.chunkRepo.DeleteBySource(ctx, name); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}

	if err := uc.storage.Remove(ctx, []string{name}); err != nil {
		// The index is already clean; a stale object is not worth failing over.
		ctxzap.Warn(ctx, "stored object removal failed",
			zap.String("source_file", name),
			zap.Error(err),
		)
	}

	ctxzap.Info(ctx, "file deleted", zap.String("source_file", name))
	return nil
}

func (uc *Usecase) setState(ctx context.Context, state entity.IngestState) {
	ctxzap.Info(ctx, "ingest state changed", zap.String("state", string(state)))
}
