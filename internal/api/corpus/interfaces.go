package corpus

import (
	"context"

	"github.com/courseqa/courseqa-backend/internal/entity"
)

type CorpusUsecase interface {
	IngestDocument(ctx context.Context, filename string, data []byte) (*entity.IngestResult, error)
	ListFiles(ctx context.Context) ([]*entity.File, error)
	DeleteFile(ctx context.Context, name string) error
}
