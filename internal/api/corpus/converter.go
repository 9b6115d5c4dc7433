package corpus

import (
	"time"

	"github.com/courseqa/courseqa-backend/internal/entity"
)

func toFileDetail(f *entity.File) *entity.FileDetail {
	return &entity.FileDetail{
		Name:       f.Name,
		FileType:   f.FileType,
		UploadedAt: f.UploadedAt.Format(time.RFC3339),
	}
}
