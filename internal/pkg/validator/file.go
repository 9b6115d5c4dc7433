package validator

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/courseqa/courseqa-backend/internal/config"
	"github.com/courseqa/courseqa-backend/internal/entity"
)

// AllowedExtensions lists the document formats the ingestion pipeline accepts.
// JSONL carries pre-tokenized records; the rest go through text extraction.
var AllowedExtensions = map[string]bool{
	".pdf":   true,
	".docx":  true,
	".pptx":  true,
	".jsonl": true,
}

// Validator validates file uploads
type Validator struct {
	cfg config.IngestConfig
}

func NewFileValidator(cfg config.IngestConfig) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateUpload validates a single uploaded file
func (v *Validator) ValidateUpload(fh *multipart.FileHeader) error {
	if fh == nil || fh.Filename == "" {
		return fmt.Errorf("%w: file", entity.ErrMissingField)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if _, ok := AllowedExtensions[ext]; !ok {
		return fmt.Errorf("%w: %s (allowed: pdf, docx, pptx, jsonl)", entity.ErrInvalidExtension, ext)
	}

	if fh.Size > v.cfg.MaxFileSize {
		return fmt.Errorf("%w: file '%s' is %d bytes (max %d)", entity.ErrFileTooLarge, fh.Filename, fh.Size, v.cfg.MaxFileSize)
	}

	return nil
}

// SanitizeFilename sanitizes a filename for safe storage. The sanitized name
// is the document identity across storage, registry and chunk metadata.
func SanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	replacer := strings.NewReplacer(
		" ", "_",
		"(", "",
		")", "",
		"[", "",
		"]", "",
		"{", "",
		"}", "",
	)
	return replacer.Replace(filename)
}

// FileExt returns the lower-cased extension, the corpus file-type tag.
func FileExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
