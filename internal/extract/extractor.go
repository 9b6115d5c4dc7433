// Package extract converts raw document bytes into plain text, one extractor
// per file format. Extraction is best-effort: any failure degrades to empty
// text so the ingestion pipeline can skip the document instead of aborting.
package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Extractor converts one document format into plain text.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// Registry dispatches extraction by file extension.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry returns a registry with the built-in pdf/docx/pptx extractors.
func NewRegistry() *Registry {
	return &Registry{
		byExt: map[string]Extractor{
			".pdf":  &PDFExtractor{},
			".docx": &DOCXExtractor{},
			".pptx": &PPTXExtractor{},
		},
	}
}

// Register adds or replaces the extractor for an extension.
func (r *Registry) Register(ext string, e Extractor) {
	r.byExt[strings.ToLower(ext)] = e
}

// Extract returns the plain text of data for the given extension tag.
// Unsupported formats and extraction failures both yield empty text; failures
// are logged with the extension so the skip is visible.
func (r *Registry) Extract(ctx context.Context, data []byte, ext string) string {
	e, ok := r.byExt[strings.ToLower(ext)]
	if !ok {
		ctxzap.Debug(ctx, "no extractor for file type", zap.String("file_type", ext))
		return ""
	}

	text, err := e.Extract(data)
	if err != nil {
		ctxzap.Warn(ctx, "text extraction failed",
			zap.String("file_type", ext),
			zap.Error(err),
		)
		return ""
	}

	return text
}

var (
	xmlTagRe        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRunRe = regexp.MustCompile(`\s+`)
)

// stripXML flattens raw XML to the visible character data it contains.
func stripXML(data []byte) string {
	s := xmlTagRe.ReplaceAllString(string(data), " ")
	return strings.TrimSpace(whitespaceRunRe.ReplaceAllString(s, " "))
}
