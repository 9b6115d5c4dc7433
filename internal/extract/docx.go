package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"github.com/unidoc/unioffice/document"
)

// DOCXExtractor extracts plain text from DOCX bytes: paragraphs in document
// order, then tables with cells joined by " | " so tabular content survives
// chunking as plain text.
//
// Some documents store their visible text outside the main paragraph stream
// (text boxes, headers, content controls). When flattening the raw word/*.xml
// parts yields more text than structured parsing did, the flattened output
// wins: more text is the signal that the deep fallback saw content the parser
// missed.
type DOCXExtractor struct{}

func (e *DOCXExtractor) Extract(data []byte) (string, error) {
	parsed, parseErr := e.extractStructured(data)

	// The fallback sees the same visible text plus whatever the structured
	// parse missed, so it only wins when it holds substantially more.
	fallback, fallbackErr := e.extractRawXML(data)
	if fallbackErr == nil && len(strings.TrimSpace(fallback)) > 2*len(strings.TrimSpace(parsed)) {
		return fallback, nil
	}

	if parseErr != nil && parsed == "" {
		return "", parseErr
	}

	return parsed, nil
}

func (e *DOCXExtractor) extractStructured(data []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}
	defer doc.Close()

	var out []string
	for _, para := range doc.Paragraphs() {
		var b strings.Builder
		for _, run := range para.Runs() {
			b.WriteString(run.Text())
		}
		if t := strings.TrimSpace(b.String()); t != "" {
			out = append(out, t)
		}
	}

	for _, table := range doc.Tables() {
		for _, row := range table.Rows() {
			var cells []string
			for _, cell := range row.Cells() {
				var b strings.Builder
				for _, para := range cell.Paragraphs() {
					for _, run := range para.Runs() {
						b.WriteString(run.Text())
					}
					b.WriteString(" ")
				}
				if t := strings.TrimSpace(b.String()); t != "" {
					cells = append(cells, t)
				}
			}
			if len(cells) > 0 {
				out = append(out, strings.Join(cells, " | "))
			}
		}
	}

	return strings.Join(out, "\n"), nil
}

// extractRawXML flattens every word/*.xml part of the docx archive.
func (e *DOCXExtractor) extractRawXML(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}

	var parts []string
	for _, f := range archive.File {
		if !strings.HasPrefix(f.Name, "word/") || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			continue
		}
		var buf bytes.Buffer
		_, copyErr := buf.ReadFrom(rc)
		rc.Close()
		if copyErr != nil {
			continue
		}

		if t := stripXML(buf.Bytes()); t != "" {
			parts = append(parts, t)
		}
	}

	return strings.Join(parts, " "), nil
}
