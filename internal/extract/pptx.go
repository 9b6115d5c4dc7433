package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// PPTXExtractor extracts plain text from PPTX bytes, slide by slide in slide
// order. Within a slide, shape text is emitted in document order; table rows
// are linearized as " | "-joined cell sequences.
//
// The presentation is read directly from its slide XML parts: unioffice's
// presentation package is authoring-oriented and does not expose shape text
// for reading, while the DrawingML text model (a:p paragraphs of a:r runs,
// a:tbl tables of a:tr rows) maps cleanly onto a token walk.
type PPTXExtractor struct{}

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func (e *PPTXExtractor) Extract(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pptx archive: %w", err)
	}

	type slideFile struct {
		num  int
		file *zip.File
	}
	var slides []slideFile
	for _, f := range archive.File {
		m := slideNameRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slideFile{num: num, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var out []string
	for _, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			continue
		}
		lines, err := slideText(rc)
		rc.Close()
		if err != nil {
			continue
		}
		out = append(out, lines...)
	}

	return strings.Join(out, "\n"), nil
}

// slideText walks one slide's XML and returns its visible lines: one line per
// non-empty paragraph, one line per table row.
func slideText(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		lines      []string
		para       strings.Builder
		cell       strings.Builder
		rowCells   []string
		tableDepth int
		inText     bool
	)

	flushPara := func() {
		t := strings.TrimSpace(para.String())
		para.Reset()
		if t == "" {
			return
		}
		if tableDepth > 0 {
			if cell.Len() > 0 {
				cell.WriteString(" ")
			}
			cell.WriteString(t)
			return
		}
		lines = append(lines, t)
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse slide xml: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "tbl":
				tableDepth++
			case "tr":
				rowCells = rowCells[:0]
			case "tc":
				cell.Reset()
			case "t":
				inText = true
			case "br":
				para.WriteString(" ")
			}
		case xml.CharData:
			if inText {
				para.Write(el)
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				flushPara()
			case "tc":
				flushPara()
				if t := strings.TrimSpace(cell.String()); t != "" {
					rowCells = append(rowCells, t)
				}
			case "tr":
				if len(rowCells) > 0 {
					lines = append(lines, strings.Join(rowCells, " | "))
					rowCells = rowCells[:0]
				}
			case "tbl":
				if tableDepth > 0 {
					tableDepth--
				}
			}
		}
	}

	return lines, nil
}
