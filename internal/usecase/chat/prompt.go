package chat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/courseqa/courseqa-backend/internal/entity"
)

// buildContext renders retrieved fragments into the prompt context. Every
// fragment is prefixed with its provenance tag so the model can attribute
// statements to files.
func buildContext(fragments []entity.Fragment) string {
	blocks := make([]string, len(fragments))
	for i, f := range fragments {
		blocks[i] = fmt.Sprintf("[source_file: %s]\n%s", f.SourceFile, f.Text)
	}
	return strings.Join(blocks, "\n\n")
}

func buildUserPrompt(contextText, question string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, question)
}

// sourceNames returns the distinct source files of the retrieved set, sorted
// for a stable attribution line.
func sourceNames(fragments []entity.Fragment) []string {
	seen := make(map[string]bool, len(fragments))
	names := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f.SourceFile == "" || seen[f.SourceFile] {
			continue
		}
		seen[f.SourceFile] = true
		names = append(names, f.SourceFile)
	}
	sort.Strings(names)
	return names
}

// appendSourcesLine adds the attribution footer to the model answer.
func appendSourcesLine(answer string, sources []string) string {
	if len(sources) == 0 {
		return answer
	}

	quoted := make([]string, len(sources))
	for i, s := range sources {
		quoted[i] = "`" + s + "`"
	}
	return answer + "\n\n**Sources:** " + strings.Join(quoted, ", ")
}
