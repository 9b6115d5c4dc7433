// Package chunk splits extracted document text into overlapping word windows.
//
// Chunk boundaries are a pure function of (text, size, overlap): the chunk
// index produced here is the stable identity used for re-ingestion and
// deletion, so the split must be reproducible run to run.
package chunk

import (
	"iter"
	"strings"
)

// Split returns a lazy sequence of (index, span) pairs over the
// whitespace-delimited words of text. A text of at most size words yields a
// single span. Otherwise a window of size words advances by size-overlap
// words per step (clamped to at least 1, so overlap >= size cannot loop
// forever), and the sequence ends with the first window whose end reaches the
// word count. Every word appears in at least one span.
//
// The sequence is finite, restartable and holds one window at a time.
func Split(text string, size, overlap int) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		if size < 1 {
			return
		}

		words := strings.Fields(text)
		if len(words) == 0 {
			return
		}

		if len(words) <= size {
			yield(0, strings.Join(words, " "))
			return
		}

		step := size - overlap
		if step < 1 {
			step = 1
		}

		idx := 0
		for i := 0; ; i += step {
			end := i + size
			if end > len(words) {
				end = len(words)
			}
			if !yield(idx, strings.Join(words[i:end], " ")) {
				return
			}
			idx++
			if i+size >= len(words) {
				return
			}
		}
	}
}

// Count returns the number of spans Split would yield.
func Count(text string, size, overlap int) int {
	n := 0
	for range Split(text, size, overlap) {
		n++
	}
	return n
}
