package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func collect(text string, size, overlap int) []string {
	var out []string
	for idx, span := range Split(text, size, overlap) {
		if idx != len(out) {
			panic("non-contiguous chunk index")
		}
		out = append(out, span)
	}
	return out
}

func TestSplitSingleChunkWhenTextFits(t *testing.T) {
	text := "the quick brown fox"

	chunks := collect(text, 10, 2)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitSlidingWindow(t *testing.T) {
	// 1200 words, size=500, overlap=100 -> step 400, windows
	// [0:500], [400:900], [800:1200].
	text := words(1200)

	chunks := collect(text, 500, 100)

	require.Len(t, chunks, 3)
	all := strings.Fields(text)
	assert.Equal(t, strings.Join(all[0:500], " "), chunks[0])
	assert.Equal(t, strings.Join(all[400:900], " "), chunks[1])
	assert.Equal(t, strings.Join(all[800:1200], " "), chunks[2])
}

func TestSplitCoverage(t *testing.T) {
	// Dropping the leading overlap of every chunk after the first must
	// reconstruct the original word sequence exactly.
	cases := []struct {
		n, size, overlap int
	}{
		{1, 5, 2},
		{5, 5, 2},
		{6, 5, 2},
		{57, 10, 3},
		{1200, 500, 100},
	}

	for _, tc := range cases {
		text := words(tc.n)
		chunks := collect(text, tc.size, tc.overlap)
		require.NotEmpty(t, chunks)

		step := tc.size - tc.overlap
		var rebuilt []string
		covered := 0
		for i, c := range chunks {
			cw := strings.Fields(c)
			start := i * step
			// Words before the covered mark were already emitted by the
			// previous window.
			skip := covered - start
			require.GreaterOrEqual(t, skip, 0)
			rebuilt = append(rebuilt, cw[skip:]...)
			covered = start + len(cw)
		}
		assert.Equal(t, strings.Fields(text), rebuilt, "n=%d size=%d overlap=%d", tc.n, tc.size, tc.overlap)
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := words(973)

	first := collect(text, 64, 16)
	second := collect(text, 64, 16)

	assert.Equal(t, first, second)

	// The sequence itself must be restartable.
	seq := Split(text, 64, 16)
	var a, b []string
	for _, s := range seq {
		a = append(a, s)
	}
	for _, s := range seq {
		b = append(b, s)
	}
	assert.Equal(t, a, b)
}

func TestSplitOverlapAtLeastSizeDoesNotLoop(t *testing.T) {
	text := words(20)

	chunks := collect(text, 5, 5)

	// Step clamps to 1: finite, still covers every word.
	require.Equal(t, 16, len(chunks))
	last := strings.Fields(chunks[len(chunks)-1])
	assert.Equal(t, "w19", last[len(last)-1])
}

func TestSplitEmptyAndDegenerate(t *testing.T) {
	assert.Empty(t, collect("", 10, 2))
	assert.Empty(t, collect("   \n\t ", 10, 2))
	assert.Empty(t, collect("a b c", 0, 0))
}

func TestSplitEarlyBreak(t *testing.T) {
	text := words(100)

	n := 0
	for range Split(text, 10, 5) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestCount(t *testing.T) {
	assert.Equal(t, 3, Count(words(1200), 500, 100))
	assert.Equal(t, 1, Count("one two", 10, 0))
	assert.Equal(t, 0, Count("", 10, 0))
}
