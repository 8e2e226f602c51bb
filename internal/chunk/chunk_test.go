package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		max      int
		expected []string
	}{
		{
			name:     "empty input",
			text:     "",
			max:      1000,
			expected: nil,
		},
		{
			name:     "punctuation only",
			text:     "...!?",
			max:      1000,
			expected: nil,
		},
		{
			name:     "single chunk",
			text:     "Hello world. How are you? Fine!",
			max:      1000,
			expected: []string{"Hello world How are you Fine"},
		},
		{
			name:     "no terminal punctuation",
			text:     "just a phrase",
			max:      1000,
			expected: []string{"just a phrase"},
		},
		{
			name:     "flush when next sentence does not fit",
			text:     "aaaa. bbbb. cccc.",
			max:      9,
			expected: []string{"aaaa bbbb", "cccc"},
		},
		{
			name:     "oversized sentence kept whole",
			text:     "short. " + strings.Repeat("x", 20) + ". tail.",
			max:      10,
			expected: []string{"short", strings.Repeat("x", 20), "tail"},
		},
		{
			name:     "non-positive max uses default",
			text:     "one. two.",
			max:      0,
			expected: []string{"one two"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Split(tt.text, tt.max))
		})
	}
}

func TestSplitBoundary(t *testing.T) {
	// 10 sentences of 99 chars joined by single spaces: 10*99 + 9 = 999.
	sentence := strings.Repeat("a", 99)
	sentences := make([]string, 10)
	for i := range sentences {
		sentences[i] = sentence
	}
	text := strings.Join(sentences, ". ") + "."

	chunks := Split(text, 1000)
	if assert.Len(t, chunks, 1) {
		assert.Len(t, chunks[0], 999)
	}

	chunks = Split(text+" b.", 1000)
	assert.Len(t, chunks, 2)
	assert.Equal(t, "b", chunks[1])
}

func TestSplitRespectsLimit(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200)
	for _, c := range Split(text, 120) {
		assert.LessOrEqual(t, len(c), 120)
		assert.Equal(t, strings.TrimSpace(c), c)
	}
}

func TestSplitPreservesSentenceOrder(t *testing.T) {
	text := "alpha one. beta two! gamma three? delta four."
	chunks := Split(text, 15)

	joined := strings.Join(chunks, " ")
	assert.Equal(t, "alpha one beta two gamma three delta four", joined)
}
