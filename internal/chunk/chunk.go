// Package chunk splits free text into sentence-aligned pieces sized for embedding.
package chunk

import (
	"regexp"
	"strings"
)

// DefaultMaxChunkSize is the chunk budget used when none is given.
const DefaultMaxChunkSize = 1000

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

// Split breaks text into chunks of whole sentences.
//
// Sentences are separated by runs of '.', '!' or '?', which are dropped.
// Consecutive sentences are joined with a single space until adding the next
// one would push the chunk past maxChunkSize; the chunk is then flushed and the
// sentence starts a new one. A sentence longer than maxChunkSize is emitted on
// its own and never cut.
func Split(text string, maxChunkSize int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}

	var chunks []string
	var current strings.Builder

	for _, sentence := range sentenceBoundary.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+len(sentence)+1 > maxChunkSize {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}
