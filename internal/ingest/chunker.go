// Package ingest turns uploaded source documents into indexed text chunks.
package ingest

import (
	"github.com/nimbusworks/assistant-platform/internal/model"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Chunker splits document text into overlapping fixed-size character
// windows. Overlap preserves semantic continuity across window boundaries.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker with the given window size and overlap.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	// Overlap must leave room for the window to advance.
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}

	return &Chunker{
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// Split cuts content into ordered overlapping windows attributed to source.
// Empty content produces no chunks.
func (c *Chunker) Split(source, content string) []model.DocumentChunk {
	if content == "" {
		return nil
	}

	contentLen := len(content)
	estimated := contentLen/(c.chunkSize-c.overlap) + 1
	chunks := make([]model.DocumentChunk, 0, estimated)

	index := 0
	start := 0
	for start < contentLen {
		end := start + c.chunkSize
		if end > contentLen {
			end = contentLen
		}

		chunks = append(chunks, model.DocumentChunk{
			Source: source,
			Index:  index,
			Text:   content[start:end],
		})
		index++

		if end == contentLen {
			break
		}
		start += c.chunkSize - c.overlap
	}

	return chunks
}
