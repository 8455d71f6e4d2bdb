package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nimbusworks/assistant-platform/internal/model"
	"github.com/nimbusworks/assistant-platform/pkg/logger"
)

// ErrSourceNotFound is returned when the source document is absent from the
// upload directory.
var ErrSourceNotFound = errors.New("source document not found")

// Pipeline reads a source document and splits it into overlapping chunks
// ready for the vector store.
type Pipeline struct {
	uploadDir string
	chunker   *Chunker
	logger    *logger.Logger
}

// NewPipeline creates an ingestion pipeline reading from uploadDir.
func NewPipeline(uploadDir string, chunker *Chunker, log *logger.Logger) *Pipeline {
	return &Pipeline{
		uploadDir: uploadDir,
		chunker:   chunker,
		logger:    log,
	}
}

// Ingest extracts text from the named file and returns its ordered chunks.
func (p *Pipeline) Ingest(filename string) ([]model.DocumentChunk, error) {
	path := filepath.Join(p.uploadDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, filename)
		}
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	chunks := p.chunker.Split(filename, string(data))
	p.logger.Info("ingested document")

	return chunks, nil
}
