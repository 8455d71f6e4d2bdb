package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/nimbusworks/assistant-platform/internal/ingest"
	"github.com/nimbusworks/assistant-platform/internal/model"
	"github.com/nimbusworks/assistant-platform/pkg/logger"
	"github.com/nimbusworks/assistant-platform/pkg/metrics"
)

// ErrInvalidFilename is returned for upload names that escape the upload
// directory or are empty.
var ErrInvalidFilename = errors.New("invalid filename")

// ChunkStore indexes document chunks for later retrieval.
type ChunkStore interface {
	Store(ctx context.Context, chunks []model.DocumentChunk) error
}

// DocumentService handles document upload and ingestion. Filename-level
// deduplication lives here: a file already present in the processed
// registry is never re-ingested.
type DocumentService struct {
	registry  *ingest.Registry
	pipeline  *ingest.Pipeline
	store     ChunkStore
	uploadDir string
	logger    *logger.Logger
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	registry *ingest.Registry,
	pipeline *ingest.Pipeline,
	store ChunkStore,
	uploadDir string,
	log *logger.Logger,
) *DocumentService {
	return &DocumentService{
		registry:  registry,
		pipeline:  pipeline,
		store:     store,
		uploadDir: uploadDir,
		logger:    log,
	}
}

// Upload saves an uploaded document and ingests it into the vector store.
// Re-uploading an already processed file is a no-op.
func (s *DocumentService) Upload(ctx context.Context, filename string, content io.Reader) (*model.UploadDocumentResponse, error) {
	filename = filepath.Base(filename)
	if filename == "" || filename == "." || filename == ".." || filename == string(filepath.Separator) {
		return nil, ErrInvalidFilename
	}

	processed, err := s.registry.Contains(filename)
	if err != nil {
		return nil, fmt.Errorf("check processed registry: %w", err)
	}
	if processed {
		return &model.UploadDocumentResponse{
			Filename:         filename,
			AlreadyProcessed: true,
		}, nil
	}

	if err := s.save(filename, content); err != nil {
		return nil, err
	}

	chunks, err := s.pipeline.Ingest(filename)
	if err != nil {
		return nil, err
	}

	if err := s.store.Store(ctx, chunks); err != nil {
		return nil, fmt.Errorf("index chunks: %w", err)
	}

	if err := s.registry.Add(filename); err != nil {
		return nil, fmt.Errorf("record processed file: %w", err)
	}

	metrics.DocumentsIngestedTotal.Inc()
	metrics.ChunksIndexedTotal.Add(float64(len(chunks)))

	s.logger.Info("document ingested",
		zap.String("filename", filename),
		zap.Int("chunks", len(chunks)),
	)

	return &model.UploadDocumentResponse{
		Filename: filename,
		Chunks:   len(chunks),
	}, nil
}

// List returns the filenames of all ingested documents.
func (s *DocumentService) List(ctx context.Context) ([]string, error) {
	return s.registry.Load()
}

func (s *DocumentService) save(filename string, content io.Reader) error {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	f, err := os.Create(filepath.Join(s.uploadDir, filename))
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		return fmt.Errorf("write upload file: %w", err)
	}
	return nil
}
