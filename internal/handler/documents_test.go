package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusworks/assistant-platform/internal/ingest"
	"github.com/nimbusworks/assistant-platform/internal/model"
	"github.com/nimbusworks/assistant-platform/internal/service"
	"github.com/nimbusworks/assistant-platform/pkg/logger"
)

type fakeChunkStore struct{}

func (fakeChunkStore) Store(ctx context.Context, chunks []model.DocumentChunk) error {
	return nil
}

func newDocumentHandler(t *testing.T) *DocumentHandler {
	t.Helper()
	dir := t.TempDir()
	uploadDir := filepath.Join(dir, "data")

	log := logger.NewNop()
	registry := ingest.NewRegistry(filepath.Join(dir, "processed.json"), uploadDir, log)
	pipeline := ingest.NewPipeline(uploadDir, ingest.NewChunker(50, 10), log)
	svc := service.NewDocumentService(registry, pipeline, fakeChunkStore{}, uploadDir, log)

	return NewDocumentHandler(svc, log)
}

func multipartUpload(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadDocument(t *testing.T) {
	h := newDocumentHandler(t)

	rec := httptest.NewRecorder()
	h.Upload(rec, multipartUpload(t, "report.txt", strings.Repeat("revenue details. ", 10)))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp model.UploadDocumentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "report.txt", resp.Filename)
	assert.Positive(t, resp.Chunks)
	assert.False(t, resp.AlreadyProcessed)
}

func TestUploadDuplicateDocument(t *testing.T) {
	h := newDocumentHandler(t)

	rec := httptest.NewRecorder()
	h.Upload(rec, multipartUpload(t, "report.txt", "content"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.Upload(rec, multipartUpload(t, "report.txt", "content"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.UploadDocumentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.AlreadyProcessed)
}

func TestUploadMissingFilePart(t *testing.T) {
	h := newDocumentHandler(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("notfile", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListDocuments(t *testing.T) {
	h := newDocumentHandler(t)

	rec := httptest.NewRecorder()
	h.Upload(rec, multipartUpload(t, "a.txt", "aaa"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.ListDocumentsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []string{"a.txt"}, resp.Documents)
}
