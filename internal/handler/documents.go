package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/nimbusworks/assistant-platform/internal/ingest"
	"github.com/nimbusworks/assistant-platform/internal/model"
	"github.com/nimbusworks/assistant-platform/internal/service"
	"github.com/nimbusworks/assistant-platform/pkg/logger"
)

// maxUploadBytes caps document uploads at 10 MiB.
const maxUploadBytes = 10 << 20

// DocumentHandler handles document upload and listing endpoints.
type DocumentHandler struct {
	service *service.DocumentService
	logger  *logger.Logger
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(svc *service.DocumentService, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: svc,
		logger:  log,
	}
}

// Upload handles POST /api/v1/documents
// Accepts a multipart form with a "file" part and ingests it into the
// vector store. Re-uploading a processed file is a no-op.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer file.Close()

	resp, err := h.service.Upload(ctx, header.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFilename):
			writeError(w, http.StatusBadRequest, "invalid filename")
		case errors.Is(err, ingest.ErrSourceNotFound):
			writeError(w, http.StatusBadRequest, "uploaded file not found")
		default:
			h.logger.Error("failed to ingest document",
				zap.String("filename", header.Filename),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "failed to ingest document")
		}
		return
	}

	status := http.StatusCreated
	if resp.AlreadyProcessed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

// List handles GET /api/v1/documents
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list documents", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	writeJSON(w, http.StatusOK, &model.ListDocumentsResponse{Documents: docs})
}
