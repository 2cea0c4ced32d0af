package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/TranscriptSearch/internal/service"
	"github.com/utafrali/TranscriptSearch/pkg/httputil"
	"github.com/utafrali/TranscriptSearch/pkg/validator"
)

// TranscriptionHandler handles HTTP requests that manage indexed records.
type TranscriptionHandler struct {
	service *service.SearchService
	logger  *slog.Logger
}

// NewTranscriptionHandler creates a new transcription HTTP handler.
func NewTranscriptionHandler(svc *service.SearchService, logger *slog.Logger) *TranscriptionHandler {
	return &TranscriptionHandler{
		service: svc,
		logger:  logger,
	}
}

// BulkIndexRequest is the JSON request body for bulk indexing.
type BulkIndexRequest struct {
	Transcriptions []service.TranscriptionInput `json:"transcriptions" validate:"required,min=1,max=500,dive"`
}

// Index handles POST /api/v1/transcriptions
func (h *TranscriptionHandler) Index(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req service.TranscriptionInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	t, err := h.service.Index(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: map[string]string{"id": t.ID, "status": "indexed"}})
}

// BulkIndex handles POST /api/v1/transcriptions/bulk
func (h *TranscriptionHandler) BulkIndex(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)

	var req BulkIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res, err := h.service.BulkIndex(r.Context(), req.Transcriptions)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res})
}

// Delete handles DELETE /api/v1/transcriptions/{id}
func (h *TranscriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id, "status": "deleted"}})
}
