// Package handlers holds the thin HTTP handlers over the ingestion
// boundary functions; they decode a request, call a boundary
// function, and encode its result — no business logic lives here.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/inkwell-run/ingestor/internal/domain/ingestion"
)

const (
	headerContentType = "Content-Type"
	mimeJSON          = "application/json"
)

// IngestHandler exposes Enqueue over HTTP.
type IngestHandler struct {
	enqueue *ingestion.Enqueue
}

// NewIngestHandler wraps an Enqueue boundary.
func NewIngestHandler(enqueue *ingestion.Enqueue) *IngestHandler {
	return &IngestHandler{enqueue: enqueue}
}

type ingestDocumentRequest struct {
	OriginalName string `json:"originalName"`
	StoredName   string `json:"storedName"`
	StoredPath   string `json:"storedPath"`
	MimeType     string `json:"mimeType"`
	SizeBytes    int64  `json:"sizeBytes"`
}

type ingestRequest struct {
	UserID          string                  `json:"userId"`
	UploadSessionID string                  `json:"uploadSessionId"`
	Documents       []ingestDocumentRequest `json:"documents"`
}

type ingestResponse struct {
	JobID string `json:"jobId"`
}

// Create handles POST /api/v1/ingestion/jobs.
func (h *IngestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !decodeBodyJSON(w, r, &req) {
		return
	}
	if req.UserID == "" || req.UploadSessionID == "" {
		writeError(w, http.StatusBadRequest, "userId and uploadSessionId are required")
		return
	}

	docs := make([]ingestion.InputDocument, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = ingestion.InputDocument{
			OriginalName: d.OriginalName,
			StoredName:   d.StoredName,
			StoredPath:   d.StoredPath,
			MimeType:     d.MimeType,
			SizeBytes:    d.SizeBytes,
		}
	}

	jobID, err := h.enqueue.Call(r.Context(), req.UserID, req.UploadSessionID, docs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set(headerContentType, mimeJSON)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(ingestResponse{JobID: jobID}) //nolint:errcheck
}

func decodeBodyJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set(headerContentType, mimeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message}) //nolint:errcheck
}
