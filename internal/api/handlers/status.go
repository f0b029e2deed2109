package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-run/ingestor/internal/domain/ingestion"
)

// StatusHandler exposes the Status boundary over HTTP.
type StatusHandler struct {
	status *ingestion.Status
}

// NewStatusHandler wraps a Status boundary.
func NewStatusHandler(status *ingestion.Status) *StatusHandler {
	return &StatusHandler{status: status}
}

type documentView struct {
	ID               string  `json:"documentId"`
	OriginalName     string  `json:"originalName"`
	MimeType         string  `json:"mimeType"`
	SizeBytes        int64   `json:"sizeBytes"`
	StructuredStatus string  `json:"structuredStatus"`
	Error            *string `json:"error,omitempty"`
}

type jobView struct {
	JobID        string         `json:"jobId"`
	Status       string         `json:"status"`
	AttemptCount int            `json:"attemptCount"`
	MaxAttempts  int            `json:"maxAttempts"`
	Error        *string        `json:"error,omitempty"`
	Documents    []documentView `json:"documents"`
}

// Get handles GET /api/v1/ingestion/jobs/{jobId}?userId=....
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	userID := r.URL.Query().Get("userId")
	if jobID == "" || userID == "" {
		writeError(w, http.StatusBadRequest, "jobId and userId are required")
		return
	}

	result, err := h.status.Call(r.Context(), jobID, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	docs := make([]documentView, len(result.Documents))
	for i, d := range result.Documents {
		docs[i] = documentView{
			ID:               d.ID,
			OriginalName:     d.OriginalName,
			MimeType:         d.MimeType,
			SizeBytes:        d.SizeBytes,
			StructuredStatus: string(d.StructuredStatus),
			Error:            d.Error,
		}
	}

	view := jobView{
		JobID:        result.Job.ID,
		Status:       string(result.Job.Status),
		AttemptCount: result.Job.AttemptCount,
		MaxAttempts:  result.Job.MaxAttempts,
		Error:        result.Job.Error,
		Documents:    docs,
	}

	w.Header().Set(headerContentType, mimeJSON)
	_ = json.NewEncoder(w).Encode(view) //nolint:errcheck
}
