package api

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/inkwell-run/ingestor/internal/api/handlers"
	"github.com/inkwell-run/ingestor/internal/domain/ingestion"
	"github.com/inkwell-run/ingestor/internal/infra/sqlite"
)

func mustOpenAPITestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.NewDB(":memory:")
	if err != nil {
		t.Fatalf("mustOpenAPITestDB: NewDB: %v", err)
	}
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("mustOpenAPITestDB: MigrateUp: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db := mustOpenAPITestDB(t)
	store := ingestion.NewStore(db)
	ingest := handlers.NewIngestHandler(ingestion.NewEnqueue(store))
	status := handlers.NewStatusHandler(ingestion.NewStatus(store))
	return NewRouter(ingest, status, nil)
}

func TestNewRouter_HealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 from /health, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("expected body to contain 'ok', got %q", w.Body.String())
	}
}

func TestNewRouter_EnqueueThenStatus(t *testing.T) {
	router := newTestRouter(t)

	body := `{"userId":"user-1","uploadSessionId":"sess-1","documents":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingestion/jobs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 from enqueue, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "jobId") {
		t.Fatalf("expected response to contain jobId, got %q", w.Body.String())
	}
}

func TestNewRouter_StatusMissingUserID(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ingestion/jobs/some-id", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without userId query param, got %d", w.Code)
	}
}
