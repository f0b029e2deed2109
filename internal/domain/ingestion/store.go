package ingestion

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/inkwell-run/ingestor/pkg/uuid"
)

const timeLayout = time.RFC3339Nano

// Store is the durable relational layer. It exposes each entity operation
// from the data model as an atomic unit; callers (Queue, Processor, Enqueue,
// Status) never issue raw SQL of their own.
type Store struct {
	db *sql.DB
}

// NewStore wraps an already-migrated *sql.DB.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func newID() string {
	return uuid.NewV7().String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// EnqueueJob atomically inserts one job row and one document row per input,
// If docs is empty the job is still created.
func (s *Store) EnqueueJob(ctx context.Context, userID, uploadSessionID string, docs []InputDocument) (string, error) {
	now := time.Now()
	jobID := newID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", &StorageError{Op: "enqueue begin", Err: err}
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ingestion_job
			(id, user_id, upload_session_id, status, attempt_count, max_attempts, next_run_at, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?, NULL, ?, ?)`,
		jobID, userID, uploadSessionID, string(JobStatusQueued), DefaultMaxAttempts,
		formatTime(now), formatTime(now), formatTime(now))
	if err != nil {
		return "", &StorageError{Op: "enqueue job insert", Err: err}
	}

	for _, d := range docs {
		docID := newID()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO uploaded_document
				(id, job_id, user_id, original_name, stored_name, stored_path, mime_type, size_bytes, structured_status, error, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
			docID, jobID, userID, d.OriginalName, d.StoredName, d.StoredPath, d.MimeType, d.SizeBytes,
			string(DocumentStatusPending), formatTime(now), formatTime(now))
		if err != nil {
			return "", &StorageError{Op: "enqueue document insert", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", &StorageError{Op: "enqueue commit", Err: err}
	}
	return jobID, nil
}

// ClaimNext selects the oldest eligible queued job and atomically transitions
// it to processing_structure, incrementing attempt_count. Returns nil, nil
// if no job is currently claimable; the CAS failing (lost race to another
// worker) is also reported as nil, nil rather than an error.
func (s *Store) ClaimNext(ctx context.Context) (*IngestionJob, error) {
	now := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	var id string
	row := tx.QueryRowContext(ctx, `
		SELECT id FROM ingestion_job
		WHERE status = ? AND next_run_at <= ? AND attempt_count < max_attempts
		ORDER BY created_at ASC
		LIMIT 1`,
		string(JobStatusQueued), formatTime(now))
	if err := row.Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE ingestion_job
		SET status = ?, attempt_count = attempt_count + 1, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(JobStatusProcessingStructure), formatTime(now), id, string(JobStatusQueued))
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected != 1 {
		// Another worker won the race between our SELECT and UPDATE.
		return nil, nil
	}

	job, err := s.getJobTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *Store) getJobTx(ctx context.Context, tx *sql.Tx, id string) (*IngestionJob, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, user_id, upload_session_id, status, attempt_count, max_attempts, next_run_at, error, created_at, updated_at
		FROM ingestion_job WHERE id = ?`, id)
	return scanJob(row)
}

// GetJob fetches a single job by id, or nil if it does not exist.
func (s *Store) GetJob(ctx context.Context, id string) (*IngestionJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, upload_session_id, status, attempt_count, max_attempts, next_run_at, error, created_at, updated_at
		FROM ingestion_job WHERE id = ?`, id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return job, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*IngestionJob, error) {
	var j IngestionJob
	var status string
	var nextRunAt, createdAt, updatedAt string
	var errMsg sql.NullString

	if err := row.Scan(&j.ID, &j.UserID, &j.UploadSessionID, &status, &j.AttemptCount, &j.MaxAttempts,
		&nextRunAt, &errMsg, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	j.Status = JobStatus(status)
	if errMsg.Valid {
		v := errMsg.String
		j.Error = &v
	}
	var err error
	if j.NextRunAt, err = parseTime(nextRunAt); err != nil {
		return nil, err
	}
	if j.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if j.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &j, nil
}

// GetDocumentsForJob returns all documents for a job in creation order.
func (s *Store) GetDocumentsForJob(ctx context.Context, jobID string) ([]UploadedDocument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, user_id, original_name, stored_name, stored_path, mime_type, size_bytes,
		       structured_status, error, created_at, updated_at
		FROM uploaded_document WHERE job_id = ? ORDER BY created_at ASC`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []UploadedDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func scanDocument(row rowScanner) (UploadedDocument, error) {
	var d UploadedDocument
	var status string
	var errMsg sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&d.ID, &d.JobID, &d.UserID, &d.OriginalName, &d.StoredName, &d.StoredPath,
		&d.MimeType, &d.SizeBytes, &status, &errMsg, &createdAt, &updatedAt); err != nil {
		return UploadedDocument{}, err
	}
	d.StructuredStatus = DocumentStatus(status)
	if errMsg.Valid {
		v := errMsg.String
		d.Error = &v
	}
	var err error
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return UploadedDocument{}, err
	}
	if d.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return UploadedDocument{}, err
	}
	return d, nil
}

// SetJobStatus unconditionally writes a job's status and optional error.
func (s *Store) SetJobStatus(ctx context.Context, jobID string, status JobStatus, errMsg *string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE ingestion_job SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), nullableString(errMsg), formatTime(time.Now()), jobID)
	return err
}

// SetDocumentStructuredStatus unconditionally writes a document's structured
// status and optional error.
func (s *Store) SetDocumentStructuredStatus(ctx context.Context, documentID string, status DocumentStatus, errMsg *string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE uploaded_document SET structured_status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), nullableString(errMsg), formatTime(time.Now()), documentID)
	return err
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// FailWithRetry reads the job, then either schedules a retry (queued, with
// backoff) or terminates it (failed) depending on remaining attempts. A
// missing job row is a no-op.
func (s *Store) FailWithRetry(ctx context.Context, jobID string, errorMessage string) error {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return nil
	}

	now := time.Now()
	msg := errorMessage

	if job.AttemptCount >= job.MaxAttempts {
		_, err := s.db.ExecContext(ctx, `
			UPDATE ingestion_job SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
			string(JobStatusFailed), msg, formatTime(now), jobID)
		return err
	}

	nextRunAt := now.Add(Backoff(job.AttemptCount))
	_, err = s.db.ExecContext(ctx, `
		UPDATE ingestion_job SET status = ?, error = ?, next_run_at = ?, updated_at = ? WHERE id = ?`,
		string(JobStatusQueued), msg, formatTime(nextRunAt), formatTime(now), jobID)
	return err
}

// InsertChunks assigns dense sequential chunkIndex starting at 0, trims
// text, drops empty entries, and writes all rows in a single transaction,
// Returns the persisted rows in insertion order.
func (s *Store) InsertChunks(ctx context.Context, documentID string, chunks []ChunkInput) ([]DocumentChunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now()
	var persisted []DocumentChunk
	index := 0
	for _, c := range chunks {
		text := trimText(c.Text)
		if text == "" {
			continue
		}
		metaJSON, err := marshalMetadata(c.Metadata)
		if err != nil {
			return nil, err
		}

		id := newID()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO document_chunk (id, document_id, chunk_index, text, metadata, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, documentID, index, text, metaJSON, formatTime(now))
		if err != nil {
			return nil, err
		}

		persisted = append(persisted, DocumentChunk{
			ID:         id,
			DocumentID: documentID,
			ChunkIndex: index,
			Text:       text,
			Metadata:   c.Metadata,
			CreatedAt:  now,
		})
		index++
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return persisted, nil
}

func trimText(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

func marshalMetadata(m map[string]any) (any, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// GetChunksForDocument returns a document's chunks ordered by chunkIndex.
func (s *Store) GetChunksForDocument(ctx context.Context, documentID string) ([]DocumentChunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, text, metadata, created_at
		FROM document_chunk WHERE document_id = ? ORDER BY chunk_index ASC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []DocumentChunk
	for rows.Next() {
		var c DocumentChunk
		var metaJSON sql.NullString
		var createdAt string
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Text, &metaJSON, &createdAt); err != nil {
			return nil, err
		}
		if metaJSON.Valid && metaJSON.String != "" {
			var m map[string]any
			if err := json.Unmarshal([]byte(metaJSON.String), &m); err != nil {
				return nil, fmt.Errorf("decode chunk metadata: %w", err)
			}
			c.Metadata = m
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// HasEmbedding reports whether a chunk already has an embedding row for model.
func (s *Store) HasEmbedding(ctx context.Context, chunkID, model string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM chunk_embedding WHERE chunk_id = ? AND embedding_model = ?`,
		chunkID, model).Scan(&count)
	return count > 0, err
}

// InsertEmbedding persists a ChunkEmbedding row.
func (s *Store) InsertEmbedding(ctx context.Context, chunkID, model string, vector []float32) error {
	vecJSON, err := json.Marshal(vector)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chunk_embedding (id, chunk_id, embedding_model, embedding_dim, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		newID(), chunkID, model, len(vector), string(vecJSON), formatTime(time.Now()))
	return err
}

// GetJobWithDocuments implements the Status boundary, scoped to the
// owning user. Returns nil, nil if no matching job exists.
func (s *Store) GetJobWithDocuments(ctx context.Context, jobID, userID string) (*JobWithDocuments, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, upload_session_id, status, attempt_count, max_attempts, next_run_at, error, created_at, updated_at
		FROM ingestion_job WHERE id = ? AND user_id = ?`, jobID, userID)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	docs, err := s.GetDocumentsForJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &JobWithDocuments{Job: *job, Documents: docs}, nil
}

// RecoverStaleJobs resets jobs stuck in a non-terminal, non-queued status
// (processing_structure/processing_embeddings) for longer than threshold
// back to queued, without incrementing attempt_count — a crash is not a
// completed attempt. Returns the number of jobs recovered.
func (s *Store) RecoverStaleJobs(ctx context.Context, threshold time.Duration) (int, error) {
	cutoff := time.Now().Add(-threshold)
	res, err := s.db.ExecContext(ctx, `
		UPDATE ingestion_job
		SET status = ?, next_run_at = ?, updated_at = ?
		WHERE status IN (?, ?) AND updated_at < ?`,
		string(JobStatusQueued), formatTime(time.Now()), formatTime(time.Now()),
		string(JobStatusProcessingStructure), string(JobStatusProcessingEmbeddings),
		formatTime(cutoff))
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	return int(affected), err
}
