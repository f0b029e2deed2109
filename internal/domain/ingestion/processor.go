package ingestion

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/inkwell-run/ingestor/internal/infra/provider"
)

// Processor drives one claimed job through structuring and embedding
// It never returns an error to its caller — every failure path
// terminates via a Queue call.
type Processor struct {
	queue      *Queue
	store      *Store
	structurer provider.Structurer
	embedder   provider.Embedder
	storedRoot string
}

// NewProcessor builds a Processor. storedRoot bounds every document's
// storedPath; any resolved path escaping it is rejected.
func NewProcessor(queue *Queue, store *Store, structurer provider.Structurer, embedder provider.Embedder, storedRoot string) *Processor {
	return &Processor{
		queue:      queue,
		store:      store,
		structurer: structurer,
		embedder:   embedder,
		storedRoot: storedRoot,
	}
}

// Process drives one claimed job through structuring and embedding.
func (p *Processor) Process(ctx context.Context, jobID string) {
	if p.structurer == nil || p.embedder == nil {
		p.queue.FailWithRetry(ctx, jobID, "ingestion: no provider configured") //nolint:errcheck
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.queue.FailWithRetry(ctx, jobID, fmt.Sprintf("processor panic: %v", r)) //nolint:errcheck
		}
	}()

	docs, err := p.queue.GetDocumentsForJob(ctx, jobID)
	if err != nil {
		p.queue.FailWithRetry(ctx, jobID, err.Error()) //nolint:errcheck
		return
	}

	for _, doc := range docs {
		if err := p.processDocument(ctx, jobID, doc); err != nil {
			p.queue.FailWithRetry(ctx, jobID, err.Error()) //nolint:errcheck
			return
		}
	}

	if err := p.queue.SetJobStatus(ctx, jobID, JobStatusCompleted, nil); err != nil {
		p.queue.FailWithRetry(ctx, jobID, err.Error()) //nolint:errcheck
	}
}

// processDocument structures and embeds one document. Store errors and
// embedding errors are returned; a stored path that escapes the storage
// root and provider-reported unsupported/failed outcomes are terminal for
// the document but not for the job.
func (p *Processor) processDocument(ctx context.Context, jobID string, doc UploadedDocument) error {
	if err := p.queue.SetDocumentStructuredStatus(ctx, doc.ID, DocumentStatusProcessing, nil); err != nil {
		return err
	}

	// Retry-idempotence policy: a document with persisted chunks has already
	// been structured, whether or not a prior attempt went on to embed all
	// of them — resume embedding instead of re-structuring and colliding
	// with the chunk_index uniqueness constraint.
	existing, err := p.store.GetChunksForDocument(ctx, doc.ID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		if err := p.embedChunks(ctx, jobID, existing); err != nil {
			return err
		}
		return p.queue.SetDocumentStructuredStatus(ctx, doc.ID, DocumentStatusStructured, nil)
	}

	absPath, err := p.resolveStoredPath(doc.StoredPath)
	if err != nil {
		msg := err.Error()
		return p.queue.SetDocumentStructuredStatus(ctx, doc.ID, DocumentStatusFailed, &msg)
	}

	result := p.structurer.Structure(ctx, absPath, doc.MimeType)
	switch result.Status {
	case provider.StructureStatusUnsupported:
		msg := result.Error
		return p.queue.SetDocumentStructuredStatus(ctx, doc.ID, DocumentStatusUnsupported, &msg)
	case provider.StructureStatusFailed:
		msg := result.Error
		return p.queue.SetDocumentStructuredStatus(ctx, doc.ID, DocumentStatusFailed, &msg)
	}

	inputs := make([]ChunkInput, len(result.Chunks))
	for i, c := range result.Chunks {
		inputs[i] = ChunkInput{Text: c.Text, Metadata: c.Metadata}
	}
	persisted, err := p.store.InsertChunks(ctx, doc.ID, inputs)
	if err != nil {
		return err
	}

	if err := p.embedChunks(ctx, jobID, persisted); err != nil {
		return err
	}

	return p.queue.SetDocumentStructuredStatus(ctx, doc.ID, DocumentStatusStructured, nil)
}

// embedChunks transitions the job to processing_embeddings (idempotent) and,
// in chunk order, calls the Embedder for every chunk, persisting the result
// only for chunks that do not already carry an embedding for the returned
// model. A chunk embedded on an earlier attempt is sent to the Embedder
// again; only the duplicate row is skipped.
func (p *Processor) embedChunks(ctx context.Context, jobID string, chunks []DocumentChunk) error {
	if err := p.queue.SetJobStatus(ctx, jobID, JobStatusProcessingEmbeddings, nil); err != nil {
		return err
	}

	for _, chunk := range chunks {
		result, err := p.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("embedding chunk %s: %w", chunk.ID, err)
		}

		has, err := p.store.HasEmbedding(ctx, chunk.ID, result.Model)
		if err != nil {
			return err
		}
		if has {
			continue
		}

		if err := p.store.InsertEmbedding(ctx, chunk.ID, result.Model, result.Vector); err != nil {
			return err
		}
	}

	return nil
}

// resolveStoredPath joins storedPath under storedRoot and rejects any
// result that escapes it.
func (p *Processor) resolveStoredPath(storedPath string) (string, error) {
	root, err := filepath.Abs(p.storedRoot)
	if err != nil {
		return "", fmt.Errorf("resolve stored root: %w", err)
	}

	joined := filepath.Join(root, storedPath)
	absPath, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("resolve stored path: %w", err)
	}

	rel, err := filepath.Rel(root, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("stored path %q escapes storage root", storedPath)
	}

	return absPath, nil
}
