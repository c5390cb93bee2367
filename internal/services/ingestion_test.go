package services

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"

	"alfredoptarigan/resume-matcher/internal/apperror"
	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/rag"
)

func TestIngestCompletesDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.createText(t, models.RoleResume, sampleResume)

	res := env.ingest(t, doc)
	if res.Status != models.IngestionCompleted {
		t.Fatalf("status = %q, want completed", res.Status)
	}
	if res.ChunksCreated == 0 || res.TotalTokens == 0 {
		t.Fatalf("expected chunks and tokens, got %+v", res)
	}
	wantCost := float64(res.TotalTokens) / 1e6 * 0.02
	if math.Abs(res.EstimatedCostUSD-wantCost) > 1e-12 {
		t.Fatalf("cost = %v, want %v", res.EstimatedCostUSD, wantCost)
	}
	if res.Summary["total_chunks"] != res.ChunksCreated {
		t.Fatalf("summary total_chunks = %v, want %d", res.Summary["total_chunks"], res.ChunksCreated)
	}

	stored, err := env.docRepo.FindByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("FindByID() error: %v", err)
	}
	if stored.EmbeddingStatus != models.StatusCompleted {
		t.Fatalf("embedding_status = %q, want completed", stored.EmbeddingStatus)
	}
	if stored.ChunkCount != res.ChunksCreated || stored.TotalTokens != res.TotalTokens {
		t.Fatalf("stored counts %d/%d, result %d/%d", stored.ChunkCount, stored.TotalTokens, res.ChunksCreated, res.TotalTokens)
	}
	if len(stored.SectionDistribution) == 0 {
		t.Fatalf("expected a section distribution")
	}

	chunks, err := env.chunkRepo.FindByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("FindByDocument() error: %v", err)
	}
	if len(chunks) != res.ChunksCreated {
		t.Fatalf("stored %d chunks, want %d", len(chunks), res.ChunksCreated)
	}
	for i, ch := range chunks {
		if ch.ChunkIndex != i {
			t.Fatalf("chunk %d has index %d", i, ch.ChunkIndex)
		}
		if len(ch.Vector()) != 27 || ch.EmbeddingModel != "fake-embedding" {
			t.Fatalf("chunk %d missing embedding: %d dims, model %q", i, len(ch.Vector()), ch.EmbeddingModel)
		}
	}
	if env.indexLen() != res.ChunksCreated {
		t.Fatalf("vector index holds %d points, want %d", env.indexLen(), res.ChunksCreated)
	}
}

func TestIngestSkipsCompletedDocument(t *testing.T) {
	env := newTestEnv(t)
	doc := env.createText(t, models.RoleResume, sampleResume)
	first := env.ingest(t, doc)
	calls := env.embedder.calls

	second := env.ingest(t, doc)
	if second.Status != models.IngestionSkipped {
		t.Fatalf("status = %q, want skipped", second.Status)
	}
	if second.ChunksCreated != first.ChunksCreated || second.EstimatedCostUSD != 0 {
		t.Fatalf("skipped result = %+v", second)
	}
	if env.embedder.calls != calls {
		t.Fatalf("skipped ingestion called the embedder")
	}
}

func TestIngestWithoutSkipRejectsCompletedDocument(t *testing.T) {
	env := newTestEnv(t)
	doc := env.createText(t, models.RoleResume, sampleResume)
	env.ingest(t, doc)

	_, err := env.ingestion.Ingest(context.Background(), doc.ID, IngestOptions{SkipIfExists: false})
	if apperror.KindOf(err) != apperror.KindPreconditionFailed {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestIngestUnknownDocument(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ingestion.Ingest(context.Background(), uuid.New(), IngestOptions{SkipIfExists: true})
	if apperror.KindOf(err) != apperror.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestIngestEmptyDocumentFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc := &models.Document{Role: models.RoleResume, Filename: "blank.pdf", ContentHash: "blank"}
	if err := env.docRepo.Create(ctx, doc); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	_, err := env.ingestion.Ingest(ctx, doc.ID, IngestOptions{SkipIfExists: true})
	if apperror.KindOf(err) != apperror.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	stored, _ := env.docRepo.FindByID(ctx, doc.ID)
	if stored.EmbeddingStatus != models.StatusFailed {
		t.Fatalf("embedding_status = %q, want failed", stored.EmbeddingStatus)
	}
	if stored.ErrorMessage == nil || *stored.ErrorMessage == "" {
		t.Fatalf("expected an error message")
	}
	if stored.ChunkCount != 0 {
		t.Fatalf("failed document has chunk_count %d", stored.ChunkCount)
	}
}

func TestIngestEmbeddingFailureLeavesNoChunks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.createText(t, models.RoleResume, sampleResume)
	env.embedder.err = errEmbeddingDown

	if _, err := env.ingestion.Ingest(ctx, doc.ID, IngestOptions{SkipIfExists: true}); err == nil {
		t.Fatalf("expected embedding error")
	}

	count, err := env.chunkRepo.CountByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("CountByDocument() error: %v", err)
	}
	if count != 0 || env.indexLen() != 0 {
		t.Fatalf("partial chunks left behind: db=%d index=%d", count, env.indexLen())
	}

	stored, _ := env.docRepo.FindByID(ctx, doc.ID)
	if stored.EmbeddingStatus != models.StatusFailed {
		t.Fatalf("embedding_status = %q, want failed", stored.EmbeddingStatus)
	}

	// failed is terminal
	env.embedder.err = nil
	_, err = env.ingestion.Ingest(ctx, doc.ID, IngestOptions{SkipIfExists: true})
	if apperror.KindOf(err) != apperror.KindPreconditionFailed {
		t.Fatalf("expected precondition error after failure, got %v", err)
	}
}

func TestIngestChunkSizeOverride(t *testing.T) {
	defaults := newTestEnv(t)
	base := defaults.ingest(t, defaults.createText(t, models.RoleResume, sampleResume))

	env := newTestEnv(t)
	doc := env.createText(t, models.RoleResume, sampleResume)
	res, err := env.ingestion.Ingest(context.Background(), doc.ID, IngestOptions{
		SkipIfExists: true,
		ChunkSize:    60,
		ChunkOverlap: 10,
	})
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	if res.ChunksCreated <= base.ChunksCreated {
		t.Fatalf("chunk_size 60 gave %d chunks, default gave %d", res.ChunksCreated, base.ChunksCreated)
	}
}

func TestIngestMergesOnlyWhenMinimumConfigured(t *testing.T) {
	opts := IngestOptions{SkipIfExists: true, ChunkSize: 60, ChunkOverlap: 10}

	plain := newTestEnv(t)
	doc := plain.createText(t, models.RoleResume, sampleResume)
	base, err := plain.ingestion.Ingest(context.Background(), doc.ID, opts)
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}

	env := newTestEnv(t)
	env.ingestion = NewIngestionService(env.docRepo, env.chunkRepo, nil, env.embedder, env.vectors,
		IngestionConfig{Concurrency: 1, MinChunkSize: rag.DefaultMinChunkSize}, nil)
	doc = env.createText(t, models.RoleResume, sampleResume)
	merged, err := env.ingestion.Ingest(context.Background(), doc.ID, opts)
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}

	if base.ChunksCreated < 2 {
		t.Fatalf("expected several small chunks without a minimum, got %d", base.ChunksCreated)
	}
	if merged.ChunksCreated >= base.ChunksCreated {
		t.Fatalf("min size %d gave %d chunks, unset gave %d", rag.DefaultMinChunkSize, merged.ChunksCreated, base.ChunksCreated)
	}
}

func TestIngestReleasesDocumentLocks(t *testing.T) {
	env := newTestEnv(t)
	resume := env.createText(t, models.RoleResume, sampleResume)
	jd := env.createText(t, models.RoleJobDescription, sampleJD)

	ids := []uuid.UUID{resume.ID, resume.ID, jd.ID, jd.ID}
	results := make([]*models.IngestionResult, len(ids))
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			results[i], errs[i] = env.ingestion.Ingest(context.Background(), id, IngestOptions{SkipIfExists: true})
		}(i, id)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Ingest(%s) error: %v", ids[i], err)
		}
	}
	for _, pair := range [][2]int{{0, 1}, {2, 3}} {
		a, b := results[pair[0]].Status, results[pair[1]].Status
		completed := (a == models.IngestionCompleted && b == models.IngestionSkipped) ||
			(a == models.IngestionSkipped && b == models.IngestionCompleted)
		if !completed {
			t.Fatalf("same document ingested concurrently: statuses %q and %q", a, b)
		}
	}

	svc := env.ingestion.(*ingestionService)
	svc.locksMu.Lock()
	defer svc.locksMu.Unlock()
	if len(svc.locks) != 0 {
		t.Fatalf("expected no document locks after ingestion, got %d", len(svc.locks))
	}
}

func TestIngestManyReportsEachDocument(t *testing.T) {
	env := newTestEnv(t)
	resume := env.createText(t, models.RoleResume, sampleResume)
	jd := env.createText(t, models.RoleJobDescription, sampleJD)
	missing := uuid.New()

	results := env.ingestion.IngestMany(context.Background(), []uuid.UUID{resume.ID, missing, jd.ID}, IngestOptions{SkipIfExists: true})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].DocumentID != resume.ID || results[0].Status != models.IngestionCompleted {
		t.Fatalf("resume result = %+v", results[0])
	}
	if results[1].DocumentID != missing || results[1].Status != models.IngestionFailed || results[1].Error == "" {
		t.Fatalf("missing result = %+v", results[1])
	}
	if results[2].DocumentID != jd.ID || results[2].Status != models.IngestionCompleted {
		t.Fatalf("jd result = %+v", results[2])
	}
}
