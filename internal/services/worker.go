package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/repositories"
)

const (
	defaultQueueSize    = 100
	defaultPollInterval = 10 * time.Second
	pollBatchSize       = 10
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(documentID uuid.UUID) bool
	RequestIngest(ctx context.Context, documentID uuid.UUID) error
}

type worker struct {
	docRepo      repositories.DocumentRepository
	ingestion    IngestionService
	jobQueue     chan uuid.UUID
	concurrency  int
	pollInterval time.Duration
	wg           sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
	logger       *zap.Logger

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func NewWorker(
	docRepo repositories.DocumentRepository,
	ingestion IngestionService,
	concurrency int,
	pollInterval time.Duration,
	log *zap.Logger,
) Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &worker{
		docRepo:      docRepo,
		ingestion:    ingestion,
		jobQueue:     make(chan uuid.UUID, defaultQueueSize),
		concurrency:  concurrency,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		logger:       log.Named("worker"),
		inFlight:     make(map[uuid.UUID]struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.logger.Info("🚀 Starting worker", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollRequestedJobs(ctx)

	w.logger.Info("✅ Worker started successfully")
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("🛑 Stopping worker...")
		close(w.stopChan)
		w.wg.Wait()
		w.logger.Info("✅ Worker stopped")
	})
}

// RequestIngest records the request durably before queueing it, so a
// restart picks the document up again.
func (w *worker) RequestIngest(ctx context.Context, documentID uuid.UUID) error {
	if err := w.docRepo.MarkIngestRequested(ctx, documentID, time.Now()); err != nil {
		return err
	}
	w.EnqueueJob(documentID)
	return nil
}

// EnqueueJob implements Worker. It reports false when the document is
// already queued or the queue cannot take it right now; the poller retries
// requested documents later.
func (w *worker) EnqueueJob(documentID uuid.UUID) bool {
	select {
	case <-w.stopChan:
		w.logger.Warn("⚠️ Worker stopped, cannot enqueue job", zap.String("document_id", documentID.String()))
		return false
	default:
	}

	w.mu.Lock()
	if _, ok := w.inFlight[documentID]; ok {
		w.mu.Unlock()
		return false
	}
	w.inFlight[documentID] = struct{}{}
	w.mu.Unlock()

	select {
	case w.jobQueue <- documentID:
		w.logger.Debug("📥 Job enqueued", zap.String("document_id", documentID.String()))
		return true
	default:
		w.logger.Warn("⚠️ Job queue full, leaving job for the poller", zap.String("document_id", documentID.String()))
	}

	w.release(documentID)
	return false
}

func (w *worker) release(documentID uuid.UUID) {
	w.mu.Lock()
	delete(w.inFlight, documentID)
	w.mu.Unlock()
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			w.logger.Debug("👷 Worker stopped", zap.Int("worker", workerID))
			return
		case <-ctx.Done():
			return
		case documentID := <-w.jobQueue:
			w.process(ctx, workerID, documentID)
		}
	}
}

func (w *worker) process(ctx context.Context, workerID int, documentID uuid.UUID) {
	defer w.release(documentID)

	w.logger.Info("👷 Processing ingestion job",
		zap.Int("worker", workerID),
		zap.String("document_id", documentID.String()))

	result, err := w.ingestion.Ingest(ctx, documentID, IngestOptions{SkipIfExists: true})
	if err != nil {
		w.logger.Error("❌ Ingestion job failed",
			zap.Int("worker", workerID),
			zap.String("document_id", documentID.String()),
			zap.Error(err))
		return
	}

	w.logger.Info("✅ Ingestion job completed",
		zap.Int("worker", workerID),
		zap.String("document_id", documentID.String()),
		zap.String("status", string(result.Status)),
		zap.Int("chunks", result.ChunksCreated))
}

func (w *worker) pollRequestedJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Debug("🔄 Starting requested jobs poller", zap.Duration("interval", w.pollInterval))

	for {
		select {
		case <-w.stopChan:
			w.logger.Debug("🔄 Requested jobs poller stopped")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pollOnce(ctx)
		}
	}
}

func (w *worker) pollOnce(ctx context.Context) {
	docs, err := w.docRepo.FindIngestRequested(ctx, pollBatchSize)
	if err != nil {
		w.logger.Warn("⚠️ Failed to fetch requested jobs", zap.Error(err))
		return
	}

	enqueued := 0
	for _, doc := range docs {
		if w.EnqueueJob(doc.ID) {
			enqueued++
		}
	}
	if enqueued > 0 {
		w.logger.Info("📋 Requeued requested jobs", zap.Int("count", enqueued))
	}
}
