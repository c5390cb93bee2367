package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/models"
)

const defaultSettleDelay = 2 * time.Second

// DirectoryWatcher uploads and ingests PDFs dropped into <dir>/resume/ and
// <dir>/job_description/. A file is picked up once it stopped changing for
// the settle delay.
type DirectoryWatcher struct {
	root      string
	documents DocumentService
	ingestion IngestionService
	settle    time.Duration
	logger    *zap.Logger

	mu      sync.Mutex
	pending map[string]time.Time
	seen    map[string]struct{}
}

func NewDirectoryWatcher(root string, documents DocumentService, ingestion IngestionService, settle time.Duration, log *zap.Logger) *DirectoryWatcher {
	if settle <= 0 {
		settle = defaultSettleDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DirectoryWatcher{
		root:      root,
		documents: documents,
		ingestion: ingestion,
		settle:    settle,
		logger:    log.Named("watcher"),
		pending:   make(map[string]time.Time),
		seen:      make(map[string]struct{}),
	}
}

// RoleDir returns the directory watched for role.
func (w *DirectoryWatcher) RoleDir(role models.Role) string {
	return filepath.Join(w.root, string(role))
}

// Run blocks until ctx is cancelled.
func (w *DirectoryWatcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	for _, role := range []models.Role{models.RoleResume, models.RoleJobDescription} {
		dir := w.RoleDir(role)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create watch directory: %w", err)
		}
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	w.logger.Info("👀 Watching for PDFs", zap.String("root", w.root))

	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("👀 Watcher stopped")
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.track(event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("⚠️ File watcher error", zap.Error(err))
		case now := <-ticker.C:
			for _, path := range w.ready(now) {
				w.handle(ctx, path)
			}
		}
	}
}

func (w *DirectoryWatcher) track(path string) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.seen[path]; ok {
		return
	}
	w.pending[path] = time.Now()
}

// ready returns the tracked files that have not changed for the settle delay.
func (w *DirectoryWatcher) ready(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var paths []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.settle {
			paths = append(paths, path)
			delete(w.pending, path)
			w.seen[path] = struct{}{}
		}
	}
	return paths
}

func (w *DirectoryWatcher) roleFor(path string) (models.Role, bool) {
	role, err := models.ParseRole(filepath.Base(filepath.Dir(path)))
	return role, err == nil
}

func (w *DirectoryWatcher) handle(ctx context.Context, path string) {
	role, ok := w.roleFor(path)
	if !ok {
		return
	}

	doc, duplicate, err := w.documents.CreateFromFile(ctx, path, role)
	if err != nil {
		w.logger.Error("❌ Failed to upload watched file", zap.String("path", path), zap.Error(err))
		return
	}
	if duplicate {
		w.logger.Info("♻️ Watched file matches an existing document",
			zap.String("path", path),
			zap.String("document_id", doc.ID.String()))
	}

	result, err := w.ingestion.Ingest(ctx, doc.ID, IngestOptions{SkipIfExists: true})
	if err != nil {
		w.logger.Error("❌ Failed to ingest watched file",
			zap.String("path", path),
			zap.String("document_id", doc.ID.String()),
			zap.Error(err))
		return
	}

	w.logger.Info("✅ Watched file ingested",
		zap.String("path", path),
		zap.String("document_id", doc.ID.String()),
		zap.String("status", string(result.Status)),
		zap.Int("chunks", result.ChunksCreated))
}
