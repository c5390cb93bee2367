package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gorm.io/gorm"

	"alfredoptarigan/resume-matcher/internal/config"
	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/repositories"
)

const sampleResume = `Jane Doe
Backend developer focused on Go services.

Skills
Go, PostgreSQL, Docker, Kubernetes, REST API design

Experience
Developed payment APIs in Go at Acme Corp.
Operated PostgreSQL clusters and Docker based deployments.

Education
Bachelor of Computer Science, Seoul University`

const sampleJD = `Requirements
3+ years of backend development with Go or Java
Experience with PostgreSQL and Docker
REST API design

Preferred
Kubernetes operations experience`

// fakeEmbedder maps text to letter frequencies, so similar texts get
// similar vectors.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, 27)
		v[26] = 1
		for _, r := range strings.ToLower(text) {
			if r >= 'a' && r <= 'z' {
				v[r-'a']++
			}
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbeddingModel() string {
	return "fake-embedding"
}

type fakeGenerator struct {
	reply        string
	err          error
	systemPrompt string
	prompt       string
}

func (f *fakeGenerator) GenerateJSON(_ context.Context, systemPrompt, prompt string) (string, error) {
	f.systemPrompt = systemPrompt
	f.prompt = prompt
	return f.reply, f.err
}

type testEnv struct {
	db        *gorm.DB
	docRepo   repositories.DocumentRepository
	chunkRepo repositories.ChunkRepository
	index     VectorIndex
	vectors   *VectorStore
	embedder  *fakeEmbedder
	documents DocumentService
	ingestion IngestionService
	analysis  AnalysisService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := config.OpenSQLite(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// worker tests read while a goroutine writes
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	env := &testEnv{
		db:        db,
		docRepo:   repositories.NewDocumentRepository(db),
		chunkRepo: repositories.NewChunkRepository(db),
		index:     NewMemoryIndex(),
		embedder:  &fakeEmbedder{},
	}
	env.vectors = NewVectorStore(env.index, fastRetry(), nil)
	env.documents = NewDocumentService(env.docRepo, env.chunkRepo,
		NewStorageService(t.TempDir(), 10<<20), NewPDFParserService(nil), env.vectors, nil)
	env.ingestion = NewIngestionService(env.docRepo, env.chunkRepo, nil, env.embedder, env.vectors,
		IngestionConfig{Concurrency: 1}, nil)
	env.analysis = NewAnalysisService(env.docRepo, env.chunkRepo, nil, nil)
	return env
}

func (e *testEnv) createText(t *testing.T, role models.Role, content string) *models.Document {
	t.Helper()
	doc, _, err := e.documents.CreateFromText(context.Background(), role, "", content)
	if err != nil {
		t.Fatalf("CreateFromText(%s) error: %v", role, err)
	}
	return doc
}

func (e *testEnv) ingest(t *testing.T, doc *models.Document) *models.IngestionResult {
	t.Helper()
	res, err := e.ingestion.Ingest(context.Background(), doc.ID, IngestOptions{SkipIfExists: true})
	if err != nil {
		t.Fatalf("Ingest(%s) error: %v", doc.ID, err)
	}
	return res
}

func (e *testEnv) indexLen() int {
	return e.index.(*memoryIndex).Len()
}

var errEmbeddingDown = errors.New("embedding backend down")
