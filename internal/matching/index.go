package matching

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"alfredoptarigan/resume-matcher/internal/models"
)

// Hit is one chunk returned by a similarity query.
type Hit struct {
	Chunk      models.Chunk
	Similarity float64
}

// Filter narrows a similarity query. Zero values match everything.
type Filter struct {
	DocumentID  uuid.UUID
	SectionType models.SectionType
}

// Searcher answers top-K similarity queries over stored chunk vectors.
type Searcher interface {
	QueryTopK(ctx context.Context, vector []float32, k int, filter Filter) ([]Hit, error)
}

// MemoryIndex is a brute-force cosine index kept in process memory.
type MemoryIndex struct {
	mu     sync.RWMutex
	chunks map[uuid.UUID]models.Chunk
	docs   map[uuid.UUID][]uuid.UUID
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		chunks: make(map[uuid.UUID]models.Chunk),
		docs:   make(map[uuid.UUID][]uuid.UUID),
	}
}

// Upsert stores chunks, replacing any with the same ID.
func (m *MemoryIndex) Upsert(ctx context.Context, chunks []models.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ch := range chunks {
		if _, exists := m.chunks[ch.ID]; !exists {
			m.docs[ch.DocumentID] = append(m.docs[ch.DocumentID], ch.ID)
		}
		m.chunks[ch.ID] = ch
	}
	return nil
}

func (m *MemoryIndex) QueryTopK(ctx context.Context, vector []float32, k int, filter Filter) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []uuid.UUID
	if filter.DocumentID != uuid.Nil {
		ids = m.docs[filter.DocumentID]
	} else {
		for id := range m.chunks {
			ids = append(ids, id)
		}
	}

	hits := make([]Hit, 0, len(ids))
	for _, id := range ids {
		ch := m.chunks[id]
		if filter.SectionType != "" && ch.SectionType != filter.SectionType {
			continue
		}
		hits = append(hits, Hit{Chunk: ch, Similarity: Cosine(vector, ch.Vector())})
	}

	sortHits(hits)
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DeleteDocument removes every chunk of a document.
func (m *MemoryIndex) DeleteDocument(ctx context.Context, documentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.docs[documentID] {
		delete(m.chunks, id)
	}
	delete(m.docs, documentID)
	return nil
}

func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// sortHits orders by similarity descending, then by document and chunk index
// so equal scores come back in a stable order.
func sortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		if hits[i].Chunk.DocumentID != hits[j].Chunk.DocumentID {
			return hits[i].Chunk.DocumentID.String() < hits[j].Chunk.DocumentID.String()
		}
		return hits[i].Chunk.ChunkIndex < hits[j].Chunk.ChunkIndex
	})
}
