package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"alfredoptarigan/resume-matcher/internal/apperror"
	"alfredoptarigan/resume-matcher/internal/matching"
	"alfredoptarigan/resume-matcher/internal/models"
)

const qdrantUpsertBatch = 100

// VectorIndex stores chunk vectors and answers top-K queries over them.
type VectorIndex interface {
	matching.Searcher
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, chunks []models.Chunk) error
	DeleteDocument(ctx context.Context, documentID uuid.UUID) error
	Name() string
}

type qdrantIndex struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
	logger         *zap.Logger
}

func NewQdrantIndex(urlStr, apiKey, collectionName string, vectorSize uint64, log *zap.Logger) (VectorIndex, error) {
	// Parse URL to extract host, port, and TLS usage
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// The REST port in QDRANT_URL is replaced by the gRPC port
	port := 6334
	if p := parsed.Port(); p != "" && p != "6333" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	if vectorSize == 0 {
		vectorSize = 768
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &qdrantIndex{
		client:         client,
		collectionName: collectionName,
		vectorSize:     vectorSize,
		logger:         log.Named("qdrant"),
	}, nil
}

func (q *qdrantIndex) Name() string {
	return "qdrant"
}

// EnsureCollection implements VectorIndex.
func (q *qdrantIndex) EnsureCollection(ctx context.Context) error {
	const op = "qdrant.ensure_collection"

	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return classifyQdrantError(op, fmt.Errorf("failed to check collection: %w", err))
	}

	if exists {
		q.logger.Info("✅ Collection already exists", zap.String("collection", q.collectionName))
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return classifyQdrantError(op, fmt.Errorf("failed to create collection: %w", err))
	}

	for _, field := range []string{"document_id", "section_type"} {
		_, err := q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: q.collectionName,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return classifyQdrantError(op, fmt.Errorf("failed to index payload field %s: %w", field, err))
		}
	}

	q.logger.Info("✅ Qdrant collection created", zap.String("collection", q.collectionName))
	return nil
}

// Upsert implements VectorIndex. Point ids are the chunk ids so a repeated
// upsert overwrites instead of duplicating.
func (q *qdrantIndex) Upsert(ctx context.Context, chunks []models.Chunk) error {
	const op = "qdrant.upsert"

	for start := 0; start < len(chunks); start += qdrantUpsertBatch {
		end := start + qdrantUpsertBatch
		if end > len(chunks) {
			end = len(chunks)
		}

		points := make([]*qdrant.PointStruct, 0, end-start)
		for _, ch := range chunks[start:end] {
			vector := ch.Vector()
			if len(vector) == 0 {
				return apperror.Validation(op, fmt.Sprintf("chunk %d has no embedding", ch.ChunkIndex))
			}
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewID(ch.ID.String()),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(chunkPayload(ch)),
			})
		}

		_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: q.collectionName,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		if err != nil {
			return classifyQdrantError(op, fmt.Errorf("failed to upsert points: %w", err))
		}
	}

	return nil
}

func chunkPayload(ch models.Chunk) map[string]any {
	return map[string]any{
		"document_id":         ch.DocumentID.String(),
		"chunk_index":         int64(ch.ChunkIndex),
		"section_type":        string(ch.SectionType),
		"section_chunk_index": int64(ch.SectionChunkIndex),
		"section_chunk_total": int64(ch.SectionChunkTotal),
		"is_full_section":     ch.IsFullSection,
		"content":             ch.Content,
		"token_count":         int64(ch.TokenCount),
	}
}

// QueryTopK implements matching.Searcher.
func (q *qdrantIndex) QueryTopK(ctx context.Context, vector []float32, k int, filter matching.Filter) ([]matching.Hit, error) {
	const op = "qdrant.query"

	var conditions []*qdrant.Condition
	if filter.DocumentID != uuid.Nil {
		conditions = append(conditions, qdrant.NewMatch("document_id", filter.DocumentID.String()))
	}
	if filter.SectionType != "" {
		conditions = append(conditions, qdrant.NewMatch("section_type", string(filter.SectionType)))
	}

	var qfilter *qdrant.Filter
	if len(conditions) > 0 {
		qfilter = &qdrant.Filter{Must: conditions}
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Filter:         qfilter,
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, classifyQdrantError(op, fmt.Errorf("failed to search: %w", err))
	}

	hits := make([]matching.Hit, 0, len(points))
	for _, point := range points {
		ch, err := chunkFromPoint(point.GetId(), point.GetPayload())
		if err != nil {
			q.logger.Warn("skipping malformed point", zap.Error(err))
			continue
		}
		hits = append(hits, matching.Hit{Chunk: ch, Similarity: float64(point.GetScore())})
	}

	return hits, nil
}

func chunkFromPoint(id *qdrant.PointId, payload map[string]*qdrant.Value) (models.Chunk, error) {
	chunkID, err := uuid.Parse(id.GetUuid())
	if err != nil {
		return models.Chunk{}, fmt.Errorf("point id %v is not a uuid: %w", id, err)
	}
	docID, err := uuid.Parse(payload["document_id"].GetStringValue())
	if err != nil {
		return models.Chunk{}, fmt.Errorf("point %s has no document_id: %w", chunkID, err)
	}

	return models.Chunk{
		ID:                chunkID,
		DocumentID:        docID,
		ChunkIndex:        int(payload["chunk_index"].GetIntegerValue()),
		SectionType:       models.SectionType(payload["section_type"].GetStringValue()),
		SectionChunkIndex: int(payload["section_chunk_index"].GetIntegerValue()),
		SectionChunkTotal: int(payload["section_chunk_total"].GetIntegerValue()),
		IsFullSection:     payload["is_full_section"].GetBoolValue(),
		Content:           payload["content"].GetStringValue(),
		TokenCount:        int(payload["token_count"].GetIntegerValue()),
	}, nil
}

// DeleteDocument implements VectorIndex.
func (q *qdrantIndex) DeleteDocument(ctx context.Context, documentID uuid.UUID) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("document_id", documentID.String()),
		},
	}

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName,
		Wait:           qdrant.PtrOf(true),
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: filter,
			},
		},
	})
	if err != nil {
		return classifyQdrantError("qdrant.delete", fmt.Errorf("failed to delete document: %w", err))
	}

	return nil
}

// classifyQdrantError marks connection-level gRPC failures as retryable.
func classifyQdrantError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperror.Internal(op, err)
	}

	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.ResourceExhausted:
		return apperror.Transient(op, err)
	case codes.InvalidArgument:
		return apperror.Wrap(apperror.KindInvalidInput, op, err)
	case codes.NotFound:
		return apperror.Wrap(apperror.KindNotFound, op, err)
	default:
		return apperror.External(op, err)
	}
}
