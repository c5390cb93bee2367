package models

import "github.com/google/uuid"

type UploadResponse struct {
	ID              string          `json:"id"`
	Role            Role            `json:"role"`
	Filename        string          `json:"filename"`
	OriginalName    string          `json:"original_name"`
	Language        string          `json:"language"`
	PageCount       int             `json:"page_count"`
	WordCount       int             `json:"word_count"`
	EmbeddingStatus EmbeddingStatus `json:"embedding_status"`
	Duplicate       bool            `json:"duplicate"`
}

type TextDocumentRequest struct {
	Role    string `json:"role"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type IngestRequest struct {
	DocumentID   string `json:"document_id"`
	SkipIfExists *bool  `json:"skip_if_exists,omitempty"`
	Async        bool   `json:"async"`
	ChunkSize    int    `json:"chunk_size,omitempty"`
	ChunkOverlap int    `json:"chunk_overlap,omitempty"`
}

// Skip defaults to true when the client leaves skip_if_exists out.
func (r IngestRequest) Skip() bool {
	return r.SkipIfExists == nil || *r.SkipIfExists
}

type BatchIngestRequest struct {
	DocumentIDs  []string `json:"document_ids"`
	SkipIfExists *bool    `json:"skip_if_exists,omitempty"`
}

func (r BatchIngestRequest) Skip() bool {
	return r.SkipIfExists == nil || *r.SkipIfExists
}

type IngestionStatus string

const (
	IngestionCompleted IngestionStatus = "completed"
	IngestionSkipped   IngestionStatus = "skipped"
	IngestionQueued    IngestionStatus = "queued"
	IngestionFailed    IngestionStatus = "failed"
)

type IngestionResult struct {
	DocumentID       uuid.UUID       `json:"document_id"`
	Status           IngestionStatus `json:"status"`
	ChunksCreated    int             `json:"chunks_created"`
	TotalTokens      int             `json:"total_tokens"`
	EstimatedCostUSD float64         `json:"estimated_cost_usd"`
	Summary          map[string]any  `json:"summary,omitempty"`
	Error            string          `json:"error,omitempty"`
}

type BatchIngestResponse struct {
	Results   []IngestionResult `json:"results"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

type MatchRequest struct {
	ResumeID string `json:"resume_id"`
	JDID     string `json:"jd_id"`
}

type RoadmapRequest struct {
	ResumeID    string `json:"resume_id"`
	JDID        string `json:"jd_id"`
	TargetWeeks int    `json:"target_weeks"`
}

type DocumentStatusResponse struct {
	ID              string          `json:"id"`
	Role            Role            `json:"role"`
	Filename        string          `json:"filename"`
	Language        string          `json:"language"`
	EmbeddingStatus EmbeddingStatus `json:"embedding_status"`
	ChunkCount      int             `json:"chunk_count"`
	TotalTokens     int             `json:"total_tokens"`
	ErrorMessage    *string         `json:"error_message,omitempty"`
	Sections        map[string]any  `json:"section_distribution,omitempty"`
}

func NewDocumentStatusResponse(d *Document) DocumentStatusResponse {
	return DocumentStatusResponse{
		ID:              d.ID.String(),
		Role:            d.Role,
		Filename:        d.OriginalFilename,
		Language:        d.Language,
		EmbeddingStatus: d.EmbeddingStatus,
		ChunkCount:      d.ChunkCount,
		TotalTokens:     d.TotalTokens,
		ErrorMessage:    d.ErrorMessage,
		Sections:        d.SectionDistribution,
	}
}

type DocumentListResponse struct {
	Documents []DocumentStatusResponse `json:"documents"`
	Total     int                      `json:"total"`
	Summary   *DocumentSummary         `json:"summary,omitempty"`
}

type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Message string    `json:"message,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}
