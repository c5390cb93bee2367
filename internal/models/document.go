package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Document struct {
	ID                  uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Role                Role              `gorm:"type:varchar(32);not null;index" json:"role"`
	Filename            string            `gorm:"type:text" json:"filename"`
	OriginalFilename    string            `gorm:"type:text" json:"original_filename"`
	FilePath            string            `gorm:"type:text" json:"-"`
	RawText             string            `gorm:"type:text" json:"-"`
	CleanedText         string            `gorm:"type:text" json:"-"`
	Language            string            `gorm:"type:varchar(16)" json:"language"`
	WordCount           int               `json:"word_count"`
	CharCount           int               `json:"char_count"`
	PageCount           int               `json:"page_count"`
	Author              string            `gorm:"type:text" json:"author,omitempty"`
	Title               string            `gorm:"type:text" json:"title,omitempty"`
	ParserUsed          string            `gorm:"type:varchar(32)" json:"parser_used"`
	ContentHash         string            `gorm:"type:varchar(64);index" json:"content_hash"`
	Metadata            datatypes.JSONMap `json:"metadata,omitempty"`
	EmbeddingStatus     EmbeddingStatus   `gorm:"type:varchar(16);not null;default:'pending';index" json:"embedding_status"`
	ChunkCount          int               `gorm:"not null;default:0" json:"chunk_count"`
	TotalTokens         int               `gorm:"not null;default:0" json:"total_tokens"`
	SectionDistribution datatypes.JSONMap `json:"section_distribution,omitempty"`
	ErrorMessage        *string           `gorm:"type:text" json:"error_message,omitempty"`
	IngestRequestedAt   *time.Time        `json:"ingest_requested_at,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`

	Chunks []Chunk `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Document) TableName() string {
	return "documents"
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.EmbeddingStatus == "" {
		d.EmbeddingStatus = StatusPending
	}
	return nil
}

// EmbeddingDimensions is the width of the chunks.embedding column. The column
// type below is fixed at migration time, so the embedding model and the Qdrant
// collection must produce vectors of this size.
const EmbeddingDimensions = 768

// Chunk is a persisted span of a document's cleaned text together with its vector.
type Chunk struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_chunks_document_index,priority:1" json:"document_id"`
	ChunkIndex        int             `gorm:"not null;uniqueIndex:idx_chunks_document_index,priority:2" json:"chunk_index"`
	SectionType       SectionType     `gorm:"type:varchar(32);not null;index" json:"section_type"`
	SectionChunkIndex int             `json:"section_chunk_index"`
	SectionChunkTotal int             `json:"section_chunk_total"`
	IsFullSection     bool            `json:"is_full_section"`
	StartLine         int             `json:"start_line"`
	EndLine           int             `json:"end_line"`
	Content           string          `gorm:"type:text;not null" json:"content"`
	CharCount         int             `json:"char_count"`
	TokenCount        int             `json:"token_count"`
	Embedding         pgvector.Vector `gorm:"type:vector(768)" json:"-"` // width is EmbeddingDimensions
	EmbeddingModel    string          `gorm:"type:varchar(64)" json:"embedding_model"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (Chunk) TableName() string {
	return "document_chunks"
}

func (c *Chunk) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Vector returns the chunk embedding as a plain slice.
func (c Chunk) Vector() []float32 {
	return c.Embedding.Slice()
}

// DocumentSummary counts documents by role and embedding status.
type DocumentSummary struct {
	TotalDocuments int            `json:"total_documents"`
	ByRole         map[string]int `json:"by_role"`
	ByStatus       map[string]int `json:"by_status"`
	TotalChunks    int64          `json:"total_chunks"`
}
