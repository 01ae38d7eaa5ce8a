package entity

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Title        string
	Content      string // structured block JSON or plain markdown
	Summary      string
	DocumentType string // "case-study" | "best-practices"
	SourceType   string // "interview" | "upload"
	SessionId    *uuid.UUID
	IsShared     bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}

type DocumentEmbedding struct {
	Id             uuid.UUID
	Chunk          string
	EmbeddingValue []float32
	DocumentId     uuid.UUID
	ChunkIndex     int
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
