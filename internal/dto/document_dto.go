package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateDocumentRequest struct {
	Title        string `json:"title" validate:"required,max=255"`
	Content      string `json:"content"`
	DocumentType string `json:"document_type" validate:"required,oneof=case-study best-practices"`
}

type CreateDocumentResponse struct {
	Id uuid.UUID `json:"id"`
}

type ShowDocumentResponse struct {
	Id           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Summary      string     `json:"summary"`
	DocumentType string     `json:"document_type"`
	SourceType   string     `json:"source_type"`
	SessionId    *uuid.UUID `json:"session_id,omitempty"`
	IsShared     bool       `json:"is_shared"`
	IsOwner      bool       `json:"is_owner"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

type UpdateDocumentRequest struct {
	Id      uuid.UUID
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content"`
}

type UpdateDocumentResponse struct {
	Id uuid.UUID `json:"id"`
}

type ShareDocumentRequest struct {
	Id       uuid.UUID
	IsShared bool `json:"is_shared"`
}

type SuggestEditRequest struct {
	DocumentId uuid.UUID
	BlockId    string `json:"block_id" validate:"required"`
	Operation  string `json:"operation" validate:"required,oneof=improve fix-grammar formalize simplify expand"`
}

type SuggestEditResponse struct {
	SuggestionId uuid.UUID `json:"suggestion_id"`
	BlockId      string    `json:"block_id"`
	Operation    string    `json:"operation"`
	OriginalText string    `json:"original_text"`
	ProposedText string    `json:"proposed_text"`
}

type ResolveSuggestionRequest struct {
	DocumentId   uuid.UUID
	SuggestionId uuid.UUID `json:"suggestion_id" validate:"required"`
}

type ResolveSuggestionResponse struct {
	DocumentId uuid.UUID `json:"document_id"`
	Applied    bool      `json:"applied"`
}

type SemanticSearchResponse struct {
	Id             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Summary        string     `json:"summary"`
	DocumentType   string     `json:"document_type"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
	SearchType     string     `json:"search_type,omitempty"`     // "literal" | "semantic"
	RelevanceScore *float64   `json:"relevance_score,omitempty"` // 0.0-1.0, only for semantic search
}
