package dto

import (
	"time"

	"github.com/google/uuid"
)

type GeneratePlaybookRequest struct {
	Title        string      `json:"title" validate:"required,max=255"`
	DocumentIds  []uuid.UUID `json:"document_ids" validate:"required,min=2,max=20"`
	Instructions string      `json:"instructions"`
}

type GeneratePlaybookResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type RegeneratePlaybookRequest struct {
	Id           uuid.UUID
	DocumentIds  []uuid.UUID `json:"document_ids" validate:"required,min=2,max=20"`
	Instructions string      `json:"instructions"`
}

type UploadPlaybookRequest struct {
	Title        string      `json:"title" validate:"required,max=255"`
	Content      string      `json:"content" validate:"required"`
	DocumentIds  []uuid.UUID `json:"document_ids" validate:"required,min=2,max=20"`
	Instructions string      `json:"instructions"`
}

type ShowPlaybookResponse struct {
	Id           uuid.UUID   `json:"id"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	Status       string      `json:"status"`
	DocumentIds  []uuid.UUID `json:"document_ids"`
	Instructions string      `json:"instructions,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    *time.Time  `json:"updated_at"`
}

type GetAllPlaybooksResponse struct {
	Id            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Status        string     `json:"status"`
	DocumentCount int        `json:"document_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}
