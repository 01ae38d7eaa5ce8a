package dto

import (
	"time"

	"github.com/google/uuid"
)

type StartSessionRequest struct {
	DocumentType string `json:"document_type" validate:"required,oneof=case-study best-practices"`
	Title        string `json:"title" validate:"required,max=255"`
	FunctionArea string `json:"function_area" validate:"max=100"`
	Description  string `json:"description" validate:"required"`
}

type StartSessionResponse struct {
	Id            uuid.UUID `json:"id"`
	Status        string    `json:"status"`
	FirstQuestion string    `json:"first_question"`
}

type SendTurnRequest struct {
	SessionId uuid.UUID
	Message   string `json:"message" validate:"required"`
}

type SendTurnResponse struct {
	SessionId uuid.UUID `json:"session_id"`
	Sent      *TurnDTO  `json:"sent"`
	Reply     *TurnDTO  `json:"reply"`
}

type TurnDTO struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Sequence  int       `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
}

type FinalizeSessionResponse struct {
	SessionId   uuid.UUID  `json:"session_id"`
	DocumentId  uuid.UUID  `json:"document_id"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at"`
}

type GetAllSessionsResponse struct {
	Id           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	DocumentType string     `json:"document_type"`
	Status       string     `json:"status"`
	DocumentId   *uuid.UUID `json:"document_id,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

type GetSessionHistoryResponse struct {
	Id           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	DocumentType string     `json:"document_type"`
	FunctionArea string     `json:"function_area"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	DocumentId   *uuid.UUID `json:"document_id,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Turns        []TurnDTO  `json:"turns"`
	CreatedAt    time.Time  `json:"created_at"`
}
