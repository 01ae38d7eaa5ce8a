package entity

import (
	"time"

	"github.com/google/uuid"
)

type InterviewSession struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	DocumentType string
	Title        string
	FunctionArea string
	Description  string
	Status       string
	DocumentId   *uuid.UUID
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}

type InterviewTurn struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	Role      string
	Content   string
	Sequence  int
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
