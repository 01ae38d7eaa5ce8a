package entity

import (
	"time"

	"github.com/google/uuid"
)

type Playbook struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Title        string
	Content      string
	Status       string // always "ready"; records are written at completion only
	DocumentIds  []uuid.UUID
	Instructions string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}
