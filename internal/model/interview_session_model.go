package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InterviewSession struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID      `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	DocumentType string         `gorm:"type:varchar(32);not null"`
	Title        string         `gorm:"type:varchar(255);not null"`
	FunctionArea string         `gorm:"type:varchar(100)"`
	Description  string         `gorm:"type:text;not null"`
	Status       string         `gorm:"type:varchar(32);not null;default:'collecting-context'"`
	DocumentId   *uuid.UUID     `gorm:"type:uuid;index"`
	CompletedAt  *time.Time
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (InterviewSession) TableName() string {
	return "interview_sessions"
}
