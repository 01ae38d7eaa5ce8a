package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Document struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title        string         `gorm:"type:varchar(255);not null"`
	Content      string         `gorm:"type:text"`
	Summary      string         `gorm:"type:text"`
	DocumentType string         `gorm:"type:varchar(32);not null"`
	SourceType   string         `gorm:"type:varchar(32);not null;default:'interview'"`
	SessionId    *uuid.UUID     `gorm:"type:uuid;index"`
	IsShared     bool           `gorm:"default:false;index"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
