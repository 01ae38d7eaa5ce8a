package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Playbook struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title        string         `gorm:"type:varchar(255);not null"`
	Content      string         `gorm:"type:text"`
	Status       string         `gorm:"type:varchar(32);not null;default:'ready'"`
	DocumentIds  datatypes.JSON `gorm:"type:jsonb;default:'[]'"`
	Instructions string         `gorm:"type:text"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Playbook) TableName() string {
	return "playbooks"
}
