package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VisibleToUser matches documents the user owns plus shared ones.
type VisibleToUser struct {
	UserID uuid.UUID
}

func (s VisibleToUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ? OR is_shared = true", s.UserID)
}

// DocumentSearchQuery filters documents by title or summary (case-insensitive)
type DocumentSearchQuery struct {
	Query string
}

func (s DocumentSearchQuery) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + s.Query + "%"
	return db.Where("title ILIKE ? OR summary ILIKE ?", pattern, pattern)
}
