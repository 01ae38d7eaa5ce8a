package mapper

import (
	"encoding/json"
	"time"

	"ai-playbook-be/internal/entity"
	"ai-playbook-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PlaybookMapper struct{}

func NewPlaybookMapper() *PlaybookMapper {
	return &PlaybookMapper{}
}

func (m *PlaybookMapper) ToEntity(p *model.Playbook) *entity.Playbook {
	if p == nil {
		return nil
	}

	var deletedAt *time.Time
	if p.DeletedAt.Valid {
		t := p.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	var documentIds []uuid.UUID
	if len(p.DocumentIds) > 0 {
		// Corrupt jsonb yields an empty set rather than a failed read
		_ = json.Unmarshal(p.DocumentIds, &documentIds)
	}

	return &entity.Playbook{
		Id:           p.Id,
		UserId:       p.UserId,
		Title:        p.Title,
		Content:      p.Content,
		Status:       p.Status,
		DocumentIds:  documentIds,
		Instructions: p.Instructions,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
		IsDeleted:    p.DeletedAt.Valid,
	}
}

func (m *PlaybookMapper) ToModel(p *entity.Playbook) *model.Playbook {
	if p == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if p.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *p.DeletedAt, Valid: true}
	} else if p.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	ids := p.DocumentIds
	if ids == nil {
		ids = []uuid.UUID{}
	}
	raw, _ := json.Marshal(ids)

	return &model.Playbook{
		Id:           p.Id,
		UserId:       p.UserId,
		Title:        p.Title,
		Content:      p.Content,
		Status:       p.Status,
		DocumentIds:  datatypes.JSON(raw),
		Instructions: p.Instructions,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}

func (m *PlaybookMapper) ToEntities(playbooks []*model.Playbook) []*entity.Playbook {
	entities := make([]*entity.Playbook, len(playbooks))
	for i, p := range playbooks {
		entities[i] = m.ToEntity(p)
	}
	return entities
}
