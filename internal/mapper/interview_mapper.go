package mapper

import (
	"time"

	"ai-playbook-be/internal/entity"
	"ai-playbook-be/internal/model"

	"gorm.io/gorm"
)

type InterviewMapper struct{}

func NewInterviewMapper() *InterviewMapper {
	return &InterviewMapper{}
}

// Session Mappers

func (m *InterviewMapper) SessionToEntity(s *model.InterviewSession) *entity.InterviewSession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.InterviewSession{
		Id:           s.Id,
		UserId:       s.UserId,
		DocumentType: s.DocumentType,
		Title:        s.Title,
		FunctionArea: s.FunctionArea,
		Description:  s.Description,
		Status:       s.Status,
		DocumentId:   s.DocumentId,
		CompletedAt:  s.CompletedAt,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
		IsDeleted:    s.DeletedAt.Valid,
	}
}

func (m *InterviewMapper) SessionToModel(s *entity.InterviewSession) *model.InterviewSession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.InterviewSession{
		Id:           s.Id,
		UserId:       s.UserId,
		DocumentType: s.DocumentType,
		Title:        s.Title,
		FunctionArea: s.FunctionArea,
		Description:  s.Description,
		Status:       s.Status,
		DocumentId:   s.DocumentId,
		CompletedAt:  s.CompletedAt,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}

func (m *InterviewMapper) SessionsToEntities(sessions []*model.InterviewSession) []*entity.InterviewSession {
	entities := make([]*entity.InterviewSession, len(sessions))
	for i, s := range sessions {
		entities[i] = m.SessionToEntity(s)
	}
	return entities
}

// Turn Mappers

func (m *InterviewMapper) TurnToEntity(t *model.InterviewTurn) *entity.InterviewTurn {
	if t == nil {
		return nil
	}

	var deletedAt *time.Time
	if t.DeletedAt.Valid {
		dt := t.DeletedAt.Time
		deletedAt = &dt
	}

	var updatedAt *time.Time
	if !t.UpdatedAt.IsZero() {
		ut := t.UpdatedAt
		updatedAt = &ut
	}

	return &entity.InterviewTurn{
		Id:        t.Id,
		SessionId: t.SessionId,
		Role:      t.Role,
		Content:   t.Content,
		Sequence:  t.Sequence,
		CreatedAt: t.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: t.DeletedAt.Valid,
	}
}

func (m *InterviewMapper) TurnToModel(t *entity.InterviewTurn) *model.InterviewTurn {
	if t == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if t.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *t.DeletedAt, Valid: true}
	} else if t.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if t.UpdatedAt != nil {
		updatedAt = *t.UpdatedAt
	}

	return &model.InterviewTurn{
		Id:        t.Id,
		SessionId: t.SessionId,
		Role:      t.Role,
		Content:   t.Content,
		Sequence:  t.Sequence,
		CreatedAt: t.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
}

func (m *InterviewMapper) TurnsToEntities(turns []*model.InterviewTurn) []*entity.InterviewTurn {
	entities := make([]*entity.InterviewTurn, len(turns))
	for i, t := range turns {
		entities[i] = m.TurnToEntity(t)
	}
	return entities
}

func (m *InterviewMapper) TurnsToModels(turns []*entity.InterviewTurn) []*model.InterviewTurn {
	models := make([]*model.InterviewTurn, len(turns))
	for i, t := range turns {
		models[i] = m.TurnToModel(t)
	}
	return models
}
