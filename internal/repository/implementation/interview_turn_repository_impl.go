package implementation

import (
	"context"

	"ai-playbook-be/internal/entity"
	"ai-playbook-be/internal/mapper"
	"ai-playbook-be/internal/model"
	"ai-playbook-be/internal/repository/contract"
	"ai-playbook-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InterviewTurnRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.InterviewMapper
}

func NewInterviewTurnRepository(db *gorm.DB) contract.InterviewTurnRepository {
	return &InterviewTurnRepositoryImpl{
		db:     db,
		mapper: mapper.NewInterviewMapper(),
	}
}

func (r *InterviewTurnRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *InterviewTurnRepositoryImpl) Create(ctx context.Context, turn *entity.InterviewTurn) error {
	m := r.mapper.TurnToModel(turn)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*turn = *r.mapper.TurnToEntity(m)
	return nil
}

func (r *InterviewTurnRepositoryImpl) CreateBulk(ctx context.Context, turns []*entity.InterviewTurn) error {
	if len(turns) == 0 {
		return nil
	}
	models := r.mapper.TurnsToModels(turns)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*turns[i] = *r.mapper.TurnToEntity(m)
	}
	return nil
}

func (r *InterviewTurnRepositoryImpl) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionId).Delete(&model.InterviewTurn{}).Error
}

func (r *InterviewTurnRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.InterviewTurn, error) {
	var models []*model.InterviewTurn
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.TurnsToEntities(models), nil
}

func (r *InterviewTurnRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.InterviewTurn{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
