package implementation

import (
	"context"
	"errors"

	"ai-playbook-be/internal/entity"
	"ai-playbook-be/internal/mapper"
	"ai-playbook-be/internal/model"
	"ai-playbook-be/internal/repository/contract"
	"ai-playbook-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlaybookRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PlaybookMapper
}

func NewPlaybookRepository(db *gorm.DB) contract.PlaybookRepository {
	return &PlaybookRepositoryImpl{
		db:     db,
		mapper: mapper.NewPlaybookMapper(),
	}
}

func (r *PlaybookRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PlaybookRepositoryImpl) Create(ctx context.Context, playbook *entity.Playbook) error {
	m := r.mapper.ToModel(playbook)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*playbook = *r.mapper.ToEntity(m)
	return nil
}

func (r *PlaybookRepositoryImpl) Update(ctx context.Context, playbook *entity.Playbook) error {
	m := r.mapper.ToModel(playbook)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*playbook = *r.mapper.ToEntity(m)
	return nil
}

func (r *PlaybookRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Playbook{}, id).Error
}

func (r *PlaybookRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Playbook, error) {
	var m model.Playbook
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *PlaybookRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Playbook, error) {
	var models []*model.Playbook
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *PlaybookRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Playbook{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
