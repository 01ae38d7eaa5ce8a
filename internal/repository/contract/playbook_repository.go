package contract

import (
	"context"

	"ai-playbook-be/internal/entity"
	"ai-playbook-be/internal/repository/specification"

	"github.com/google/uuid"
)

type PlaybookRepository interface {
	Create(ctx context.Context, playbook *entity.Playbook) error
	Update(ctx context.Context, playbook *entity.Playbook) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Playbook, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Playbook, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
