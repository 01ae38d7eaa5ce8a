package contract

import (
	"context"

	"ai-playbook-be/internal/entity"
	"ai-playbook-be/internal/repository/specification"

	"github.com/google/uuid"
)

type InterviewTurnRepository interface {
	Create(ctx context.Context, turn *entity.InterviewTurn) error
	CreateBulk(ctx context.Context, turns []*entity.InterviewTurn) error
	DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.InterviewTurn, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
