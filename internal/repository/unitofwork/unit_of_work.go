package unitofwork

import (
	"context"

	"ai-playbook-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	InterviewSessionRepository() contract.InterviewSessionRepository
	InterviewTurnRepository() contract.InterviewTurnRepository
	DocumentRepository() contract.DocumentRepository
	DocumentEmbeddingRepository() contract.DocumentEmbeddingRepository
	PlaybookRepository() contract.PlaybookRepository
}
