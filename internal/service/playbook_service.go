package service

import (
	"context"
	"fmt"
	"time"

	"ai-playbook-be/internal/constant"
	"ai-playbook-be/internal/dto"
	"ai-playbook-be/internal/entity"
	"ai-playbook-be/internal/pkg/logger"
	"ai-playbook-be/internal/repository/memory"
	"ai-playbook-be/internal/repository/specification"
	"ai-playbook-be/internal/repository/unitofwork"
	"ai-playbook-be/pkg/blocks"
	"ai-playbook-be/pkg/events"
	"ai-playbook-be/pkg/fault"
	"ai-playbook-be/pkg/llm"
	pkgNats "ai-playbook-be/pkg/nats"
	"ai-playbook-be/pkg/synthesis"

	"github.com/google/uuid"
)

type IPlaybookService interface {
	Generate(ctx context.Context, userId uuid.UUID, req *dto.GeneratePlaybookRequest, onStatus synthesis.StatusFunc) (*dto.GeneratePlaybookResponse, error)
	Regenerate(ctx context.Context, userId uuid.UUID, req *dto.RegeneratePlaybookRequest, onStatus synthesis.StatusFunc) (*dto.GeneratePlaybookResponse, error)
	Upload(ctx context.Context, userId uuid.UUID, req *dto.UploadPlaybookRequest, onStatus synthesis.StatusFunc) (*dto.GeneratePlaybookResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowPlaybookResponse, error)
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllPlaybooksResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type playbookService struct {
	uowFactory     unitofwork.RepositoryFactory
	aiProvider     llm.Provider
	inFlight       *memory.SynthesisGuard
	eventPublisher *pkgNats.Publisher
	logger         logger.ILogger
}

func NewPlaybookService(
	uowFactory unitofwork.RepositoryFactory,
	aiProvider llm.Provider,
	inFlight *memory.SynthesisGuard,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
) IPlaybookService {
	return &playbookService{
		uowFactory:     uowFactory,
		aiProvider:     aiProvider,
		inFlight:       inFlight,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

// Generate runs the synthesis job and persists the playbook in a single
// write once the job completes. A failed or aborted job writes nothing, so
// the store never holds a half-generated playbook.
func (s *playbookService) Generate(ctx context.Context, userId uuid.UUID, req *dto.GeneratePlaybookRequest, onStatus synthesis.StatusFunc) (*dto.GeneratePlaybookResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sources, err := s.collectSources(ctx, uow, userId, req.DocumentIds)
	if err != nil {
		return nil, err
	}

	request := llm.SynthesisRequest{
		Kind:         constant.SynthesisKindGenerate,
		Title:        req.Title,
		Sources:      sources,
		NewSourceIds: synthesis.Delta(nil, uuidsToStrings(req.DocumentIds)),
		Instructions: req.Instructions,
	}

	result, err := s.runJob(ctx, userId, req.Title, request, onStatus, nil)
	if err != nil {
		return nil, err
	}

	playbook := entity.Playbook{
		Id:           uuid.New(),
		UserId:       userId,
		Title:        resultTitle(result, req.Title),
		Content:      result.Content,
		Status:       constant.PlaybookStatusReady,
		DocumentIds:  req.DocumentIds,
		Instructions: req.Instructions,
		CreatedAt:    time.Now(),
	}
	if err := uow.PlaybookRepository().Create(ctx, &playbook); err != nil {
		return nil, err
	}

	s.publishReady(ctx, &playbook)
	return &dto.GeneratePlaybookResponse{Id: playbook.Id, Status: playbook.Status}, nil
}

// Regenerate reruns synthesis over a possibly changed document set. Only the
// documents added since the last run are flagged as new so the model can
// merge them into the existing content instead of starting over. The stored
// record is untouched until the job succeeds, at which point content, source
// set and instructions land in one update.
func (s *playbookService) Regenerate(ctx context.Context, userId uuid.UUID, req *dto.RegeneratePlaybookRequest, onStatus synthesis.StatusFunc) (*dto.GeneratePlaybookResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	playbook, err := s.findOwned(ctx, uow, userId, req.Id)
	if err != nil {
		return nil, err
	}
	if !s.inFlight.Acquire(playbook.Id) {
		return nil, fault.Validation("playbook is already being generated")
	}
	defer s.inFlight.Release(playbook.Id)

	sources, err := s.collectSources(ctx, uow, userId, req.DocumentIds)
	if err != nil {
		return nil, err
	}

	request := llm.SynthesisRequest{
		Kind:            constant.SynthesisKindRegenerate,
		Title:           playbook.Title,
		Sources:         sources,
		NewSourceIds:    synthesis.Delta(uuidsToStrings(playbook.DocumentIds), uuidsToStrings(req.DocumentIds)),
		ExistingContent: playbook.Content,
		Instructions:    req.Instructions,
	}

	result, err := s.runJob(ctx, userId, playbook.Title, request, onStatus, map[string]interface{}{"playbook_id": playbook.Id})
	if err != nil {
		return nil, err
	}

	playbook.Title = resultTitle(result, playbook.Title)
	playbook.Content = result.Content
	playbook.DocumentIds = req.DocumentIds
	playbook.Instructions = req.Instructions
	playbook.Status = constant.PlaybookStatusReady
	if err := uow.PlaybookRepository().Update(ctx, playbook); err != nil {
		return nil, err
	}

	s.publishReady(ctx, playbook)
	return &dto.GeneratePlaybookResponse{Id: playbook.Id, Status: playbook.Status}, nil
}

// Upload imports a playbook written elsewhere and refines it against the
// selected sources. The imported content is treated as already covering
// them, so no source is flagged as new.
func (s *playbookService) Upload(ctx context.Context, userId uuid.UUID, req *dto.UploadPlaybookRequest, onStatus synthesis.StatusFunc) (*dto.GeneratePlaybookResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sources, err := s.collectSources(ctx, uow, userId, req.DocumentIds)
	if err != nil {
		return nil, err
	}

	request := llm.SynthesisRequest{
		Kind:            constant.SynthesisKindRegenerate,
		Title:           req.Title,
		Sources:         sources,
		ExistingContent: req.Content,
		Instructions:    req.Instructions,
	}

	result, err := s.runJob(ctx, userId, req.Title, request, onStatus, nil)
	if err != nil {
		return nil, err
	}

	playbook := entity.Playbook{
		Id:           uuid.New(),
		UserId:       userId,
		Title:        resultTitle(result, req.Title),
		Content:      result.Content,
		Status:       constant.PlaybookStatusReady,
		DocumentIds:  req.DocumentIds,
		Instructions: req.Instructions,
		CreatedAt:    time.Now(),
	}
	if err := uow.PlaybookRepository().Create(ctx, &playbook); err != nil {
		return nil, err
	}

	s.publishReady(ctx, &playbook)
	return &dto.GeneratePlaybookResponse{Id: playbook.Id, Status: playbook.Status}, nil
}

func (s *playbookService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowPlaybookResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	playbook, err := s.findOwned(ctx, uow, userId, id)
	if err != nil {
		return nil, err
	}

	return &dto.ShowPlaybookResponse{
		Id:           playbook.Id,
		Title:        playbook.Title,
		Content:      playbook.Content,
		Status:       playbook.Status,
		DocumentIds:  playbook.DocumentIds,
		Instructions: playbook.Instructions,
		CreatedAt:    playbook.CreatedAt,
		UpdatedAt:    playbook.UpdatedAt,
	}, nil
}

func (s *playbookService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllPlaybooksResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	playbooks, err := uow.PlaybookRepository().FindAll(ctx,
		specification.OwnedByUser{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.GetAllPlaybooksResponse, len(playbooks))
	for i, playbook := range playbooks {
		res[i] = &dto.GetAllPlaybooksResponse{
			Id:            playbook.Id,
			Title:         playbook.Title,
			Status:        playbook.Status,
			DocumentCount: len(playbook.DocumentIds),
			CreatedAt:     playbook.CreatedAt,
			UpdatedAt:     playbook.UpdatedAt,
		}
	}
	return res, nil
}

func (s *playbookService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	playbook, err := s.findOwned(ctx, uow, userId, id)
	if err != nil {
		return err
	}
	return uow.PlaybookRepository().Delete(ctx, playbook.Id)
}

// runJob executes the synthesis job without touching the store. Failures
// surface to the caller and fan out as a notification; persistence is left
// entirely to the caller so the record is only ever written on success.
func (s *playbookService) runJob(ctx context.Context, userId uuid.UUID, title string, request llm.SynthesisRequest, onStatus synthesis.StatusFunc, details map[string]interface{}) (*synthesis.Result, error) {
	job := synthesis.Job{Provider: s.aiProvider, Request: request}
	result, err := job.Run(ctx, onStatus)
	if err != nil {
		if details == nil {
			details = map[string]interface{}{}
		}
		s.publishEvent(ctx, events.NewNotification(events.TypePlaybookFailed, userId.String(),
			fmt.Sprintf("Playbook %q generation failed", title), details))
		return nil, err
	}
	return result, nil
}

func (s *playbookService) publishReady(ctx context.Context, playbook *entity.Playbook) {
	s.publishEvent(ctx, events.NewNotification(events.TypePlaybookReady, playbook.UserId.String(),
		fmt.Sprintf("Playbook %q is ready", playbook.Title),
		map[string]interface{}{"playbook_id": playbook.Id}))
}

// collectSources resolves every requested document, enforcing visibility.
// A single missing or inaccessible document fails the whole request.
func (s *playbookService) collectSources(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, documentIds []uuid.UUID) ([]llm.SynthesisSource, error) {
	// A synthesis over a single source is not meaningful
	if len(documentIds) < 2 {
		return nil, fault.Validation("at least two source documents are required")
	}

	seen := map[uuid.UUID]bool{}
	sources := make([]llm.SynthesisSource, 0, len(documentIds))
	for _, id := range documentIds {
		if seen[id] {
			return nil, fault.Validation("duplicate document id %s", id)
		}
		seen[id] = true

		document, err := uow.DocumentRepository().FindOne(ctx,
			specification.ByID{ID: id},
			specification.VisibleToUser{UserID: userId},
		)
		if err != nil {
			return nil, err
		}
		if document == nil {
			return nil, fault.Validation("document %s not found", id)
		}

		sources = append(sources, llm.SynthesisSource{
			Id:      document.Id.String(),
			Title:   document.Title,
			Content: blocks.Flatten(document.Content),
		})
	}
	return sources, nil
}

func (s *playbookService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, id uuid.UUID) (*entity.Playbook, error) {
	playbook, err := uow.PlaybookRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if playbook == nil {
		return nil, fault.Validation("playbook not found")
	}
	return playbook, nil
}

func (s *playbookService) publishEvent(ctx context.Context, evt events.BaseEvent) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("PlaybookService", "failed to publish event", map[string]interface{}{
			"event_type": evt.EventType(),
			"error":      err.Error(),
		})
	}
}

func resultTitle(result *synthesis.Result, fallback string) string {
	if result.Title != "" {
		return result.Title
	}
	return fallback
}

func uuidsToStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
