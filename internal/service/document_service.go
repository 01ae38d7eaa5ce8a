package service

import (
	"context"
	"encoding/json"
	"errors"
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
	"ai-playbook-be/pkg/embedding"
	"ai-playbook-be/pkg/events"
	"ai-playbook-be/pkg/fault"
	"ai-playbook-be/pkg/llm"
	pkgNats "ai-playbook-be/pkg/nats"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowDocumentResponse, error)
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.ShowDocumentResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateDocumentRequest) (*dto.UpdateDocumentResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
	Share(ctx context.Context, userId uuid.UUID, req *dto.ShareDocumentRequest) error
	SuggestEdit(ctx context.Context, userId uuid.UUID, req *dto.SuggestEditRequest) (*dto.SuggestEditResponse, error)
	AcceptSuggestion(ctx context.Context, userId uuid.UUID, req *dto.ResolveSuggestionRequest) (*dto.ResolveSuggestionResponse, error)
	RejectSuggestion(ctx context.Context, userId uuid.UUID, req *dto.ResolveSuggestionRequest) (*dto.ResolveSuggestionResponse, error)
	SemanticSearch(ctx context.Context, userId uuid.UUID, search string) ([]*dto.SemanticSearchResponse, error)
}

type documentService struct {
	uowFactory        unitofwork.RepositoryFactory
	suggestions       *memory.SuggestionRepository
	aiProvider        llm.Provider
	embeddingProvider embedding.Provider
	publisherService  IPublisherService
	eventPublisher    *pkgNats.Publisher
	logger            logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	suggestions *memory.SuggestionRepository,
	aiProvider llm.Provider,
	embeddingProvider embedding.Provider,
	publisherService IPublisherService,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:        uowFactory,
		suggestions:       suggestions,
		aiProvider:        aiProvider,
		embeddingProvider: embeddingProvider,
		publisherService:  publisherService,
		eventPublisher:    eventPublisher,
		logger:            log,
	}
}

func (s *documentService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error) {
	content := req.Content
	if content != "" && !blocks.IsStructured(content) {
		structured, err := blocks.FromPlainText(content).Serialize()
		if err != nil {
			return nil, err
		}
		content = structured
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	document := entity.Document{
		Id:           uuid.New(),
		UserId:       userId,
		Title:        req.Title,
		Content:      content,
		DocumentType: req.DocumentType,
		SourceType:   constant.SourceTypeUpload,
		CreatedAt:    time.Now(),
	}
	if err := uow.DocumentRepository().Create(ctx, &document); err != nil {
		return nil, err
	}

	s.publishEmbed(ctx, document.Id)

	return &dto.CreateDocumentResponse{Id: document.Id}, nil
}

func (s *documentService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.VisibleToUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, fault.Validation("document not found")
	}

	return s.toShowResponse(document, userId), nil
}

func (s *documentService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.VisibleToUser{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ShowDocumentResponse, len(documents))
	for i, document := range documents {
		res[i] = s.toShowResponse(document, userId)
	}
	return res, nil
}

func (s *documentService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateDocumentRequest) (*dto.UpdateDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := s.findOwned(ctx, uow, userId, req.Id)
	if err != nil {
		return nil, err
	}

	content := req.Content
	if content != "" && !blocks.IsStructured(content) {
		structured, serr := blocks.FromPlainText(content).Serialize()
		if serr != nil {
			return nil, serr
		}
		content = structured
	}

	document.Title = req.Title
	document.Content = content
	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		return nil, err
	}

	// Content changed under any pending suggestion; drop it
	s.suggestions.Delete(userId, document.Id)
	s.publishEmbed(ctx, document.Id)

	return &dto.UpdateDocumentResponse{Id: document.Id}, nil
}

func (s *documentService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := s.findOwned(ctx, uow, userId, id)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentEmbeddingRepository().DeleteByDocumentId(ctx, document.Id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, document.Id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.suggestions.Delete(userId, id)
	return nil
}

func (s *documentService) Share(ctx context.Context, userId uuid.UUID, req *dto.ShareDocumentRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := s.findOwned(ctx, uow, userId, req.Id)
	if err != nil {
		return err
	}

	document.IsShared = req.IsShared
	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		return err
	}

	if req.IsShared {
		s.publishEvent(ctx, events.NewNotification(events.TypeDocumentShared, userId.String(),
			fmt.Sprintf("Document %q is now shared with your organization", document.Title),
			map[string]interface{}{"document_id": document.Id}))
	}
	return nil
}

// SuggestEdit asks the AI to rewrite one block. The proposal is held in
// memory until the user accepts or rejects it; requesting another suggestion
// replaces the pending one.
func (s *documentService) SuggestEdit(ctx context.Context, userId uuid.UUID, req *dto.SuggestEditRequest) (*dto.SuggestEditResponse, error) {
	if !constant.IsValidEditOperation(req.Operation) {
		return nil, fault.Validation("unknown edit operation %q", req.Operation)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := s.findOwned(ctx, uow, userId, req.DocumentId)
	if err != nil {
		return nil, err
	}

	parsed, err := blocks.Parse(document.Content)
	if err != nil {
		return nil, fault.Validation("document content is not editable block content")
	}

	original, err := parsed.Text(req.BlockId)
	if err != nil {
		var notFound *blocks.ErrBlockNotFound
		if errors.As(err, &notFound) {
			return nil, fault.StaleReference("block %s no longer exists", req.BlockId)
		}
		return nil, err
	}
	if original == "" {
		return nil, fault.Validation("cannot suggest an edit for an empty block")
	}

	proposed, err := s.aiProvider.SuggestEdit(ctx, original, req.Operation)
	if err != nil {
		return nil, err
	}

	suggestion := &memory.PendingSuggestion{
		Id:           uuid.New(),
		DocumentId:   document.Id,
		BlockId:      req.BlockId,
		Operation:    req.Operation,
		OriginalText: original,
		ProposedText: proposed,
		CreatedAt:    time.Now(),
	}
	s.suggestions.Save(userId, suggestion)

	return &dto.SuggestEditResponse{
		SuggestionId: suggestion.Id,
		BlockId:      suggestion.BlockId,
		Operation:    suggestion.Operation,
		OriginalText: suggestion.OriginalText,
		ProposedText: suggestion.ProposedText,
	}, nil
}

// AcceptSuggestion applies the pending proposal to its block. If the block
// was deleted since the suggestion was made, the accept fails and the
// document is untouched.
func (s *documentService) AcceptSuggestion(ctx context.Context, userId uuid.UUID, req *dto.ResolveSuggestionRequest) (*dto.ResolveSuggestionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := s.findOwned(ctx, uow, userId, req.DocumentId)
	if err != nil {
		return nil, err
	}

	suggestion, err := s.pendingSuggestion(userId, req)
	if err != nil {
		return nil, err
	}

	parsed, err := blocks.Parse(document.Content)
	if err != nil {
		return nil, fault.Validation("document content is not editable block content")
	}

	if err := parsed.ReplaceText(suggestion.BlockId, suggestion.ProposedText); err != nil {
		var notFound *blocks.ErrBlockNotFound
		if errors.As(err, &notFound) {
			// Stale suggestions are dropped so the user is not stuck with it
			s.suggestions.Delete(userId, req.DocumentId)
			return nil, fault.StaleReference("block %s no longer exists", suggestion.BlockId)
		}
		return nil, err
	}

	serialized, err := parsed.Serialize()
	if err != nil {
		return nil, err
	}

	document.Content = serialized
	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		return nil, err
	}

	s.suggestions.Delete(userId, req.DocumentId)
	s.publishEmbed(ctx, document.Id)

	return &dto.ResolveSuggestionResponse{
		DocumentId: document.Id,
		Applied:    true,
	}, nil
}

// RejectSuggestion discards the pending proposal. Rejecting when nothing is
// pending is a no-op, so a repeated reject never errors.
func (s *documentService) RejectSuggestion(ctx context.Context, userId uuid.UUID, req *dto.ResolveSuggestionRequest) (*dto.ResolveSuggestionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.findOwned(ctx, uow, userId, req.DocumentId); err != nil {
		return nil, err
	}

	if suggestion, found := s.suggestions.Get(userId, req.DocumentId); found {
		if suggestion.Id != req.SuggestionId {
			return nil, fault.StaleReference("suggestion %s has been superseded", req.SuggestionId)
		}
		s.suggestions.Delete(userId, req.DocumentId)
	}

	return &dto.ResolveSuggestionResponse{
		DocumentId: req.DocumentId,
		Applied:    false,
	}, nil
}

// SemanticSearch tries a cheap literal match on title and summary first,
// falling back to vector similarity over the embedded chunks.
func (s *documentService) SemanticSearch(ctx context.Context, userId uuid.UUID, search string) ([]*dto.SemanticSearchResponse, error) {
	if search == "" {
		return nil, fault.Validation("search query must not be empty")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	literal, err := uow.DocumentRepository().FindAll(ctx,
		specification.VisibleToUser{UserID: userId},
		specification.DocumentSearchQuery{Query: search},
		specification.Pagination{Limit: 10, Offset: 0},
	)
	if err != nil {
		return nil, err
	}
	if len(literal) > 0 {
		res := make([]*dto.SemanticSearchResponse, len(literal))
		for i, document := range literal {
			res[i] = &dto.SemanticSearchResponse{
				Id:           document.Id,
				Title:        document.Title,
				Summary:      document.Summary,
				DocumentType: document.DocumentType,
				CreatedAt:    document.CreatedAt,
				UpdatedAt:    document.UpdatedAt,
				SearchType:   "literal",
			}
		}
		return res, nil
	}

	queryVector, err := s.embeddingProvider.Generate(ctx, search)
	if err != nil {
		return nil, err
	}

	scored, err := uow.DocumentEmbeddingRepository().SearchSimilarWithScore(ctx, queryVector, 10, userId, 0.35)
	if err != nil {
		return nil, err
	}

	// Multiple chunks can point at one document; keep the best score
	bestByDocument := map[uuid.UUID]float64{}
	var order []uuid.UUID
	for _, hit := range scored {
		docId := hit.Embedding.DocumentId
		if prev, seen := bestByDocument[docId]; !seen || hit.Similarity > prev {
			if !seen {
				order = append(order, docId)
			}
			bestByDocument[docId] = hit.Similarity
		}
	}

	var res []*dto.SemanticSearchResponse
	for _, docId := range order {
		document, ferr := uow.DocumentRepository().FindOne(ctx,
			specification.ByID{ID: docId},
			specification.VisibleToUser{UserID: userId},
		)
		if ferr != nil {
			return nil, ferr
		}
		if document == nil {
			continue
		}
		score := bestByDocument[docId]
		res = append(res, &dto.SemanticSearchResponse{
			Id:             document.Id,
			Title:          document.Title,
			Summary:        document.Summary,
			DocumentType:   document.DocumentType,
			CreatedAt:      document.CreatedAt,
			UpdatedAt:      document.UpdatedAt,
			SearchType:     "semantic",
			RelevanceScore: &score,
		})
	}
	return res, nil
}

func (s *documentService) pendingSuggestion(userId uuid.UUID, req *dto.ResolveSuggestionRequest) (*memory.PendingSuggestion, error) {
	suggestion, found := s.suggestions.Get(userId, req.DocumentId)
	if !found {
		return nil, fault.Validation("no pending suggestion for this document")
	}
	if suggestion.Id != req.SuggestionId {
		return nil, fault.StaleReference("suggestion %s has been superseded", req.SuggestionId)
	}
	return suggestion, nil
}

func (s *documentService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, id uuid.UUID) (*entity.Document, error) {
	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, fault.Validation("document not found")
	}
	return document, nil
}

func (s *documentService) toShowResponse(document *entity.Document, userId uuid.UUID) *dto.ShowDocumentResponse {
	return &dto.ShowDocumentResponse{
		Id:           document.Id,
		Title:        document.Title,
		Content:      document.Content,
		Summary:      document.Summary,
		DocumentType: document.DocumentType,
		SourceType:   document.SourceType,
		SessionId:    document.SessionId,
		IsShared:     document.IsShared,
		IsOwner:      document.UserId == userId,
		CreatedAt:    document.CreatedAt,
		UpdatedAt:    document.UpdatedAt,
	}
}

func (s *documentService) publishEmbed(ctx context.Context, documentId uuid.UUID) {
	if s.publisherService == nil {
		return
	}
	payload, err := json.Marshal(dto.PublishEmbedDocumentMessage{DocumentId: documentId})
	if err != nil {
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Warn("DocumentService", "failed to publish embed message", map[string]interface{}{
			"document_id": documentId,
			"error":       err.Error(),
		})
	}
}

func (s *documentService) publishEvent(ctx context.Context, evt events.BaseEvent) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("DocumentService", "failed to publish event", map[string]interface{}{
			"event_type": evt.EventType(),
			"error":      err.Error(),
		})
	}
}
