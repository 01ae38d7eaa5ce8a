package service

import (
	"context"
	"encoding/json"
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
	"ai-playbook-be/pkg/interview"
	"ai-playbook-be/pkg/llm"
	pkgNats "ai-playbook-be/pkg/nats"
	"ai-playbook-be/pkg/stream"

	"github.com/google/uuid"
)

// TokenFunc receives assistant tokens as they stream in.
type TokenFunc func(token string)

type IInterviewService interface {
	StartSession(ctx context.Context, userId uuid.UUID, req *dto.StartSessionRequest, onToken TokenFunc) (*dto.StartSessionResponse, error)
	SendTurn(ctx context.Context, userId uuid.UUID, req *dto.SendTurnRequest, onToken TokenFunc) (*dto.SendTurnResponse, error)
	Finalize(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.FinalizeSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID, status string) ([]*dto.GetAllSessionsResponse, error)
	GetHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.GetSessionHistoryResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
}

type interviewService struct {
	uowFactory       unitofwork.RepositoryFactory
	liveSessions     *memory.SessionRepository
	aiProvider       llm.Provider
	publisherService IPublisherService
	eventPublisher   *pkgNats.Publisher
	logger           logger.ILogger
	cfg              interview.Config
}

func NewInterviewService(
	uowFactory unitofwork.RepositoryFactory,
	liveSessions *memory.SessionRepository,
	aiProvider llm.Provider,
	publisherService IPublisherService,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
	cfg interview.Config,
) IInterviewService {
	return &interviewService{
		uowFactory:       uowFactory,
		liveSessions:     liveSessions,
		aiProvider:       aiProvider,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
		cfg:              cfg,
	}
}

// StartSession validates the interview context, persists the session record,
// then streams the first question. The record is removed again if the stream
// fails, so a session never exists without its first turn.
func (s *interviewService) StartSession(ctx context.Context, userId uuid.UUID, req *dto.StartSessionRequest, onToken TokenFunc) (*dto.StartSessionResponse, error) {
	if !constant.IsValidDocumentType(req.DocumentType) {
		return nil, fault.Validation("unknown document type %q", req.DocumentType)
	}

	session, err := interview.New(uuid.New(), interview.Context{
		DocumentType: req.DocumentType,
		Title:        req.Title,
		FunctionArea: req.FunctionArea,
		Description:  req.Description,
	}, s.cfg)
	if err != nil {
		return nil, err
	}

	if err := session.Transition(interview.StateAwaitingFirstResponse); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	record := entity.InterviewSession{
		Id:           session.Id,
		UserId:       userId,
		DocumentType: req.DocumentType,
		Title:        req.Title,
		FunctionArea: req.FunctionArea,
		Description:  req.Description,
		Status:       string(session.State()),
		CreatedAt:    time.Now(),
	}
	if err := uow.InterviewSessionRepository().Create(ctx, &record); err != nil {
		return nil, err
	}

	firstQuestion, err := s.streamAssistant(ctx, session, onToken)
	if err != nil {
		// Roll the session record back; a session with no first question is
		// unusable.
		if delErr := uow.InterviewSessionRepository().Delete(ctx, session.Id); delErr != nil {
			s.logger.Error("InterviewService", "failed to clean up session after stream failure", map[string]interface{}{
				"session_id": session.Id,
				"error":      delErr.Error(),
			})
		}
		return nil, err
	}

	turn := session.AppendAssistant(firstQuestion)
	if err := session.Transition(interview.StateConversing); err != nil {
		return nil, err
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.InterviewTurnRepository().Create(ctx, &entity.InterviewTurn{
		Id:        uuid.New(),
		SessionId: session.Id,
		Role:      turn.Role,
		Content:   turn.Content,
		Sequence:  turn.Sequence,
		CreatedAt: time.Now(),
	}); err != nil {
		return nil, err
	}

	record.Status = string(session.State())
	if err := uow.InterviewSessionRepository().Update(ctx, &record); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	session.Commit()
	s.liveSessions.Save(session)

	return &dto.StartSessionResponse{
		Id:            session.Id,
		Status:        string(session.State()),
		FirstQuestion: firstQuestion,
	}, nil
}

// SendTurn appends the expert's message, streams the assistant's reply, and
// persists both turns in one transaction. Failure anywhere rolls the
// in-memory transcript back so sequence numbers stay gapless.
func (s *interviewService) SendTurn(ctx context.Context, userId uuid.UUID, req *dto.SendTurnRequest, onToken TokenFunc) (*dto.SendTurnResponse, error) {
	session, _, err := s.loadSession(ctx, userId, req.SessionId)
	if err != nil {
		return nil, err
	}

	if err := session.BeginStream(); err != nil {
		return nil, err
	}
	defer session.EndStream()

	userTurn, err := session.AppendUser(req.Message)
	if err != nil {
		return nil, err
	}

	reply, err := s.streamAssistant(ctx, session, onToken)
	if err != nil {
		session.Rollback()
		return nil, err
	}
	replyTurn := session.AppendAssistant(reply)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		session.Rollback()
		return nil, err
	}
	defer uow.Rollback()

	now := time.Now()
	sentEntity := entity.InterviewTurn{
		Id:        uuid.New(),
		SessionId: session.Id,
		Role:      userTurn.Role,
		Content:   userTurn.Content,
		Sequence:  userTurn.Sequence,
		CreatedAt: now,
	}
	replyEntity := entity.InterviewTurn{
		Id:        uuid.New(),
		SessionId: session.Id,
		Role:      replyTurn.Role,
		Content:   replyTurn.Content,
		Sequence:  replyTurn.Sequence,
		CreatedAt: now,
	}
	if err := uow.InterviewTurnRepository().CreateBulk(ctx, []*entity.InterviewTurn{&sentEntity, &replyEntity}); err != nil {
		session.Rollback()
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		session.Rollback()
		return nil, err
	}

	session.Commit()
	s.liveSessions.Save(session)

	return &dto.SendTurnResponse{
		SessionId: session.Id,
		Sent: &dto.TurnDTO{
			Id:        sentEntity.Id,
			Role:      sentEntity.Role,
			Content:   sentEntity.Content,
			Sequence:  sentEntity.Sequence,
			CreatedAt: sentEntity.CreatedAt,
		},
		Reply: &dto.TurnDTO{
			Id:        replyEntity.Id,
			Role:      replyEntity.Role,
			Content:   replyEntity.Content,
			Sequence:  replyEntity.Sequence,
			CreatedAt: replyEntity.CreatedAt,
		},
	}, nil
}

// Finalize turns the transcript into a structured document. On failure the
// session stays in conversing and can be finalized again.
func (s *interviewService) Finalize(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.FinalizeSessionResponse, error) {
	session, record, err := s.loadSession(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}

	if err := session.CanFinalize(); err != nil {
		return nil, err
	}
	if err := session.BeginStream(); err != nil {
		return nil, err
	}
	defer session.EndStream()

	if err := session.Transition(interview.StateFinalizing); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	record.Status = string(interview.StateFinalizing)
	if err := uow.InterviewSessionRepository().Update(ctx, record); err != nil {
		return nil, err
	}

	markdown, err := s.writeDocument(ctx, session)
	if err != nil {
		// Back to conversing so the expert can retry or keep talking
		if terr := session.Transition(interview.StateConversing); terr != nil {
			s.logger.Error("InterviewService", "failed to revert session state", map[string]interface{}{
				"session_id": session.Id,
				"error":      terr.Error(),
			})
		}
		record.Status = string(interview.StateConversing)
		if uerr := uow.InterviewSessionRepository().Update(ctx, record); uerr != nil {
			s.logger.Error("InterviewService", "failed to revert session status", map[string]interface{}{
				"session_id": session.Id,
				"error":      uerr.Error(),
			})
		}
		return nil, err
	}

	structured, err := blocks.FromPlainText(markdown).Serialize()
	if err != nil {
		return nil, err
	}

	if err := session.Transition(interview.StateCompleted); err != nil {
		return nil, err
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	document := entity.Document{
		Id:           uuid.New(),
		UserId:       userId,
		Title:        record.Title,
		Content:      structured,
		DocumentType: record.DocumentType,
		SourceType:   constant.SourceTypeInterview,
		SessionId:    &record.Id,
		CreatedAt:    time.Now(),
	}
	if err := uow.DocumentRepository().Create(ctx, &document); err != nil {
		return nil, err
	}

	// completedAt is set once, in the same write that records the document
	completedAt := time.Now()
	record.Status = string(interview.StateCompleted)
	record.DocumentId = &document.Id
	record.CompletedAt = &completedAt
	if err := uow.InterviewSessionRepository().Update(ctx, record); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.liveSessions.Delete(session.Id.String())

	s.publishEmbed(ctx, document.Id)
	s.publishEvent(ctx, events.NewNotification(events.TypeInterviewCompleted, userId.String(),
		fmt.Sprintf("Your interview %q produced a new document", record.Title),
		map[string]interface{}{
			"session_id":  record.Id,
			"document_id": document.Id,
		}))

	return &dto.FinalizeSessionResponse{
		SessionId:   record.Id,
		DocumentId:  document.Id,
		Status:      string(interview.StateCompleted),
		CompletedAt: record.CompletedAt,
	}, nil
}

func (s *interviewService) GetAllSessions(ctx context.Context, userId uuid.UUID, status string) ([]*dto.GetAllSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	specs := []specification.Specification{
		specification.OwnedByUser{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	}
	if spec := statusFilter(status); spec != nil {
		specs = append(specs, spec)
	}
	sessions, err := uow.InterviewSessionRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.GetAllSessionsResponse, len(sessions))
	for i, session := range sessions {
		res[i] = &dto.GetAllSessionsResponse{
			Id:           session.Id,
			Title:        session.Title,
			DocumentType: session.DocumentType,
			Status:       session.Status,
			DocumentId:   session.DocumentId,
			CompletedAt:  session.CompletedAt,
			CreatedAt:    session.CreatedAt,
			UpdatedAt:    session.UpdatedAt,
		}
	}
	return res, nil
}

// statusFilter translates the list endpoint's status query into a store
// filter. "in_progress" covers every unfinished phase; "completed" and the
// phase names themselves match directly.
func statusFilter(status string) specification.Specification {
	switch status {
	case "":
		return nil
	case "in_progress":
		active := interview.ActiveStates()
		statuses := make([]string, len(active))
		for i, state := range active {
			statuses[i] = string(state)
		}
		return specification.ByStatusIn{Statuses: statuses}
	default:
		return specification.ByStatus{Status: status}
	}
}

func (s *interviewService) GetHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.GetSessionHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	record, err := s.findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	turns, err := uow.InterviewTurnRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "sequence"},
	)
	if err != nil {
		return nil, err
	}

	turnDTOs := make([]dto.TurnDTO, len(turns))
	for i, turn := range turns {
		turnDTOs[i] = dto.TurnDTO{
			Id:        turn.Id,
			Role:      turn.Role,
			Content:   turn.Content,
			Sequence:  turn.Sequence,
			CreatedAt: turn.CreatedAt,
		}
	}

	return &dto.GetSessionHistoryResponse{
		Id:           record.Id,
		Title:        record.Title,
		DocumentType: record.DocumentType,
		FunctionArea: record.FunctionArea,
		Description:  record.Description,
		Status:       record.Status,
		DocumentId:   record.DocumentId,
		CompletedAt:  record.CompletedAt,
		Turns:        turnDTOs,
		CreatedAt:    record.CreatedAt,
	}, nil
}

func (s *interviewService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	record, err := s.findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.InterviewTurnRepository().DeleteBySessionId(ctx, record.Id); err != nil {
		return err
	}
	if err := uow.InterviewSessionRepository().Delete(ctx, record.Id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.liveSessions.Delete(sessionId.String())
	return nil
}

// loadSession returns the live session, rebuilding it from persisted turns
// when the cache has evicted it.
func (s *interviewService) loadSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*interview.Session, *entity.InterviewSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	record, err := s.findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, nil, err
	}
	if record.Status == string(interview.StateCompleted) {
		return nil, nil, fault.Validation("session is already completed")
	}

	if live, found := s.liveSessions.Get(sessionId.String()); found {
		return live, record, nil
	}

	turns, err := uow.InterviewTurnRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "sequence"},
	)
	if err != nil {
		return nil, nil, err
	}

	restored := make([]interview.Turn, len(turns))
	for i, turn := range turns {
		restored[i] = interview.Turn{
			Role:     turn.Role,
			Content:  turn.Content,
			Sequence: turn.Sequence,
		}
	}

	session, err := interview.Resume(record.Id, interview.Context{
		DocumentType: record.DocumentType,
		Title:        record.Title,
		FunctionArea: record.FunctionArea,
		Description:  record.Description,
	}, restored, s.cfg)
	if err != nil {
		return nil, nil, err
	}

	s.liveSessions.Save(session)
	return session, record, nil
}

func (s *interviewService) findOwnedSession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, sessionId uuid.UUID) (*entity.InterviewSession, error) {
	record, err := uow.InterviewSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fault.Validation("session not found")
	}
	return record, nil
}

// streamAssistant opens a token stream for the session's history and
// accumulates the reply, forwarding tokens as they arrive.
func (s *interviewService) streamAssistant(ctx context.Context, session *interview.Session, onToken TokenFunc) (string, error) {
	history := append([]llm.Message{
		{Role: llm.RoleSystem, Content: constant.InterviewerSystemPromptV2},
	}, session.History()...)

	body, err := s.aiProvider.StreamChat(ctx, history)
	if err != nil {
		return "", err
	}
	defer body.Close()

	var reply string
	var terminal error
	completed := false

	err = stream.Consume(ctx, body, stream.DialectSimple, func(ev stream.Event) error {
		switch ev.Kind {
		case stream.KindToken:
			reply += ev.Text
			if onToken != nil {
				onToken(ev.Text)
			}
		case stream.KindComplete:
			completed = true
		case stream.KindError:
			if ev.Protocol {
				terminal = fault.StreamProtocol("%s", ev.Message)
			} else {
				terminal = fault.Upstream("assistant stream failed: %s", ev.Message)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if terminal != nil {
		return "", terminal
	}
	if !completed {
		return "", fault.StreamProtocol("assistant stream ended without completion")
	}
	if reply == "" {
		return "", fault.Upstream("assistant returned an empty response")
	}
	return reply, nil
}

func (s *interviewService) writeDocument(ctx context.Context, session *interview.Session) (string, error) {
	var transcript string
	for _, turn := range session.Turns() {
		role := "Expert"
		if turn.Role == llm.RoleAssistant {
			role = "Interviewer"
		}
		transcript += fmt.Sprintf("%s: %s\n\n", role, turn.Content)
	}

	docType := "best practices"
	if session.Context.DocumentType == constant.DocumentTypeCaseStudy {
		docType = "case study"
	}

	prompt := fmt.Sprintf(constant.DocumentWriterPromptV1, docType, transcript)
	markdown, err := s.aiProvider.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		return "", err
	}
	if markdown == "" {
		return "", fault.Upstream("document generation returned empty content")
	}
	return markdown, nil
}

func (s *interviewService) publishEmbed(ctx context.Context, documentId uuid.UUID) {
	if s.publisherService == nil {
		return
	}
	payload, err := json.Marshal(dto.PublishEmbedDocumentMessage{DocumentId: documentId})
	if err != nil {
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Warn("InterviewService", "failed to publish embed message", map[string]interface{}{
			"document_id": documentId,
			"error":       err.Error(),
		})
	}
}

func (s *interviewService) publishEvent(ctx context.Context, evt events.BaseEvent) {
	if s.eventPublisher == nil {
		return
	}
	// Notifications are auxiliary; log and move on
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("InterviewService", "failed to publish event", map[string]interface{}{
			"event_type": evt.EventType(),
			"error":      err.Error(),
		})
	}
}
