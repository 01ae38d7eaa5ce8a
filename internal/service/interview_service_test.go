package service

import (
	"context"
	"testing"

	"ai-playbook-be/internal/constant"
	"ai-playbook-be/internal/dto"
	"ai-playbook-be/internal/repository/memory"
	"ai-playbook-be/pkg/fault"
	"ai-playbook-be/pkg/interview"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type interviewFixture struct {
	svc      IInterviewService
	uow      *fakeUow
	provider *fakeProvider
	userId   uuid.UUID
}

func newInterviewFixture(t *testing.T) *interviewFixture {
	t.Helper()

	uow := newFakeUow()
	provider := &fakeProvider{
		chatStream: "data: {\"delta\":\"What \"}\ndata: {\"delta\":\"happened?\"}\ndata: [DONE]\n",
		chatReply:  "# Case Study\n\nThe details of what happened.",
	}
	svc := NewInterviewService(
		&fakeFactory{uow: uow},
		memory.NewSessionRepository(),
		provider,
		nil,
		nil,
		nopLogger{},
		interview.DefaultConfig(),
	)
	return &interviewFixture{svc: svc, uow: uow, provider: provider, userId: uuid.New()}
}

func startRequest() *dto.StartSessionRequest {
	return &dto.StartSessionRequest{
		DocumentType: constant.DocumentTypeCaseStudy,
		Title:        "The cache stampede of last March",
		FunctionArea: "engineering",
		Description:  "How we survived a cache stampede that took down checkout for an hour.",
	}
}

func TestStartSessionStreamsFirstQuestion(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	var tokens []string
	res, err := f.svc.StartSession(ctx, f.userId, startRequest(), func(tok string) { tokens = append(tokens, tok) })
	require.NoError(t, err)

	assert.Equal(t, "What happened?", res.FirstQuestion)
	assert.Equal(t, []string{"What ", "happened?"}, tokens)
	assert.Equal(t, string(interview.StateConversing), res.Status)

	record := f.uow.sessions.records[res.Id]
	require.NotNil(t, record)
	assert.Equal(t, string(interview.StateConversing), record.Status)

	require.Len(t, f.uow.turns.turns, 1)
	assert.Equal(t, constant.TurnRoleAssistant, f.uow.turns.turns[0].Role)
	assert.Equal(t, 1, f.uow.turns.turns[0].Sequence)
}

func TestStartSessionStreamFailureCleansUp(t *testing.T) {
	f := newInterviewFixture(t)
	f.provider.chatStreamErr = errBoom

	_, err := f.svc.StartSession(context.Background(), f.userId, startRequest(), nil)
	require.Error(t, err)
	assert.Empty(t, f.uow.sessions.records)
	assert.Empty(t, f.uow.turns.turns)
}

func TestSendTurnPersistsBothTurns(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, f.userId, startRequest(), nil)
	require.NoError(t, err)

	res, err := f.svc.SendTurn(ctx, f.userId, &dto.SendTurnRequest{
		SessionId: started.Id,
		Message:   "It began with a deploy at noon.",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Sent.Sequence)
	assert.Equal(t, 3, res.Reply.Sequence)
	assert.Equal(t, "What happened?", res.Reply.Content)

	require.Len(t, f.uow.turns.turns, 3)
}

func TestSendTurnFailureKeepsSequencesGapless(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, f.userId, startRequest(), nil)
	require.NoError(t, err)

	f.uow.turns.failNextWrite = errBoom
	_, err = f.svc.SendTurn(ctx, f.userId, &dto.SendTurnRequest{
		SessionId: started.Id,
		Message:   "This one will fail to persist.",
	}, nil)
	require.Error(t, err)
	require.Len(t, f.uow.turns.turns, 1)

	// The retried turn reuses the sequence numbers the failed one held
	res, err := f.svc.SendTurn(ctx, f.userId, &dto.SendTurnRequest{
		SessionId: started.Id,
		Message:   "Second attempt.",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Sent.Sequence)
	assert.Equal(t, 3, res.Reply.Sequence)

	var sequences []int
	for _, turn := range f.uow.turns.turns {
		sequences = append(sequences, turn.Sequence)
	}
	assert.Equal(t, []int{1, 2, 3}, sequences)
}

func TestSendTurnRejectsForeignSession(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, f.userId, startRequest(), nil)
	require.NoError(t, err)

	_, err = f.svc.SendTurn(ctx, uuid.New(), &dto.SendTurnRequest{
		SessionId: started.Id,
		Message:   "Not my session.",
	}, nil)
	assert.True(t, fault.IsValidation(err))
}

func TestFinalizeRequiresMinimumTurns(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, f.userId, startRequest(), nil)
	require.NoError(t, err)

	_, err = f.svc.Finalize(ctx, f.userId, started.Id)
	assert.True(t, fault.IsValidation(err))
}

func TestFinalizeCreatesDocument(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, f.userId, startRequest(), nil)
	require.NoError(t, err)
	_, err = f.svc.SendTurn(ctx, f.userId, &dto.SendTurnRequest{
		SessionId: started.Id,
		Message:   "It began with a deploy at noon.",
	}, nil)
	require.NoError(t, err)

	res, err := f.svc.Finalize(ctx, f.userId, started.Id)
	require.NoError(t, err)
	assert.Equal(t, string(interview.StateCompleted), res.Status)

	document := f.uow.documents.records[res.DocumentId]
	require.NotNil(t, document)
	assert.Equal(t, constant.SourceTypeInterview, document.SourceType)
	require.NotNil(t, document.SessionId)
	assert.Equal(t, started.Id, *document.SessionId)

	record := f.uow.sessions.records[started.Id]
	assert.Equal(t, string(interview.StateCompleted), record.Status)
	require.NotNil(t, record.DocumentId)
	assert.Equal(t, res.DocumentId, *record.DocumentId)
	require.NotNil(t, record.CompletedAt)
	assert.Equal(t, record.CompletedAt, res.CompletedAt)
}

func TestFinalizeFailureLeavesCompletedAtUnset(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, f.userId, startRequest(), nil)
	require.NoError(t, err)
	_, err = f.svc.SendTurn(ctx, f.userId, &dto.SendTurnRequest{
		SessionId: started.Id,
		Message:   "It began with a deploy at noon.",
	}, nil)
	require.NoError(t, err)

	f.provider.chatErr = errBoom
	_, err = f.svc.Finalize(ctx, f.userId, started.Id)
	require.Error(t, err)

	assert.Nil(t, f.uow.sessions.records[started.Id].CompletedAt)
}

func TestGetAllSessionsStatusVocabulary(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, f.userId, startRequest(), nil)
	require.NoError(t, err)
	_, err = f.svc.SendTurn(ctx, f.userId, &dto.SendTurnRequest{
		SessionId: started.Id,
		Message:   "It began with a deploy at noon.",
	}, nil)
	require.NoError(t, err)
	_, err = f.svc.Finalize(ctx, f.userId, started.Id)
	require.NoError(t, err)

	open, err := f.svc.StartSession(ctx, f.userId, startRequest(), nil)
	require.NoError(t, err)

	inProgress, err := f.svc.GetAllSessions(ctx, f.userId, "in_progress")
	require.NoError(t, err)
	require.Len(t, inProgress, 1)
	assert.Equal(t, open.Id, inProgress[0].Id)

	completed, err := f.svc.GetAllSessions(ctx, f.userId, "completed")
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, started.Id, completed[0].Id)
	assert.NotNil(t, completed[0].CompletedAt)

	all, err := f.svc.GetAllSessions(ctx, f.userId, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFinalizeFailureIsRetryable(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, f.userId, startRequest(), nil)
	require.NoError(t, err)
	_, err = f.svc.SendTurn(ctx, f.userId, &dto.SendTurnRequest{
		SessionId: started.Id,
		Message:   "It began with a deploy at noon.",
	}, nil)
	require.NoError(t, err)

	f.provider.chatErr = errBoom
	_, err = f.svc.Finalize(ctx, f.userId, started.Id)
	require.Error(t, err)

	record := f.uow.sessions.records[started.Id]
	assert.Equal(t, string(interview.StateConversing), record.Status)
	assert.Empty(t, f.uow.documents.records)

	// The document writer recovers; finalizing again succeeds
	f.provider.chatErr = nil
	res, err := f.svc.Finalize(ctx, f.userId, started.Id)
	require.NoError(t, err)
	assert.Equal(t, string(interview.StateCompleted), res.Status)
}
