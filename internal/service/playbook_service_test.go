package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"ai-playbook-be/internal/constant"
	"ai-playbook-be/internal/dto"
	"ai-playbook-be/internal/entity"
	"ai-playbook-be/internal/repository/memory"
	"ai-playbook-be/pkg/fault"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func synthesisBody(lines ...string) string {
	return strings.Join(append(lines, ""), "\n")
}

func newPlaybookService(uow *fakeUow, provider *fakeProvider) IPlaybookService {
	return NewPlaybookService(&fakeFactory{uow: uow}, provider, memory.NewSynthesisGuard(), nil, nopLogger{})
}

func seedSourceDocuments(t *testing.T, uow *fakeUow, userId uuid.UUID, n int) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, n)
	for i := range ids {
		doc := &entity.Document{
			Id:           uuid.New(),
			UserId:       userId,
			Title:        "Source document",
			Content:      "Plain notes about an incident.",
			DocumentType: constant.DocumentTypeCaseStudy,
			SourceType:   constant.SourceTypeUpload,
			CreatedAt:    time.Now(),
		}
		require.NoError(t, uow.documents.Create(context.Background(), doc))
		ids[i] = doc.Id
	}
	return ids
}

func TestGeneratePlaybook(t *testing.T) {
	uow := newFakeUow()
	userId := uuid.New()
	docIds := seedSourceDocuments(t, uow, userId, 2)

	provider := &fakeProvider{synthesisBody: synthesisBody(
		`event: status`,
		`data: {"message":"analyzing sources"}`,
		``,
		`event: complete`,
		`data: {"title":"Outage Playbook","content":"# Playbook"}`,
	)}
	svc := newPlaybookService(uow, provider)

	var statuses []string
	res, err := svc.Generate(context.Background(), userId, &dto.GeneratePlaybookRequest{
		Title:       "Draft title",
		DocumentIds: docIds,
	}, func(message string) { statuses = append(statuses, message) })
	require.NoError(t, err)

	assert.Equal(t, constant.PlaybookStatusReady, res.Status)
	assert.Equal(t, []string{"analyzing sources"}, statuses)

	stored := uow.playbooks.records[res.Id]
	require.NotNil(t, stored)
	assert.Equal(t, "Outage Playbook", stored.Title)
	assert.Equal(t, "# Playbook", stored.Content)
	assert.Equal(t, constant.PlaybookStatusReady, stored.Status)

	// One create at completion, no interim writes
	assert.Len(t, uow.playbooks.records, 1)
	assert.Zero(t, uow.playbooks.updates)

	// A fresh generation treats every source as new
	assert.Equal(t, constant.SynthesisKindGenerate, provider.lastSynthesis.Kind)
	assert.Len(t, provider.lastSynthesis.NewSourceIds, 2)
	assert.Empty(t, provider.lastSynthesis.ExistingContent)
}

func TestGenerateFailureWritesNothing(t *testing.T) {
	uow := newFakeUow()
	userId := uuid.New()
	docIds := seedSourceDocuments(t, uow, userId, 2)

	provider := &fakeProvider{synthesisBody: synthesisBody(
		`event: status`,
		`data: {"message":"analyzing sources"}`,
		``,
		`event: error`,
		`data: {"message":"model overloaded"}`,
	)}
	svc := newPlaybookService(uow, provider)

	_, err := svc.Generate(context.Background(), userId, &dto.GeneratePlaybookRequest{
		Title:       "Draft title",
		DocumentIds: docIds,
	}, nil)
	require.Error(t, err)
	assert.True(t, fault.IsUpstream(err))

	assert.Empty(t, uow.playbooks.records)
	assert.Zero(t, uow.playbooks.updates)
}

func TestGenerateRejectsInvisibleDocuments(t *testing.T) {
	uow := newFakeUow()
	owner := uuid.New()
	docIds := seedSourceDocuments(t, uow, owner, 2)

	svc := newPlaybookService(uow, &fakeProvider{})

	_, err := svc.Generate(context.Background(), uuid.New(), &dto.GeneratePlaybookRequest{
		Title:       "Stolen sources",
		DocumentIds: docIds,
	}, nil)
	assert.True(t, fault.IsValidation(err))
	assert.Empty(t, uow.playbooks.records)
}

func TestRegeneratePlaybookSendsOnlyNewSources(t *testing.T) {
	uow := newFakeUow()
	userId := uuid.New()
	docIds := seedSourceDocuments(t, uow, userId, 3)
	oldIds := docIds[:2]
	addedId := docIds[2]

	existing := &entity.Playbook{
		Id:          uuid.New(),
		UserId:      userId,
		Title:       "Outage Playbook",
		Content:     "# v1",
		Status:      constant.PlaybookStatusReady,
		DocumentIds: oldIds,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, uow.playbooks.Create(context.Background(), existing))

	provider := &fakeProvider{synthesisBody: synthesisBody(
		`event: complete`,
		`data: {"title":"Outage Playbook","content":"# v2"}`,
	)}
	svc := newPlaybookService(uow, provider)

	res, err := svc.Regenerate(context.Background(), userId, &dto.RegeneratePlaybookRequest{
		Id:          existing.Id,
		DocumentIds: docIds,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, constant.PlaybookStatusReady, res.Status)

	assert.Equal(t, constant.SynthesisKindRegenerate, provider.lastSynthesis.Kind)
	assert.Equal(t, []string{addedId.String()}, provider.lastSynthesis.NewSourceIds)
	assert.Equal(t, "# v1", provider.lastSynthesis.ExistingContent)

	stored := uow.playbooks.records[existing.Id]
	assert.Equal(t, "# v2", stored.Content)
	assert.Len(t, stored.DocumentIds, 3)
	assert.Equal(t, 1, uow.playbooks.updates)
}

func TestUploadForeignPlaybook(t *testing.T) {
	uow := newFakeUow()
	userId := uuid.New()
	docIds := seedSourceDocuments(t, uow, userId, 2)

	provider := &fakeProvider{synthesisBody: synthesisBody(
		`event: complete`,
		`data: {"title":"Imported Playbook","content":"# refined"}`,
	)}
	svc := newPlaybookService(uow, provider)

	res, err := svc.Upload(context.Background(), userId, &dto.UploadPlaybookRequest{
		Title:       "Imported Playbook",
		Content:     "# rough import",
		DocumentIds: docIds,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, constant.PlaybookStatusReady, res.Status)

	// Imported content has no previous source set, so nothing counts as new
	assert.Equal(t, constant.SynthesisKindRegenerate, provider.lastSynthesis.Kind)
	assert.Empty(t, provider.lastSynthesis.NewSourceIds)
	assert.Equal(t, "# rough import", provider.lastSynthesis.ExistingContent)

	stored := uow.playbooks.records[res.Id]
	require.NotNil(t, stored)
	assert.Equal(t, "# refined", stored.Content)
}

func TestRegenerateFailureLeavesRecordUntouched(t *testing.T) {
	uow := newFakeUow()
	userId := uuid.New()
	docIds := seedSourceDocuments(t, uow, userId, 2)

	existing := &entity.Playbook{
		Id:          uuid.New(),
		UserId:      userId,
		Title:       "Outage Playbook",
		Content:     "# v1",
		Status:      constant.PlaybookStatusReady,
		DocumentIds: docIds[:1],
		CreatedAt:   time.Now(),
	}
	require.NoError(t, uow.playbooks.Create(context.Background(), existing))

	// Two status events, then the stream ends with no terminal frame
	provider := &fakeProvider{synthesisBody: synthesisBody(
		`event: status`,
		`data: {"message":"analyzing sources"}`,
		``,
		`event: status`,
		`data: {"message":"drafting sections"}`,
	)}
	svc := newPlaybookService(uow, provider)

	_, err := svc.Regenerate(context.Background(), userId, &dto.RegeneratePlaybookRequest{
		Id:          existing.Id,
		DocumentIds: docIds,
	}, nil)
	require.Error(t, err)
	assert.True(t, fault.IsStreamProtocol(err))

	stored := uow.playbooks.records[existing.Id]
	assert.Equal(t, constant.PlaybookStatusReady, stored.Status)
	assert.Equal(t, "# v1", stored.Content)
	assert.Equal(t, docIds[:1], stored.DocumentIds)
	assert.Zero(t, uow.playbooks.updates)
}

func TestRegenerateProviderErrorWritesNothing(t *testing.T) {
	uow := newFakeUow()
	userId := uuid.New()
	docIds := seedSourceDocuments(t, uow, userId, 2)

	existing := &entity.Playbook{
		Id:          uuid.New(),
		UserId:      userId,
		Title:       "Outage Playbook",
		Content:     "# v1",
		Status:      constant.PlaybookStatusReady,
		DocumentIds: docIds[:1],
		CreatedAt:   time.Now(),
	}
	require.NoError(t, uow.playbooks.Create(context.Background(), existing))

	svc := newPlaybookService(uow, &fakeProvider{synthesisErr: errBoom})

	_, err := svc.Regenerate(context.Background(), userId, &dto.RegeneratePlaybookRequest{
		Id:          existing.Id,
		DocumentIds: docIds,
	}, nil)
	require.Error(t, err)

	stored := uow.playbooks.records[existing.Id]
	assert.Equal(t, "# v1", stored.Content)
	assert.Equal(t, docIds[:1], stored.DocumentIds)
	assert.Zero(t, uow.playbooks.updates)
}

func TestRegenerateRejectsConcurrentRun(t *testing.T) {
	uow := newFakeUow()
	userId := uuid.New()
	docIds := seedSourceDocuments(t, uow, userId, 2)

	existing := &entity.Playbook{
		Id:          uuid.New(),
		UserId:      userId,
		Title:       "Outage Playbook",
		Content:     "# v1",
		Status:      constant.PlaybookStatusReady,
		DocumentIds: docIds,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, uow.playbooks.Create(context.Background(), existing))

	guard := memory.NewSynthesisGuard()
	require.True(t, guard.Acquire(existing.Id))

	svc := NewPlaybookService(&fakeFactory{uow: uow}, &fakeProvider{}, guard, nil, nopLogger{})

	_, err := svc.Regenerate(context.Background(), userId, &dto.RegeneratePlaybookRequest{
		Id:          existing.Id,
		DocumentIds: docIds,
	}, nil)
	assert.True(t, fault.IsValidation(err))
	assert.Zero(t, uow.playbooks.updates)

	// The slot frees once the first run releases it
	guard.Release(existing.Id)
	assert.True(t, guard.Acquire(existing.Id))
}

func TestGenerateRejectsSingleSource(t *testing.T) {
	uow := newFakeUow()
	userId := uuid.New()
	docIds := seedSourceDocuments(t, uow, userId, 1)

	svc := newPlaybookService(uow, &fakeProvider{})

	_, err := svc.Generate(context.Background(), userId, &dto.GeneratePlaybookRequest{
		Title:       "Thin material",
		DocumentIds: docIds,
	}, nil)
	assert.True(t, fault.IsValidation(err))
	assert.Empty(t, uow.playbooks.records)
}

func TestGenerateRejectsDuplicateDocumentIds(t *testing.T) {
	uow := newFakeUow()
	userId := uuid.New()
	docIds := seedSourceDocuments(t, uow, userId, 1)

	svc := newPlaybookService(uow, &fakeProvider{})

	_, err := svc.Generate(context.Background(), userId, &dto.GeneratePlaybookRequest{
		Title:       "Doubled up",
		DocumentIds: []uuid.UUID{docIds[0], docIds[0]},
	}, nil)
	assert.True(t, fault.IsValidation(err))
}
