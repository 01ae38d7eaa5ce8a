package service

import (
	"context"
	"testing"
	"time"

	"ai-playbook-be/internal/constant"
	"ai-playbook-be/internal/dto"
	"ai-playbook-be/internal/entity"
	"ai-playbook-be/internal/repository/contract"
	"ai-playbook-be/internal/repository/memory"
	"ai-playbook-be/pkg/blocks"
	"ai-playbook-be/pkg/fault"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type documentFixture struct {
	svc      IDocumentService
	uow      *fakeUow
	provider *fakeProvider
	userId   uuid.UUID
	doc      *entity.Document
	blockIds []string
}

func newDocumentFixture(t *testing.T) *documentFixture {
	t.Helper()

	uow := newFakeUow()
	provider := &fakeProvider{suggestReply: "A much sharper paragraph."}
	svc := NewDocumentService(&fakeFactory{uow: uow}, memory.NewSuggestionRepository(), provider, fakeEmbedder{}, nil, nil, nopLogger{})

	parsed := blocks.FromPlainText("Opening thoughts.\n\nThe middle section.")
	content, err := parsed.Serialize()
	require.NoError(t, err)

	userId := uuid.New()
	doc := &entity.Document{
		Id:           uuid.New(),
		UserId:       userId,
		Title:        "Incident response runbook",
		Content:      content,
		DocumentType: constant.DocumentTypeBestPractices,
		SourceType:   constant.SourceTypeUpload,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, uow.documents.Create(context.Background(), doc))

	var ids []string
	for _, b := range parsed.Blocks {
		ids = append(ids, b.Id)
	}

	return &documentFixture{svc: svc, uow: uow, provider: provider, userId: userId, doc: doc, blockIds: ids}
}

func TestSuggestEditAndAccept(t *testing.T) {
	f := newDocumentFixture(t)
	ctx := context.Background()

	suggestion, err := f.svc.SuggestEdit(ctx, f.userId, &dto.SuggestEditRequest{
		DocumentId: f.doc.Id,
		BlockId:    f.blockIds[1],
		Operation:  "improve",
	})
	require.NoError(t, err)
	assert.Equal(t, "The middle section.", suggestion.OriginalText)
	assert.Equal(t, "A much sharper paragraph.", suggestion.ProposedText)

	res, err := f.svc.AcceptSuggestion(ctx, f.userId, &dto.ResolveSuggestionRequest{
		DocumentId:   f.doc.Id,
		SuggestionId: suggestion.SuggestionId,
	})
	require.NoError(t, err)
	assert.True(t, res.Applied)

	stored, err := f.uow.documents.FindOne(ctx)
	require.NoError(t, err)
	parsed, err := blocks.Parse(stored.Content)
	require.NoError(t, err)

	first, _ := parsed.Text(f.blockIds[0])
	second, _ := parsed.Text(f.blockIds[1])
	assert.Equal(t, "Opening thoughts.", first)
	assert.Equal(t, "A much sharper paragraph.", second)

	// Accepting twice must fail: the suggestion is consumed
	_, err = f.svc.AcceptSuggestion(ctx, f.userId, &dto.ResolveSuggestionRequest{
		DocumentId:   f.doc.Id,
		SuggestionId: suggestion.SuggestionId,
	})
	assert.True(t, fault.IsValidation(err))
}

func TestAcceptSupersededSuggestion(t *testing.T) {
	f := newDocumentFixture(t)
	ctx := context.Background()

	first, err := f.svc.SuggestEdit(ctx, f.userId, &dto.SuggestEditRequest{
		DocumentId: f.doc.Id,
		BlockId:    f.blockIds[0],
		Operation:  "improve",
	})
	require.NoError(t, err)

	// A second request replaces the pending suggestion
	second, err := f.svc.SuggestEdit(ctx, f.userId, &dto.SuggestEditRequest{
		DocumentId: f.doc.Id,
		BlockId:    f.blockIds[1],
		Operation:  "simplify",
	})
	require.NoError(t, err)
	require.NotEqual(t, first.SuggestionId, second.SuggestionId)

	_, err = f.svc.AcceptSuggestion(ctx, f.userId, &dto.ResolveSuggestionRequest{
		DocumentId:   f.doc.Id,
		SuggestionId: first.SuggestionId,
	})
	assert.True(t, fault.IsStaleReference(err))
	assert.Equal(t, 0, f.uow.documents.updates)
}

func TestSuggestEditMissingBlock(t *testing.T) {
	f := newDocumentFixture(t)

	_, err := f.svc.SuggestEdit(context.Background(), f.userId, &dto.SuggestEditRequest{
		DocumentId: f.doc.Id,
		BlockId:    "blk_gone",
		Operation:  "improve",
	})
	assert.True(t, fault.IsStaleReference(err))
}

func TestAcceptAfterBlockRemoved(t *testing.T) {
	f := newDocumentFixture(t)
	ctx := context.Background()

	suggestion, err := f.svc.SuggestEdit(ctx, f.userId, &dto.SuggestEditRequest{
		DocumentId: f.doc.Id,
		BlockId:    f.blockIds[1],
		Operation:  "expand",
	})
	require.NoError(t, err)

	// Simulate a concurrent edit that removed the target block
	rewritten, err := blocks.FromPlainText("Only one paragraph now.").Serialize()
	require.NoError(t, err)
	f.uow.documents.records[f.doc.Id].Content = rewritten
	f.uow.documents.updates = 0

	_, err = f.svc.AcceptSuggestion(ctx, f.userId, &dto.ResolveSuggestionRequest{
		DocumentId:   f.doc.Id,
		SuggestionId: suggestion.SuggestionId,
	})
	assert.True(t, fault.IsStaleReference(err))
	assert.Equal(t, 0, f.uow.documents.updates)

	// The stale suggestion was dropped with the failure; rejecting it now
	// is a harmless no-op
	res, err := f.svc.RejectSuggestion(ctx, f.userId, &dto.ResolveSuggestionRequest{
		DocumentId:   f.doc.Id,
		SuggestionId: suggestion.SuggestionId,
	})
	require.NoError(t, err)
	assert.False(t, res.Applied)
}

func TestRejectSuggestionLeavesDocument(t *testing.T) {
	f := newDocumentFixture(t)
	ctx := context.Background()

	suggestion, err := f.svc.SuggestEdit(ctx, f.userId, &dto.SuggestEditRequest{
		DocumentId: f.doc.Id,
		BlockId:    f.blockIds[0],
		Operation:  "formalize",
	})
	require.NoError(t, err)

	res, err := f.svc.RejectSuggestion(ctx, f.userId, &dto.ResolveSuggestionRequest{
		DocumentId:   f.doc.Id,
		SuggestionId: suggestion.SuggestionId,
	})
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, 0, f.uow.documents.updates)

	// Rejecting again with nothing pending is a no-op, not an error
	again, err := f.svc.RejectSuggestion(ctx, f.userId, &dto.ResolveSuggestionRequest{
		DocumentId:   f.doc.Id,
		SuggestionId: suggestion.SuggestionId,
	})
	require.NoError(t, err)
	assert.False(t, again.Applied)
	assert.Equal(t, 0, f.uow.documents.updates)
}

func TestShowRespectsVisibility(t *testing.T) {
	f := newDocumentFixture(t)
	ctx := context.Background()
	stranger := uuid.New()

	_, err := f.svc.Show(ctx, stranger, f.doc.Id)
	assert.True(t, fault.IsValidation(err))

	require.NoError(t, f.svc.Share(ctx, f.userId, &dto.ShareDocumentRequest{Id: f.doc.Id, IsShared: true}))

	res, err := f.svc.Show(ctx, stranger, f.doc.Id)
	require.NoError(t, err)
	assert.False(t, res.IsOwner)
	assert.True(t, res.IsShared)
}

func TestSemanticSearchLiteralFirst(t *testing.T) {
	f := newDocumentFixture(t)

	res, err := f.svc.SemanticSearch(context.Background(), f.userId, "runbook")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "literal", res[0].SearchType)
	assert.Nil(t, res[0].RelevanceScore)
}

func TestSemanticSearchFallsBackToVectors(t *testing.T) {
	f := newDocumentFixture(t)

	// Two chunks of the same document; the best score must win
	f.uow.embeds.hits = []*contract.ScoredDocumentEmbedding{
		{Embedding: &entity.DocumentEmbedding{DocumentId: f.doc.Id, ChunkIndex: 1}, Similarity: 0.62},
		{Embedding: &entity.DocumentEmbedding{DocumentId: f.doc.Id, ChunkIndex: 0}, Similarity: 0.81},
	}

	res, err := f.svc.SemanticSearch(context.Background(), f.userId, "quarterly retrospectives")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "semantic", res[0].SearchType)
	require.NotNil(t, res[0].RelevanceScore)
	assert.InDelta(t, 0.81, *res[0].RelevanceScore, 1e-9)
}

func TestSemanticSearchRejectsEmptyQuery(t *testing.T) {
	f := newDocumentFixture(t)

	_, err := f.svc.SemanticSearch(context.Background(), f.userId, "")
	assert.True(t, fault.IsValidation(err))
}
