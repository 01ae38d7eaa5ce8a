package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"ai-playbook-be/internal/entity"
	"ai-playbook-be/internal/repository/contract"
	"ai-playbook-be/internal/repository/specification"
	"ai-playbook-be/internal/repository/unitofwork"
	"ai-playbook-be/pkg/llm"

	"github.com/google/uuid"
)

// The fakes interpret the concrete specification types the services actually
// use, so visibility and ownership filtering behave like the real queries.

type fakeUow struct {
	sessions  *fakeSessionRepo
	turns     *fakeTurnRepo
	documents *fakeDocumentRepo
	embeds    *fakeEmbeddingRepo
	playbooks *fakePlaybookRepo

	beginErr  error
	commitErr error
	commits   int
	rollbacks int
}

func newFakeUow() *fakeUow {
	return &fakeUow{
		sessions:  &fakeSessionRepo{records: map[uuid.UUID]*entity.InterviewSession{}},
		turns:     &fakeTurnRepo{},
		documents: &fakeDocumentRepo{records: map[uuid.UUID]*entity.Document{}},
		embeds:    &fakeEmbeddingRepo{},
		playbooks: &fakePlaybookRepo{records: map[uuid.UUID]*entity.Playbook{}},
	}
}

func (u *fakeUow) Begin(ctx context.Context) error { return u.beginErr }
func (u *fakeUow) Commit() error {
	if u.commitErr != nil {
		return u.commitErr
	}
	u.commits++
	return nil
}
func (u *fakeUow) Rollback() error { u.rollbacks++; return nil }

func (u *fakeUow) InterviewSessionRepository() contract.InterviewSessionRepository { return u.sessions }
func (u *fakeUow) InterviewTurnRepository() contract.InterviewTurnRepository      { return u.turns }
func (u *fakeUow) DocumentRepository() contract.DocumentRepository                { return u.documents }
func (u *fakeUow) DocumentEmbeddingRepository() contract.DocumentEmbeddingRepository {
	return u.embeds
}
func (u *fakeUow) PlaybookRepository() contract.PlaybookRepository { return u.playbooks }

type fakeFactory struct {
	uow *fakeUow
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

func matchSpecs(specs []specification.Specification, id, userId uuid.UUID, isShared bool) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if s.ID != id {
				return false
			}
		case specification.OwnedByUser:
			if s.UserID != userId {
				return false
			}
		case specification.VisibleToUser:
			if s.UserID != userId && !isShared {
				return false
			}
		}
	}
	return true
}

type fakeSessionRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*entity.InterviewSession
	updates int
}

func (r *fakeSessionRepo) Create(ctx context.Context, s *entity.InterviewSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.records[s.Id] = &cp
	return nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, s *entity.InterviewSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.records[s.Id] = &cp
	r.updates++
	return nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
	return nil
}

func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if matchSpecs(specs, rec.Id, rec.UserId, false) {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.InterviewSession
	for _, rec := range r.records {
		if !matchSpecs(specs, rec.Id, rec.UserId, false) || !statusMatches(specs, rec.Status) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func statusMatches(specs []specification.Specification, status string) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByStatus:
			if s.Status != status {
				return false
			}
		case specification.ByStatusIn:
			found := false
			for _, candidate := range s.Statuses {
				if candidate == status {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.records)), nil
}

type fakeTurnRepo struct {
	mu            sync.Mutex
	turns         []*entity.InterviewTurn
	failNextWrite error
}

func (r *fakeTurnRepo) Create(ctx context.Context, t *entity.InterviewTurn) error {
	return r.CreateBulk(ctx, []*entity.InterviewTurn{t})
}

func (r *fakeTurnRepo) CreateBulk(ctx context.Context, ts []*entity.InterviewTurn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNextWrite != nil {
		err := r.failNextWrite
		r.failNextWrite = nil
		return err
	}
	for _, t := range ts {
		cp := *t
		r.turns = append(r.turns, &cp)
	}
	return nil
}

func (r *fakeTurnRepo) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*entity.InterviewTurn
	for _, t := range r.turns {
		if t.SessionId != sessionId {
			kept = append(kept, t)
		}
	}
	r.turns = kept
	return nil
}

func (r *fakeTurnRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.InterviewTurn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.InterviewTurn, len(r.turns))
	copy(out, r.turns)
	return out, nil
}

func (r *fakeTurnRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.turns)), nil
}

type fakeDocumentRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*entity.Document
	updates int
}

func (r *fakeDocumentRepo) Create(ctx context.Context, d *entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.records[d.Id] = &cp
	return nil
}

func (r *fakeDocumentRepo) Update(ctx context.Context, d *entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.records[d.Id] = &cp
	r.updates++
	return nil
}

func (r *fakeDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
	return nil
}

func documentMatches(specs []specification.Specification, rec *entity.Document) bool {
	if !matchSpecs(specs, rec.Id, rec.UserId, rec.IsShared) {
		return false
	}
	for _, spec := range specs {
		if s, ok := spec.(specification.DocumentSearchQuery); ok {
			q := strings.ToLower(s.Query)
			if !strings.Contains(strings.ToLower(rec.Title), q) &&
				!strings.Contains(strings.ToLower(rec.Summary), q) {
				return false
			}
		}
	}
	return true
}

func (r *fakeDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if documentMatches(specs, rec) {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Document
	for _, rec := range r.records {
		if documentMatches(specs, rec) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.records)), nil
}

type fakeEmbeddingRepo struct {
	mu      sync.Mutex
	deleted []uuid.UUID
	hits    []*contract.ScoredDocumentEmbedding
}

func (r *fakeEmbeddingRepo) CreateBulk(ctx context.Context, es []*entity.DocumentEmbedding) error {
	return nil
}

func (r *fakeEmbeddingRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, documentId)
	return nil
}

func (r *fakeEmbeddingRepo) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, threshold float64) ([]*contract.ScoredDocumentEmbedding, error) {
	return r.hits, nil
}

type fakePlaybookRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*entity.Playbook
	updates int
}

func (r *fakePlaybookRepo) Create(ctx context.Context, p *entity.Playbook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.records[p.Id] = &cp
	return nil
}

func (r *fakePlaybookRepo) Update(ctx context.Context, p *entity.Playbook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.records[p.Id] = &cp
	r.updates++
	return nil
}

func (r *fakePlaybookRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
	return nil
}

func (r *fakePlaybookRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Playbook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if matchSpecs(specs, rec.Id, rec.UserId, false) {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePlaybookRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Playbook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Playbook
	for _, rec := range r.records {
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakePlaybookRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.records)), nil
}

// fakeProvider scripts the AI backend. Chat and SuggestEdit return canned
// responses; the stream methods replay fixed stream bodies.
type fakeProvider struct {
	chatReply      string
	chatErr        error
	suggestReply   string
	suggestErr     error
	chatStream     string
	chatStreamErr  error
	synthesisBody  string
	synthesisErr   error
	lastSynthesis  llm.SynthesisRequest
	suggestedTexts []string
}

func (p *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return p.chatReply, p.chatErr
}

func (p *fakeProvider) SuggestEdit(ctx context.Context, selected, operation string, options ...llm.Option) (string, error) {
	p.suggestedTexts = append(p.suggestedTexts, selected)
	return p.suggestReply, p.suggestErr
}

func (p *fakeProvider) StreamChat(ctx context.Context, history []llm.Message, options ...llm.Option) (io.ReadCloser, error) {
	if p.chatStreamErr != nil {
		return nil, p.chatStreamErr
	}
	return io.NopCloser(strings.NewReader(p.chatStream)), nil
}

func (p *fakeProvider) StreamSynthesis(ctx context.Context, req llm.SynthesisRequest, options ...llm.Option) (io.ReadCloser, error) {
	p.lastSynthesis = req
	if p.synthesisErr != nil {
		return nil, p.synthesisErr
	}
	return io.NopCloser(strings.NewReader(p.synthesisBody)), nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Generate(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

var errBoom = errors.New("boom")
