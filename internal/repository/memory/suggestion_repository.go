package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// PendingSuggestion is an AI edit awaiting accept or reject. At most one
// exists per (user, document); requesting a new one replaces it.
type PendingSuggestion struct {
	Id           uuid.UUID
	DocumentId   uuid.UUID
	BlockId      string
	Operation    string
	OriginalText string
	ProposedText string
	CreatedAt    time.Time
}

// SuggestionRepository keeps pending suggestions in memory. Stale entries
// expire after 30 minutes so abandoned suggestions do not pile up.
type SuggestionRepository struct {
	cache *cache.Cache
}

func NewSuggestionRepository() *SuggestionRepository {
	c := cache.New(30*time.Minute, 10*time.Minute)
	return &SuggestionRepository{
		cache: c,
	}
}

func suggestionKey(userId, documentId uuid.UUID) string {
	return fmt.Sprintf("%s:%s", userId, documentId)
}

func (r *SuggestionRepository) Save(userId uuid.UUID, s *PendingSuggestion) {
	r.cache.Set(suggestionKey(userId, s.DocumentId), s, cache.DefaultExpiration)
}

func (r *SuggestionRepository) Get(userId, documentId uuid.UUID) (*PendingSuggestion, bool) {
	if x, found := r.cache.Get(suggestionKey(userId, documentId)); found {
		return x.(*PendingSuggestion), true
	}
	return nil, false
}

func (r *SuggestionRepository) Delete(userId, documentId uuid.UUID) {
	r.cache.Delete(suggestionKey(userId, documentId))
}
