package memory

import (
	"time"

	"ai-playbook-be/pkg/interview"

	"github.com/patrickmn/go-cache"
)

// SessionRepository holds live interview sessions. Sessions idle for an hour
// are evicted; they can be rebuilt from persisted turns on the next request.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *interview.Session) {
	r.cache.Set(session.Id.String(), session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*interview.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*interview.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
