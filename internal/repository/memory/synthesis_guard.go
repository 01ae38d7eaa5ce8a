package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SynthesisGuard holds the single-writer slot for playbooks with a synthesis
// run in flight. The slot lives in memory, not on the record, so a crashed
// run frees itself: entries expire after 15 minutes, well past any stream.
type SynthesisGuard struct {
	cache *cache.Cache
}

func NewSynthesisGuard() *SynthesisGuard {
	return &SynthesisGuard{
		cache: cache.New(15*time.Minute, 5*time.Minute),
	}
}

// Acquire claims the slot for a playbook. It returns false when a run is
// already in flight.
func (g *SynthesisGuard) Acquire(playbookId uuid.UUID) bool {
	return g.cache.Add(playbookId.String(), struct{}{}, cache.DefaultExpiration) == nil
}

func (g *SynthesisGuard) Release(playbookId uuid.UUID) {
	g.cache.Delete(playbookId.String())
}
