package interview

import (
	"fmt"
	"strings"
	"sync"

	"ai-playbook-be/pkg/fault"
	"ai-playbook-be/pkg/llm"

	"github.com/google/uuid"
)

// State is a named interview phase. Transitions are only legal when listed in
// the transition table below; everything else is structurally rejected.
type State string

const (
	StateCollectingContext     State = "collecting-context"
	StateAwaitingFirstResponse State = "awaiting-first-response"
	StateConversing            State = "conversing"
	StateFinalizing            State = "finalizing"
	StateCompleted             State = "completed"
)

// transitions is the legal-move table. Finalizing may fall back to
// conversing so a failed document generation can be retried.
var transitions = map[State][]State{
	StateCollectingContext:     {StateAwaitingFirstResponse},
	StateAwaitingFirstResponse: {StateConversing},
	StateConversing:            {StateFinalizing},
	StateFinalizing:            {StateConversing, StateCompleted},
	StateCompleted:             {},
}

// ActiveStates lists every state an unfinished session can be in.
func ActiveStates() []State {
	return []State{
		StateCollectingContext,
		StateAwaitingFirstResponse,
		StateConversing,
		StateFinalizing,
	}
}

// Config tunes the guards on session operations.
type Config struct {
	// MinDescriptionLen rejects under-specified interviews that would
	// produce a low-quality first question.
	MinDescriptionLen int

	// MinTurns is the number of persisted turns (user + assistant) required
	// before the interview may be finalized.
	MinTurns int
}

func DefaultConfig() Config {
	return Config{
		MinDescriptionLen: 40,
		MinTurns:          2,
	}
}

// Context is what the expert fills in before the interview starts.
type Context struct {
	DocumentType string // "case-study" | "best-practices"
	Title        string
	FunctionArea string
	Description  string
}

// Turn is one message of the transcript. Sequence numbers are strictly
// increasing and gapless from 1.
type Turn struct {
	Role     string
	Content  string
	Sequence int
}

// Session drives one interview. It owns the in-memory transcript and the
// phase state machine; persistence is the caller's concern. All methods are
// safe for concurrent use, and at most one streaming request may be in
// flight at a time.
type Session struct {
	Id      uuid.UUID
	Context Context

	mu        sync.Mutex
	state     State
	turns     []Turn
	persisted int // turns[:persisted] are committed to the store
	inFlight  bool
	cfg       Config
}

// New validates the interview context and creates a session in
// collecting-context state.
func New(id uuid.UUID, ctx Context, cfg Config) (*Session, error) {
	if len(strings.TrimSpace(ctx.Description)) < cfg.MinDescriptionLen {
		return nil, fault.Validation("description must be at least %d characters", cfg.MinDescriptionLen)
	}
	return &Session{
		Id:      id,
		Context: ctx,
		state:   StateCollectingContext,
		cfg:     cfg,
	}, nil
}

// Resume rebuilds a session from persisted turns and re-enters conversing
// directly, regardless of how the session was originally entered.
func Resume(id uuid.UUID, ctx Context, turns []Turn, cfg Config) (*Session, error) {
	for i, turn := range turns {
		if turn.Sequence != i+1 {
			return nil, fmt.Errorf("turn sequence corrupted: position %d has sequence %d", i, turn.Sequence)
		}
	}
	return &Session{
		Id:        id,
		Context:   ctx,
		state:     StateConversing,
		turns:     turns,
		persisted: len(turns),
		cfg:       cfg,
	}, nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transition moves the session to a new state, rejecting moves not listed in
// the transition table.
func (s *Session) Transition(to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(to)
}

func (s *Session) transitionLocked(to State) error {
	for _, allowed := range transitions[s.state] {
		if allowed == to {
			s.state = to
			return nil
		}
	}
	return fault.Validation("illegal session transition %s -> %s", s.state, to)
}

// BeginStream claims the single streaming slot. A second request while one
// is streaming would interleave partial assistant turns and corrupt
// sequence ordering, so it is rejected outright.
func (s *Session) BeginStream() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return fault.Validation("a response is already streaming for this session")
	}
	s.inFlight = true
	return nil
}

func (s *Session) EndStream() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
}

// AppendUser adds the expert's message to the in-memory transcript. It is
// not persisted until the paired assistant turn arrives.
func (s *Session) AppendUser(text string) (Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConversing {
		return Turn{}, fault.Validation("cannot send a message while session is %s", s.state)
	}
	if strings.TrimSpace(text) == "" {
		return Turn{}, fault.Validation("message must not be empty")
	}
	return s.appendLocked(llm.RoleUser, text), nil
}

// AppendAssistant adds a fully received assistant response.
func (s *Session) AppendAssistant(text string) Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(llm.RoleAssistant, text)
}

func (s *Session) appendLocked(role, content string) Turn {
	turn := Turn{
		Role:     role,
		Content:  content,
		Sequence: len(s.turns) + 1,
	}
	s.turns = append(s.turns, turn)
	return turn
}

// Uncommitted returns the turns appended since the last Commit, in order.
func (s *Session) Uncommitted() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns)-s.persisted)
	copy(out, s.turns[s.persisted:])
	return out
}

// Commit marks every appended turn as persisted.
func (s *Session) Commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persisted = len(s.turns)
}

// Rollback drops unpersisted turns, restoring the transcript to its state
// before the failed call.
func (s *Session) Rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = s.turns[:s.persisted]
}

// Turns returns a copy of the full transcript.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// TurnCount returns the number of turns in the transcript.
func (s *Session) TurnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// History builds the stateless request context for the AI layer: the
// synthetic seed message describing the interview followed by the entire
// transcript.
func (s *Session) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]llm.Message, 0, len(s.turns)+1)
	history = append(history, llm.Message{
		Role:    llm.RoleUser,
		Content: s.seedMessageLocked(),
	})
	for _, turn := range s.turns {
		history = append(history, llm.Message{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}
	return history
}

func (s *Session) seedMessageLocked() string {
	var sb strings.Builder
	sb.WriteString("I want to capture my expertise as a ")
	if s.Context.DocumentType == "case-study" {
		sb.WriteString("case study")
	} else {
		sb.WriteString("best practices document")
	}
	sb.WriteString(".\nTopic: ")
	sb.WriteString(s.Context.Title)
	if s.Context.FunctionArea != "" {
		sb.WriteString("\nFunction area: ")
		sb.WriteString(s.Context.FunctionArea)
	}
	sb.WriteString("\nBackground: ")
	sb.WriteString(s.Context.Description)
	sb.WriteString("\nPlease interview me one question at a time, starting with your first question.")
	return sb.String()
}

// CanFinalize checks the minimum-turn guard. Generating a document from an
// interview with no content is rejected before any network call.
func (s *Session) CanFinalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConversing {
		return fault.Validation("cannot finalize while session is %s", s.state)
	}
	if len(s.turns) < s.cfg.MinTurns {
		return fault.Validation("at least %d turns are required before finalizing, have %d", s.cfg.MinTurns, len(s.turns))
	}
	return nil
}
