package interview

import (
	"strings"
	"testing"

	"ai-playbook-be/pkg/fault"
	"ai-playbook-be/pkg/llm"

	"github.com/google/uuid"
)

func testContext() Context {
	return Context{
		DocumentType: "case-study",
		Title:        "Recovering a failed data-center migration",
		FunctionArea: "Infrastructure",
		Description:  "How we recovered a failed migration of 400 services across two regions with zero customer-visible downtime.",
	}
}

func mustNew(t *testing.T) *Session {
	t.Helper()
	s, err := New(uuid.New(), testContext(), DefaultConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestNewRejectsShortDescription(t *testing.T) {
	ctx := testContext()
	ctx.Description = "too short"

	_, err := New(uuid.New(), ctx, DefaultConfig())
	if err == nil {
		t.Fatal("New() should reject a short description")
	}
	if !fault.IsValidation(err) {
		t.Errorf("error kind = %v, want validation", fault.KindOf(err))
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
		ok   bool
	}{
		{"start flow", StateCollectingContext, StateAwaitingFirstResponse, true},
		{"first response arrives", StateAwaitingFirstResponse, StateConversing, true},
		{"finalize", StateConversing, StateFinalizing, true},
		{"finalize succeeds", StateFinalizing, StateCompleted, true},
		{"finalize fails, retryable", StateFinalizing, StateConversing, true},
		{"skip ahead", StateCollectingContext, StateConversing, false},
		{"backwards", StateConversing, StateCollectingContext, false},
		{"completed is terminal", StateCompleted, StateConversing, false},
		{"self loop", StateConversing, StateConversing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustNew(t)
			s.state = tt.from

			err := s.Transition(tt.to)
			if tt.ok && err != nil {
				t.Errorf("Transition(%s -> %s) error = %v", tt.from, tt.to, err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatalf("Transition(%s -> %s) should fail", tt.from, tt.to)
				}
				if !fault.IsValidation(err) {
					t.Errorf("error kind = %v, want validation", fault.KindOf(err))
				}
				if s.State() != tt.from {
					t.Errorf("state changed to %s after rejected transition", s.State())
				}
			}
		})
	}
}

func TestSequenceNumbersAreGapless(t *testing.T) {
	s := mustNew(t)
	s.state = StateConversing

	s.AppendAssistant("What was the first sign of trouble?")
	if _, err := s.AppendUser("The replication lag alarms."); err != nil {
		t.Fatalf("AppendUser() error = %v", err)
	}
	s.AppendAssistant("How did you confirm it?")

	turns := s.Turns()
	for i, turn := range turns {
		if turn.Sequence != i+1 {
			t.Errorf("turn %d sequence = %d, want %d", i, turn.Sequence, i+1)
		}
	}
}

func TestRollbackRestoresTranscript(t *testing.T) {
	s := mustNew(t)
	s.state = StateConversing

	s.AppendAssistant("First question?")
	s.Commit()

	if _, err := s.AppendUser("an answer"); err != nil {
		t.Fatalf("AppendUser() error = %v", err)
	}
	s.Rollback()

	if got := s.TurnCount(); got != 1 {
		t.Fatalf("after rollback TurnCount() = %d, want 1", got)
	}

	// The next user turn reuses the freed sequence number, keeping the
	// transcript gapless.
	turn, err := s.AppendUser("a retried answer")
	if err != nil {
		t.Fatalf("AppendUser() error = %v", err)
	}
	if turn.Sequence != 2 {
		t.Errorf("retried turn sequence = %d, want 2", turn.Sequence)
	}
}

func TestSingleInFlightStream(t *testing.T) {
	s := mustNew(t)
	s.state = StateConversing

	if err := s.BeginStream(); err != nil {
		t.Fatalf("BeginStream() error = %v", err)
	}
	if err := s.BeginStream(); err == nil {
		t.Fatal("second BeginStream() should fail while one is in flight")
	}

	s.EndStream()
	if err := s.BeginStream(); err != nil {
		t.Errorf("BeginStream() after EndStream() error = %v", err)
	}
}

func TestAppendUserGuards(t *testing.T) {
	s := mustNew(t)

	if _, err := s.AppendUser("hello"); err == nil {
		t.Error("AppendUser() should fail in collecting-context")
	}

	s.state = StateConversing
	if _, err := s.AppendUser("   "); err == nil {
		t.Error("AppendUser() should reject blank messages")
	}
}

func TestCanFinalizeRequiresTurns(t *testing.T) {
	s := mustNew(t)
	s.state = StateConversing

	if err := s.CanFinalize(); err == nil {
		t.Fatal("CanFinalize() should fail with an empty transcript")
	}

	s.AppendAssistant("Q1")
	if _, err := s.AppendUser("A1"); err != nil {
		t.Fatalf("AppendUser() error = %v", err)
	}
	if err := s.CanFinalize(); err != nil {
		t.Errorf("CanFinalize() with %d turns error = %v", s.TurnCount(), err)
	}
}

func TestHistoryIncludesSeedAndTranscript(t *testing.T) {
	s := mustNew(t)
	s.state = StateConversing
	s.AppendAssistant("What happened first?")
	if _, err := s.AppendUser("Replication lag spiked."); err != nil {
		t.Fatalf("AppendUser() error = %v", err)
	}

	history := s.History()
	if len(history) != 3 {
		t.Fatalf("History() length = %d, want 3", len(history))
	}
	if history[0].Role != llm.RoleUser {
		t.Errorf("seed role = %q, want user", history[0].Role)
	}
	if !strings.Contains(history[0].Content, testContext().Title) {
		t.Errorf("seed message missing title:\n%s", history[0].Content)
	}
	if history[1].Role != llm.RoleAssistant || history[2].Role != llm.RoleUser {
		t.Errorf("transcript roles = %q, %q", history[1].Role, history[2].Role)
	}
}

func TestResumeValidatesOrdering(t *testing.T) {
	turns := []Turn{
		{Role: llm.RoleAssistant, Content: "Q1", Sequence: 1},
		{Role: llm.RoleUser, Content: "A1", Sequence: 3},
	}
	if _, err := Resume(uuid.New(), testContext(), turns, DefaultConfig()); err == nil {
		t.Fatal("Resume() should reject a gapped transcript")
	}

	turns[1].Sequence = 2
	s, err := Resume(uuid.New(), testContext(), turns, DefaultConfig())
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if s.State() != StateConversing {
		t.Errorf("resumed state = %s, want conversing", s.State())
	}
	if got := len(s.Uncommitted()); got != 0 {
		t.Errorf("resumed session has %d uncommitted turns", got)
	}
}
