package llm

import (
	"context"
	"io"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// SynthesisSource is one source document handed to the synthesis job.
type SynthesisSource struct {
	Id      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// SynthesisRequest carries everything the synthesis backend needs: the full
// source set, which of those sources are new since the last run, optional
// existing playbook content and freeform instructions.
type SynthesisRequest struct {
	Kind            string            `json:"kind"`
	Title           string            `json:"title,omitempty"`
	Sources         []SynthesisSource `json:"sources"`
	NewSourceIds    []string          `json:"new_source_ids,omitempty"`
	ExistingContent string            `json:"existing_content,omitempty"`
	Instructions    string            `json:"instructions,omitempty"`
}

// Provider defines the contract for the AI completion backend.
// Requests are stateless: the full transcript or source set is supplied on
// every call, the backend retains no history.
type Provider interface {
	// Chat sends a chat history to the model and returns the full response.
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// SuggestEdit rewrites the selected text according to the operation
	// (improve, fix-grammar, formalize, simplify, expand).
	SuggestEdit(ctx context.Context, selected, operation string, options ...Option) (string, error)

	// StreamChat opens a token stream for the given history. The returned
	// body speaks the simple `data:` dialect and must be closed by the caller.
	StreamChat(ctx context.Context, history []Message, options ...Option) (io.ReadCloser, error)

	// StreamSynthesis opens a progress stream for a synthesis job. The
	// returned body speaks the typed `event:`/`data:` dialect and must be
	// closed by the caller.
	StreamSynthesis(ctx context.Context, req SynthesisRequest, options ...Option) (io.ReadCloser, error)
}
