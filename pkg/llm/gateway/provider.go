package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-playbook-be/pkg/fault"
	"ai-playbook-be/pkg/llm"
)

// GatewayProvider talks to the internal AI gateway over HTTP. One-shot calls
// return plain JSON; streaming calls return the raw response body, which
// speaks the simple dialect for chat and the typed-event dialect for
// synthesis jobs.
type GatewayProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

// Ensure GatewayProvider implements Provider
var _ llm.Provider = &GatewayProvider{}

func NewGatewayProvider(baseURL, modelName string) *GatewayProvider {
	return &GatewayProvider{
		BaseURL:   baseURL,
		ModelName: modelName,
		Client: &http.Client{
			// Synthesis jobs run for minutes; the stream itself keeps flowing
			Timeout: 10 * time.Minute,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *chatOptions  `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Content string `json:"content"`
}

type editRequest struct {
	Model     string `json:"model"`
	Operation string `json:"operation"`
	Text      string `json:"text"`
}

type editResponse struct {
	Text string `json:"text"`
}

// --- Interface Implementation ---

func (g *GatewayProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	payload := g.buildChatRequest(history, false, opts...)

	var res chatResponse
	if err := g.postJSON(ctx, "/v1/chat", payload, &res); err != nil {
		return "", err
	}
	return res.Content, nil
}

func (g *GatewayProvider) SuggestEdit(ctx context.Context, selected, operation string, opts ...llm.Option) (string, error) {
	options := applyOptions(opts)
	model := g.ModelName
	if options.Model != "" {
		model = options.Model
	}

	payload := editRequest{
		Model:     model,
		Operation: operation,
		Text:      selected,
	}

	var res editResponse
	if err := g.postJSON(ctx, "/v1/edit", payload, &res); err != nil {
		return "", err
	}
	return res.Text, nil
}

func (g *GatewayProvider) StreamChat(ctx context.Context, history []llm.Message, opts ...llm.Option) (io.ReadCloser, error) {
	payload := g.buildChatRequest(history, true, opts...)
	return g.openStream(ctx, "/v1/chat/stream", payload)
}

func (g *GatewayProvider) StreamSynthesis(ctx context.Context, req llm.SynthesisRequest, opts ...llm.Option) (io.ReadCloser, error) {
	return g.openStream(ctx, "/v1/synthesis/stream", req)
}

func (g *GatewayProvider) buildChatRequest(history []llm.Message, stream bool, opts ...llm.Option) chatRequest {
	options := applyOptions(opts)

	messages := make([]chatMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = llm.RoleAssistant
		}
		messages[i] = chatMessage{
			Role:    role,
			Content: msg.Content,
		}
	}

	model := g.ModelName
	if options.Model != "" {
		model = options.Model
	}

	req := chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   stream,
		Options: &chatOptions{
			Temperature: options.Temperature,
		},
	}
	if options.MaxTokens > 0 {
		req.Options.MaxTokens = options.MaxTokens
	}
	return req
}

func applyOptions(opts []llm.Option) *llm.Options {
	options := &llm.Options{
		Temperature: 0.7, // Default
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

func (g *GatewayProvider) postJSON(ctx context.Context, path string, payload interface{}, out interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.BaseURL+path, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return fault.Wrap(fault.KindUpstream, err, "gateway request failed")
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fault.Upstream("gateway error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func (g *GatewayProvider) openStream(ctx context.Context, path string, payload interface{}) (io.ReadCloser, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.BaseURL+path, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fault.Wrap(fault.KindUpstream, err, "gateway stream request failed")
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fault.Upstream("gateway error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	return resp.Body, nil
}
