// Package llm wraps the external completion service. The service is a black
// box reached over an OpenAI-compatible chat-completions API; everything in
// this package is transport plumbing with a hard timeout. Callers own the
// fallback behavior: a failed or slow completion must degrade to a safe
// default, never retry indefinitely.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Chat message roles on the completion wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn handed to (or returned by) the completion service.
type Message struct {
	Role       string
	Content    string
	ToolCallID string     // set on RoleTool messages answering a tool call
	ToolCalls  []ToolCall // set on assistant messages requesting tool calls
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON arguments
}

// ToolSpec describes one callable function offered to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON-schema object
}

// Request is a single completion call.
type Request struct {
	System   string
	Messages []Message
	Tools    []ToolSpec
}

// Response is the model's reply: final text, or one or more tool calls.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Completer is the completion-service contract consumed by the services
// layer. Implementations must honor ctx cancellation.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	http  *resty.Client
	model string
}

// NewClient builds a Client for baseURL (e.g. "https://api.openai.com/v1" or
// a local gateway). The timeout bounds every completion call; it is the
// dominant latency source of a chat turn.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("User-Agent", "aura-assistant/1.0").
		SetTimeout(timeout)
	if apiKey != "" {
		httpClient.SetAuthToken(apiKey)
	}
	return &Client{http: httpClient, model: model}
}

// ---- wire types (OpenAI chat completions) ----

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
}

type wireToolSpec struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description,omitempty"`
		Parameters  map[string]any `json:"parameters,omitempty"`
	} `json:"function"`
}

type wireRequest struct {
	Model    string         `json:"model"`
	Messages []wireMessage  `json:"messages"`
	Tools    []wireToolSpec `json:"tools,omitempty"`
}

type wireResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends one chat-completions request and decodes the first choice.
func (c *Client) Complete(ctx context.Context, req Request) (Response, error) {
	body := wireRequest{Model: c.model}
	if req.System != "" {
		body.Messages = append(body.Messages, wireMessage{Role: RoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		wm := wireMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:       tc.ID,
				Type:     "function",
				Function: wireFunction{Name: tc.Name, Arguments: tc.Arguments},
			})
		}
		body.Messages = append(body.Messages, wm)
	}
	for _, t := range req.Tools {
		var ws wireToolSpec
		ws.Type = "function"
		ws.Function.Name = t.Name
		ws.Function.Description = t.Description
		ws.Function.Parameters = t.Parameters
		body.Tools = append(body.Tools, ws)
	}

	var decoded wireResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&decoded).
		Post("/chat/completions")
	if err != nil {
		return Response{}, fmt.Errorf("completion request failed: %w", err)
	}
	if resp.IsError() {
		msg := resp.String()
		if decoded.Error != nil {
			msg = decoded.Error.Message
		}
		return Response{}, fmt.Errorf("completion error (%d): %s", resp.StatusCode(), msg)
	}
	if len(decoded.Choices) == 0 {
		return Response{}, fmt.Errorf("completion returned no choices")
	}

	choice := decoded.Choices[0].Message
	out := Response{Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

// MarshalArgs is a helper for tests and tool plumbing: it renders v as the
// compact JSON the arguments field carries.
func MarshalArgs(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
