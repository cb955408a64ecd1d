package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/abelbrown/trendwire/internal/httpclient"
	"github.com/abelbrown/trendwire/internal/logging"
)

// OpenAIProvider speaks the Chat Completions API. The same wire format serves
// OpenAI-compatible endpoints such as xAI Grok and a local Ollama.
type OpenAIProvider struct {
	name     string
	apiKey   string
	model    string
	endpoint string
	keyless  bool
	client   *http.Client
}

// NewOpenAIProvider creates an OpenAI provider.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = "gpt-5.2"
	}
	return &OpenAIProvider{
		name:     "openai",
		apiKey:   apiKey,
		model:    model,
		endpoint: "https://api.openai.com/v1/chat/completions",
		client:   httpclient.LongTimeout(),
	}
}

// NewGrokProvider creates a provider for xAI's OpenAI-compatible API.
func NewGrokProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = "grok-4-1-fast-non-reasoning"
	}
	p := NewOpenAIProvider(apiKey, model)
	p.name = "grok"
	p.endpoint = "https://api.x.ai/v1/chat/completions"
	return p
}

// NewOllamaProvider creates a provider for a local Ollama server. It needs
// no key and is available whenever baseURL is set.
func NewOllamaProvider(baseURL, model string) *OpenAIProvider {
	if model == "" {
		model = "llama3.2"
	}
	p := NewOpenAIProvider("", model)
	p.name = "ollama"
	p.keyless = baseURL != ""
	p.endpoint = strings.TrimRight(baseURL, "/") + "/v1/chat/completions"
	return p
}

func (o *OpenAIProvider) Name() string { return o.name }

func (o *OpenAIProvider) Available() bool {
	return o.keyless || o.apiKey != ""
}

type openAIToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    *string          `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAITool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description,omitempty"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

type openAIRequest struct {
	Model               string          `json:"model"`
	MaxCompletionTokens int             `json:"max_completion_tokens"`
	Messages            []openAIMessage `json:"messages"`
	Tools               []openAITool    `json:"tools,omitempty"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
}

func strPtr(s string) *string { return &s }

func (o *OpenAIProvider) buildRequest(req Request) openAIRequest {
	body := openAIRequest{
		Model:               o.model,
		MaxCompletionTokens: maxTokensOr(req.MaxTokens, 2048),
	}
	if req.System != "" {
		body.Messages = append(body.Messages, openAIMessage{Role: "system", Content: strPtr(req.System)})
	}

	for _, turn := range req.Conversation {
		var texts []string
		var calls []openAIToolCall
		for _, b := range turn.Blocks {
			switch b.Type {
			case BlockText:
				texts = append(texts, b.Text)
			case BlockToolUse:
				call := openAIToolCall{ID: b.ID, Type: "function"}
				call.Function.Name = b.Name
				call.Function.Arguments = string(rawOrEmpty(b.Input))
				calls = append(calls, call)
			case BlockToolResult:
				// Each result is its own tool message.
				body.Messages = append(body.Messages, openAIMessage{Role: "tool", ToolCallID: b.ToolUseID, Content: strPtr(b.Content)})
			}
		}
		if len(texts) == 0 && len(calls) == 0 {
			continue
		}
		msg := openAIMessage{Role: string(turn.Role), ToolCalls: calls}
		if turn.Role == RoleAssistant {
			msg.Role = "assistant"
		}
		if len(texts) > 0 {
			msg.Content = strPtr(strings.Join(texts, "\n\n"))
		}
		body.Messages = append(body.Messages, msg)
	}

	for _, t := range req.Tools {
		tool := openAITool{Type: "function"}
		tool.Function.Name = t.Name
		tool.Function.Description = t.Description
		tool.Function.Parameters = t.Schema
		body.Tools = append(body.Tools, tool)
	}
	return body
}

func (o *OpenAIProvider) Complete(ctx context.Context, req Request) (Reply, error) {
	if !o.Available() {
		return Reply{}, fmt.Errorf("%s: %w", o.name, ErrProviderUnavailable)
	}

	logging.Debug("OpenAI API request starting", "provider", o.name, "model", o.model)

	headers := map[string]string{}
	if o.apiKey != "" {
		headers["Authorization"] = "Bearer " + o.apiKey
	}

	var resp openAIResponse
	if err := postJSON(ctx, o.client, o.name, o.endpoint, headers, o.buildRequest(req), &resp); err != nil {
		return Reply{}, err
	}
	if len(resp.Choices) == 0 {
		return Reply{}, fmt.Errorf("%s: response has no choices", o.name)
	}

	choice := resp.Choices[0]
	reply := Reply{Model: resp.Model}
	if choice.Message.Content != nil && *choice.Message.Content != "" {
		reply.Blocks = append(reply.Blocks, TextBlock(*choice.Message.Content))
	}
	for _, call := range choice.Message.ToolCalls {
		reply.Blocks = append(reply.Blocks, ToolUseBlock(call.ID, call.Function.Name, json.RawMessage(call.Function.Arguments)))
	}

	switch {
	case choice.FinishReason == "tool_calls" || len(choice.Message.ToolCalls) > 0:
		reply.StopReason = StopToolUse
	case choice.FinishReason == "length":
		reply.StopReason = StopMaxTokens
		logging.Warn("OpenAI response truncated due to max tokens", "provider", o.name, "model", resp.Model)
	default:
		reply.StopReason = StopEndTurn
	}
	return reply, nil
}
