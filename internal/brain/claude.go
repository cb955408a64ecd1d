package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/abelbrown/trendwire/internal/httpclient"
	"github.com/abelbrown/trendwire/internal/logging"
)

// ClaudeProvider talks to Anthropic's Messages API.
type ClaudeProvider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewClaudeProvider creates a Claude provider. An empty model selects the default.
func NewClaudeProvider(apiKey, model string) *ClaudeProvider {
	if model == "" {
		model = "claude-sonnet-4-5-20250929"
	}
	return &ClaudeProvider{
		apiKey:   apiKey,
		model:    model,
		endpoint: "https://api.anthropic.com/v1/messages",
		client:   httpclient.LongTimeout(),
	}
}

func (c *ClaudeProvider) Name() string    { return "claude" }
func (c *ClaudeProvider) Available() bool { return c.apiKey != "" }

type claudeContent struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type claudeMessage struct {
	Role    string          `json:"role"`
	Content []claudeContent `json:"content"`
}

type claudeTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system,omitempty"`
	Messages  []claudeMessage `json:"messages"`
	Tools     []claudeTool    `json:"tools,omitempty"`
}

type claudeResponse struct {
	Content    []claudeContent `json:"content"`
	Model      string          `json:"model"`
	StopReason string          `json:"stop_reason"`
}

func (c *ClaudeProvider) buildRequest(req Request) claudeRequest {
	body := claudeRequest{
		Model:     c.model,
		MaxTokens: maxTokensOr(req.MaxTokens, 2048),
		System:    req.System,
	}
	for _, turn := range req.Conversation {
		msg := claudeMessage{Role: string(turn.Role)}
		for _, b := range turn.Blocks {
			switch b.Type {
			case BlockText:
				msg.Content = append(msg.Content, claudeContent{Type: "text", Text: b.Text})
			case BlockToolUse:
				msg.Content = append(msg.Content, claudeContent{Type: "tool_use", ID: b.ID, Name: b.Name, Input: rawOrEmpty(b.Input)})
			case BlockToolResult:
				msg.Content = append(msg.Content, claudeContent{Type: "tool_result", ToolUseID: b.ToolUseID, Content: b.Content, IsError: b.IsError})
			}
		}
		body.Messages = append(body.Messages, msg)
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, claudeTool{Name: t.Name, Description: t.Description, InputSchema: t.Schema})
	}
	return body
}

func (c *ClaudeProvider) Complete(ctx context.Context, req Request) (Reply, error) {
	if !c.Available() {
		return Reply{}, fmt.Errorf("claude: %w", ErrProviderUnavailable)
	}

	logging.Debug("Claude API request starting", "model", c.model, "turns", len(req.Conversation), "tools", len(req.Tools))

	var resp claudeResponse
	err := postJSON(ctx, c.client, c.Name(), c.endpoint, map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	}, c.buildRequest(req), &resp)
	if err != nil {
		return Reply{}, err
	}

	reply := Reply{Model: resp.Model}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			reply.Blocks = append(reply.Blocks, TextBlock(block.Text))
		case "tool_use":
			reply.Blocks = append(reply.Blocks, ToolUseBlock(block.ID, block.Name, block.Input))
		}
	}

	switch resp.StopReason {
	case "tool_use":
		reply.StopReason = StopToolUse
	case "max_tokens":
		reply.StopReason = StopMaxTokens
		logging.Warn("Claude response truncated due to max tokens", "model", resp.Model)
	default:
		reply.StopReason = StopEndTurn
	}

	logging.Debug("Claude API response parsed", "stop_reason", resp.StopReason, "content_blocks", len(resp.Content), "model", resp.Model)
	return reply, nil
}
