// Package brain drives language-model generation with tool use.
//
// A Conversation is an ordered list of turns. Each turn holds content blocks:
// text, a tool call requested by the model (tool_use), or the answer to such
// a call (tool_result). Providers translate this neutral shape to and from
// their wire formats; the Loop drives the request/tool/request cycle.
package brain

import (
	"encoding/json"
)

// Role is who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType distinguishes content blocks.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// Block is one piece of turn content. Which fields are set depends on Type.
type Block struct {
	Type BlockType `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// TextBlock returns a text block.
func TextBlock(text string) Block {
	return Block{Type: BlockText, Text: text}
}

// ToolUseBlock returns a tool call block.
func ToolUseBlock(id, name string, input json.RawMessage) Block {
	return Block{Type: BlockToolUse, ID: id, Name: name, Input: input}
}

// ToolResultBlock answers the tool call with the given ID. Name is carried
// for providers that key results by function name.
func ToolResultBlock(toolUseID, name, content string, isError bool) Block {
	return Block{Type: BlockToolResult, ToolUseID: toolUseID, Name: name, Content: content, IsError: isError}
}

// Turn is one message in a conversation.
type Turn struct {
	Role   Role    `json:"role"`
	Blocks []Block `json:"blocks"`
}

// UserText is a user turn holding a single text block.
func UserText(text string) Turn {
	return Turn{Role: RoleUser, Blocks: []Block{TextBlock(text)}}
}

// Conversation is the ordered turn history sent with each request.
type Conversation []Turn

// Append returns c with t added. The receiver's backing array is never shared
// with the result.
func (c Conversation) Append(t Turn) Conversation {
	out := make(Conversation, len(c), len(c)+1)
	copy(out, c)
	return append(out, t)
}

// ToolSpec describes a tool to the model.
type ToolSpec struct {
	Name        string
	Description string
	Schema      map[string]any // JSON Schema for the input object
}

// Request is one call to a provider.
type Request struct {
	System       string
	Conversation Conversation
	Tools        []ToolSpec
	MaxTokens    int
}

// StopReason is why the model stopped producing output.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
)

// Reply is a provider's answer to one Request.
type Reply struct {
	Blocks     []Block
	StopReason StopReason
	Model      string
}

// Text returns the first non-empty text block.
func (r Reply) Text() string {
	for _, b := range r.Blocks {
		if b.Type == BlockText && b.Text != "" {
			return b.Text
		}
	}
	return ""
}

// ToolUses returns the tool_use blocks in order.
func (r Reply) ToolUses() []Block {
	var out []Block
	for _, b := range r.Blocks {
		if b.Type == BlockToolUse {
			out = append(out, b)
		}
	}
	return out
}
