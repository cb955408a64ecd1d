package brain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Tool is something the model may call during generation.
type Tool interface {
	Spec() ToolSpec
	Call(ctx context.Context, input json.RawMessage) (string, error)
}

// Searcher answers web queries with text. search.Gateway implements it.
type Searcher interface {
	Search(ctx context.Context, query string) string
}

// WebSearchToolName is the name the model calls the search tool by.
const WebSearchToolName = "web_search"

// WebSearchTool exposes a Searcher to the model.
type WebSearchTool struct {
	Searcher Searcher
}

// NewWebSearchTool wraps s.
func NewWebSearchTool(s Searcher) *WebSearchTool {
	return &WebSearchTool{Searcher: s}
}

func (t *WebSearchTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        WebSearchToolName,
		Description: "Search the web for recent information. Use it to verify facts and find developments newer than your training data.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query",
				},
			},
			"required": []string{"query"},
		},
	}
}

func (t *WebSearchTool) Call(ctx context.Context, input json.RawMessage) (string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(rawOrEmpty(input), &args); err != nil {
		return "", fmt.Errorf("invalid web_search input: %w", err)
	}
	if strings.TrimSpace(args.Query) == "" {
		return "", errors.New("web_search requires a non-empty query")
	}
	return t.Searcher.Search(ctx, args.Query), nil
}
