package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/abelbrown/trendwire/internal/httpclient"
	"github.com/abelbrown/trendwire/internal/logging"
)

// contentGenerator is the slice of the genai Models service the provider uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiProvider uses the Google GenAI SDK with function calling.
type GeminiProvider struct {
	apiKey string
	model  string

	mu  sync.Mutex
	gen contentGenerator
}

// NewGeminiProvider creates a Gemini provider. The SDK client is created on
// first use.
func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiProvider{apiKey: apiKey, model: model}
}

func (g *GeminiProvider) Name() string { return "gemini" }

func (g *GeminiProvider) Available() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.apiKey != "" || g.gen != nil
}

func (g *GeminiProvider) generator(ctx context.Context) (contentGenerator, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen != nil {
		return g.gen, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     g.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpclient.LongTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	g.gen = client.Models
	return g.gen, nil
}

func (g *GeminiProvider) buildContents(req Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	var contents []*genai.Content
	for _, turn := range req.Conversation {
		role := genai.RoleUser
		if turn.Role == RoleAssistant {
			role = genai.RoleModel
		}
		c := &genai.Content{Role: role}
		for _, b := range turn.Blocks {
			switch b.Type {
			case BlockText:
				c.Parts = append(c.Parts, genai.NewPartFromText(b.Text))
			case BlockToolUse:
				var args map[string]any
				if len(b.Input) > 0 {
					if err := json.Unmarshal(b.Input, &args); err != nil {
						logging.Debug("Gemini tool input not an object", "tool", b.Name, "error", err)
					}
				}
				c.Parts = append(c.Parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: b.ID, Name: b.Name, Args: args}})
			case BlockToolResult:
				key := "output"
				if b.IsError {
					key = "error"
				}
				c.Parts = append(c.Parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       b.ToolUseID,
					Name:     b.Name,
					Response: map[string]any{key: b.Content},
				}})
			}
		}
		if len(c.Parts) > 0 {
			contents = append(contents, c)
		}
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokensOr(req.MaxTokens, 2048)),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 t.Name,
				Description:          t.Description,
				ParametersJsonSchema: t.Schema,
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return contents, config
}

func (g *GeminiProvider) Complete(ctx context.Context, req Request) (Reply, error) {
	if !g.Available() {
		return Reply{}, fmt.Errorf("gemini: %w", ErrProviderUnavailable)
	}
	gen, err := g.generator(ctx)
	if err != nil {
		return Reply{}, err
	}

	contents, config := g.buildContents(req)
	logging.Debug("Gemini request starting", "model", g.model, "contents", len(contents), "tools", len(req.Tools))

	resp, err := gen.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return Reply{}, fmt.Errorf("gemini generate failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Reply{}, fmt.Errorf("no response from gemini")
	}

	cand := resp.Candidates[0]
	reply := Reply{Model: resp.ModelVersion}
	if reply.Model == "" {
		reply.Model = g.model
	}
	for _, part := range cand.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		if part.FunctionCall != nil {
			id := part.FunctionCall.ID
			if id == "" {
				id = uuid.NewString()
			}
			input, err := json.Marshal(part.FunctionCall.Args)
			if err != nil || part.FunctionCall.Args == nil {
				input = json.RawMessage("{}")
			}
			reply.Blocks = append(reply.Blocks, ToolUseBlock(id, part.FunctionCall.Name, input))
			continue
		}
		if part.Text != "" {
			reply.Blocks = append(reply.Blocks, TextBlock(part.Text))
		}
	}

	switch {
	case len(reply.ToolUses()) > 0:
		reply.StopReason = StopToolUse
	case cand.FinishReason == genai.FinishReasonMaxTokens:
		reply.StopReason = StopMaxTokens
		logging.Warn("Gemini response truncated due to max tokens", "model", reply.Model)
	default:
		reply.StopReason = StopEndTurn
	}
	return reply, nil
}
