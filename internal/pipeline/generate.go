package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/abelbrown/trendwire/internal/brain"
	"github.com/abelbrown/trendwire/internal/logging"
)

// Prompt is one generation request.
type Prompt struct {
	System    string
	User      string
	MaxTokens int
}

// Generate runs the tool-use loop for p and returns the model's text. With
// toolsEnabled the model may call web_search, bounded by the round ceiling.
func (s *Service) Generate(ctx context.Context, p Prompt, toolsEnabled bool) (string, error) {
	res, err := s.run(ctx, p, toolsEnabled)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func (s *Service) run(ctx context.Context, p Prompt, toolsEnabled bool) (brain.Result, error) {
	if s.provider == nil {
		return brain.Result{}, brain.ErrProviderUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	loop := &brain.Loop{
		Provider:  s.provider,
		MaxRounds: s.maxRounds,
		Events:    s.events,
	}
	if toolsEnabled && s.searcher != nil {
		loop.Tools = []brain.Tool{brain.NewWebSearchTool(s.searcher)}
	}

	maxTokens := p.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.maxTokens
	}
	return loop.Run(ctx, brain.Request{
		System:       p.System,
		Conversation: brain.Conversation{brain.UserText(p.User)},
		MaxTokens:    maxTokens,
	})
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// slug turns a title into a short key segment.
func slug(title string) string {
	s := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(s) > 48 {
		s = strings.TrimRight(s[:48], "-")
	}
	if s == "" {
		s = "untitled"
	}
	return s
}

// ArtifactKey is the storage key for an artifact of kind titled title.
func (s *Service) ArtifactKey(kind, title string) string {
	return fmt.Sprintf("%s/%s-%s", kind, s.now().UTC().Format("20060102-150405"), slug(title))
}

// saveArtifact stores v under a fresh key and returns it. Failures are
// logged; the generated value is still returned to the caller.
func (s *Service) saveArtifact(ctx context.Context, kind, title string, v any) string {
	if s.artifacts == nil {
		return ""
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logging.Warn("failed to encode artifact", "kind", kind, "error", err)
		return ""
	}
	key := s.ArtifactKey(kind, title)
	if err := s.artifacts.Save(ctx, key, kind, string(data)); err != nil {
		logging.Warn("failed to save artifact", "key", key, "error", err)
		return ""
	}
	logging.Info("artifact saved", "key", key)
	return key
}
