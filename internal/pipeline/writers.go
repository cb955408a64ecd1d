package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abelbrown/trendwire/internal/contract"
	"github.com/abelbrown/trendwire/internal/feeds"
)

// Artifact kinds.
const (
	KindSection = "section"
	KindTopics  = "topics"
	KindSummary = "summary"
)

// SectionRequest describes one newsletter section to write.
type SectionRequest struct {
	Topic    string
	Audience string // audience ID, optional
	Notes    string
	Sources  []feeds.Item
}

// SourceRef is a cited link.
type SourceRef struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Section is a written newsletter section.
type Section struct {
	Title     string      `json:"title"`
	Subtitle  string      `json:"subtitle"`
	Body      string      `json:"body"`
	KeyPoints []string    `json:"key_points"`
	Sources   []SourceRef `json:"sources"`
	Key       string      `json:"-"` // artifact key when saved
}

// TopicSuggestion is one proposed newsletter topic.
type TopicSuggestion struct {
	Title      string   `json:"title"`
	Angle      string   `json:"angle"`
	Audience   string   `json:"audience"`
	WhyNow     string   `json:"why_now"`
	SourceURLs []string `json:"source_urls"`
}

// TopicList is a saved set of suggestions.
type TopicList struct {
	Topics []TopicSuggestion
	Key    string
}

// Theme groups related trending items.
type Theme struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ItemURLs    []string `json:"item_urls"`
}

// TrendingSummary is an overview of the trending list.
type TrendingSummary struct {
	Headline string  `json:"headline"`
	Overview string  `json:"overview"`
	Themes   []Theme `json:"themes"`
	Key      string  `json:"-"`
}

// WriteSection writes one section, letting the model search the web.
// Output that does not decode is returned as contract.ErrMalformedOutput.
func (s *Service) WriteSection(ctx context.Context, req SectionRequest) (Section, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return Section{}, errors.New("write section: empty topic")
	}
	var aud feeds.Audience
	if req.Audience != "" {
		a, ok := feeds.FindAudience(s.audiences, req.Audience)
		if !ok {
			return Section{}, fmt.Errorf("write section: unknown audience %q", req.Audience)
		}
		aud = a
	}

	text, err := s.Generate(ctx, buildSectionPrompt(req, aud), true)
	if err != nil {
		return Section{}, fmt.Errorf("write section: %w", err)
	}

	var sec Section
	if err := contract.Decode(text, &sec); err != nil {
		return Section{}, fmt.Errorf("write section: %w", err)
	}
	if err := contract.SanitizeFields(&sec, "Title", "Subtitle"); err != nil {
		return Section{}, err
	}
	if sec.Title == "" {
		return Section{}, fmt.Errorf("write section: %w", &contract.MalformedOutputError{Snippet: contract.ExtractJSON(text), Err: errors.New("missing title")})
	}

	sec.Key = s.saveArtifact(ctx, KindSection, sec.Title, sec)
	return sec, nil
}

// SuggestTopics proposes count topics from the current trending list,
// filtered to audienceIDs when given.
func (s *Service) SuggestTopics(ctx context.Context, audienceIDs []string, count int) (TopicList, error) {
	if count <= 0 {
		count = 5
	}
	tr, err := s.Trending(ctx, TrendingOptions{Audiences: audienceIDs, Ranked: true, Limit: 25})
	if err != nil {
		return TopicList{}, fmt.Errorf("suggest topics: %w", err)
	}
	if len(tr.Items) == 0 {
		return TopicList{}, errors.New("suggest topics: no trending items")
	}

	text, err := s.Generate(ctx, buildTopicsPrompt(tr.Items, s.selectedAudiences(audienceIDs), count), true)
	if err != nil {
		return TopicList{}, fmt.Errorf("suggest topics: %w", err)
	}

	var topics []TopicSuggestion
	if err := contract.Decode(text, &topics); err != nil {
		return TopicList{}, fmt.Errorf("suggest topics: %w", err)
	}
	for i := range topics {
		if err := contract.SanitizeFields(&topics[i], "Title"); err != nil {
			return TopicList{}, err
		}
	}

	title := "topics"
	if len(topics) > 0 {
		title = topics[0].Title
	}
	return TopicList{Topics: topics, Key: s.saveArtifact(ctx, KindTopics, title, topics)}, nil
}

// SummarizeTrending summarizes the top limit trending items. No tools are
// offered; the items are the whole input.
func (s *Service) SummarizeTrending(ctx context.Context, audienceIDs []string, limit int) (TrendingSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	tr, err := s.Trending(ctx, TrendingOptions{Audiences: audienceIDs, Ranked: true, Limit: limit})
	if err != nil {
		return TrendingSummary{}, fmt.Errorf("summarize trending: %w", err)
	}
	if len(tr.Items) == 0 {
		return TrendingSummary{}, errors.New("summarize trending: no trending items")
	}

	text, err := s.Generate(ctx, buildSummaryPrompt(tr.Items), false)
	if err != nil {
		return TrendingSummary{}, fmt.Errorf("summarize trending: %w", err)
	}

	var sum TrendingSummary
	if err := contract.Decode(text, &sum); err != nil {
		return TrendingSummary{}, fmt.Errorf("summarize trending: %w", err)
	}
	if err := contract.SanitizeFields(&sum, "Headline"); err != nil {
		return TrendingSummary{}, err
	}
	for i := range sum.Themes {
		if err := contract.SanitizeFields(&sum.Themes[i], "Name"); err != nil {
			return TrendingSummary{}, err
		}
	}

	sum.Key = s.saveArtifact(ctx, KindSummary, sum.Headline, sum)
	return sum, nil
}

func (s *Service) selectedAudiences(ids []string) []feeds.Audience {
	if len(ids) == 0 {
		return s.audiences
	}
	var out []feeds.Audience
	for _, id := range ids {
		if a, ok := feeds.FindAudience(s.audiences, id); ok {
			out = append(out, a)
		}
	}
	return out
}
