package feeds

import (
	"regexp"
	"strings"
)

// Audience is a reader persona. Its keywords drive both filtering and the
// domain component of relevance scoring.
type Audience struct {
	ID          string
	Name        string
	Description string
	Keywords    []string
}

// DefaultAudiences is the built-in persona catalog.
var DefaultAudiences = []Audience{
	{
		ID:          "ai-engineers",
		Name:        "AI Engineers",
		Description: "Builders shipping LLM and ML features into products",
		Keywords: []string{
			"llm", "llms", "gpt", "claude", "gemini", "openai", "anthropic", "transformer",
			"fine-tuning", "fine-tune", "rag", "embedding", "embeddings", "agent", "agents",
			"inference", "diffusion", "neural", "machine learning", "deep learning", "ai",
		},
	},
	{
		ID:          "backend",
		Name:        "Backend Developers",
		Description: "Service, API and database engineers",
		Keywords: []string{
			"golang", "go", "rust", "postgres", "postgresql", "sqlite", "database", "grpc",
			"microservice", "microservices", "api", "backend", "distributed", "queue", "cache",
			"concurrency", "java", "python",
		},
	},
	{
		ID:          "frontend",
		Name:        "Frontend Developers",
		Description: "Web UI, browser and design-system engineers",
		Keywords: []string{
			"javascript", "typescript", "react", "vue", "svelte", "css", "html", "browser",
			"frontend", "nextjs", "next.js", "webassembly", "wasm", "tailwind",
		},
	},
	{
		ID:          "devops",
		Name:        "DevOps & Platform",
		Description: "Infrastructure, deployment and reliability engineers",
		Keywords: []string{
			"kubernetes", "k8s", "docker", "terraform", "ci/cd", "devops", "observability",
			"prometheus", "linux", "cloud", "aws", "gcp", "azure", "deployment", "sre",
		},
	},
	{
		ID:          "security",
		Name:        "Security Engineers",
		Description: "AppSec, infra security and vulnerability research",
		Keywords: []string{
			"security", "vulnerability", "cve", "exploit", "malware", "encryption",
			"authentication", "zero-day", "supply chain", "sandbox", "ransomware",
		},
	},
	{
		ID:          "researchers",
		Name:        "Researchers",
		Description: "Readers tracking papers and new methods",
		Keywords: []string{
			"paper", "arxiv", "benchmark", "dataset", "theorem", "proof", "algorithm",
			"reinforcement learning", "optimization", "survey", "state of the art",
		},
	},
}

// AudienceMatcher is an audience with its keyword pattern compiled.
type AudienceMatcher struct {
	Audience Audience
	re       *regexp.Regexp
}

// NewAudienceMatcher compiles a case-insensitive, word-boundary pattern over
// the audience keywords. An audience without keywords matches nothing.
func NewAudienceMatcher(a Audience) *AudienceMatcher {
	m := &AudienceMatcher{Audience: a}
	parts := make([]string, 0, len(a.Keywords))
	for _, kw := range a.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		parts = append(parts, regexp.QuoteMeta(strings.ToLower(kw)))
	}
	if len(parts) > 0 {
		m.re = regexp.MustCompile(`(?i)\b(?:` + strings.Join(parts, "|") + `)\b`)
	}
	return m
}

// Match reports whether any keyword occurs in text.
func (m *AudienceMatcher) Match(text string) bool {
	return m.re != nil && m.re.MatchString(text)
}

// Count returns how many keyword occurrences text contains.
func (m *AudienceMatcher) Count(text string) int {
	if m.re == nil {
		return 0
	}
	return len(m.re.FindAllStringIndex(text, -1))
}

// Matchers compiles one matcher per audience.
func Matchers(audiences []Audience) []*AudienceMatcher {
	out := make([]*AudienceMatcher, 0, len(audiences))
	for _, a := range audiences {
		out = append(out, NewAudienceMatcher(a))
	}
	return out
}

// FindAudience looks up an audience by ID.
func FindAudience(audiences []Audience, id string) (Audience, bool) {
	for _, a := range audiences {
		if a.ID == id {
			return a, true
		}
	}
	return Audience{}, false
}

// FilterByAudience keeps the items whose title or summary mentions a keyword
// of any selected audience, in their original order. With no ids the input is
// returned unchanged. Ids that name no audience select nothing.
func FilterByAudience(items []Item, audiences []Audience, ids ...string) []Item {
	if len(ids) == 0 {
		return items
	}

	var selected []*AudienceMatcher
	for _, id := range ids {
		if a, ok := FindAudience(audiences, id); ok {
			selected = append(selected, NewAudienceMatcher(a))
		}
	}

	out := make([]Item, 0, len(items))
	if len(selected) == 0 {
		return out
	}
	for _, item := range items {
		text := item.Title + " " + item.Summary
		for _, m := range selected {
			if m.Match(text) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}
