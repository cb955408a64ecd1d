package pipeline

import (
	"fmt"
	"strings"

	"github.com/abelbrown/trendwire/internal/feeds"
)

const writerSystem = `You write sections of a weekly developer newsletter.
Readers are working engineers. Be concrete and practical: name the tool,
library or paper, say what changed and why it matters to them.
Never invent facts. If you cannot verify something, say so.
Do not use emoji.`

const jsonRule = `Reply with a single JSON value and nothing else. No prose before
or after it.`

// buildSectionPrompt asks for one newsletter section.
func buildSectionPrompt(req SectionRequest, aud feeds.Audience) Prompt {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a newsletter section about: %s\n", req.Topic)
	if aud.ID != "" {
		fmt.Fprintf(&sb, "Audience: %s (%s)\n", aud.Name, aud.Description)
	}
	if req.Notes != "" {
		fmt.Fprintf(&sb, "Editor notes: %s\n", req.Notes)
	}
	if len(req.Sources) > 0 {
		sb.WriteString("\nStart from these items:\n")
		writeItems(&sb, req.Sources)
	}
	sb.WriteString("\nUse web_search to check recent developments before writing.\n\n")
	sb.WriteString(jsonRule)
	sb.WriteString(`
Schema:
{"title": string, "subtitle": string, "body": string (markdown, 150-300 words),
 "key_points": [string], "sources": [{"title": string, "url": string}]}`)

	return Prompt{System: writerSystem, User: sb.String(), MaxTokens: 2048}
}

// buildTopicsPrompt asks for newsletter topic ideas from trending items.
func buildTopicsPrompt(items []feeds.Item, audiences []feeds.Audience, count int) Prompt {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Suggest %d newsletter topics from what is trending today.\n", count)
	if len(audiences) > 0 {
		sb.WriteString("Readers:\n")
		for _, a := range audiences {
			fmt.Fprintf(&sb, "- %s: %s\n", a.ID, a.Description)
		}
	}
	sb.WriteString("\nTrending items:\n")
	writeItems(&sb, items)
	sb.WriteString("\nPrefer topics several items point at. ")
	sb.WriteString(jsonRule)
	sb.WriteString(`
Schema:
[{"title": string, "angle": string, "audience": string (one of the reader ids),
  "why_now": string, "source_urls": [string]}]`)

	return Prompt{System: writerSystem, User: sb.String(), MaxTokens: 1536}
}

// buildSummaryPrompt asks for an overview of the trending list.
func buildSummaryPrompt(items []feeds.Item) Prompt {
	var sb strings.Builder
	sb.WriteString("Summarize what developers are talking about today.\n\nTrending items:\n")
	writeItems(&sb, items)
	sb.WriteString("\nGroup the items into 2 to 5 themes. ")
	sb.WriteString(jsonRule)
	sb.WriteString(`
Schema:
{"headline": string, "overview": string (2-3 sentences),
 "themes": [{"name": string, "description": string, "item_urls": [string]}]}`)

	return Prompt{System: writerSystem, User: sb.String(), MaxTokens: 1536}
}

func writeItems(sb *strings.Builder, items []feeds.Item) {
	for i, it := range items {
		fmt.Fprintf(sb, "%d. [%s] %s\n   %s\n", i+1, it.Category, it.Title, it.URL)
		if it.Summary != "" {
			fmt.Fprintf(sb, "   %s\n", feeds.Truncate(it.Summary, 200))
		}
	}
}
