package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abelbrown/trendwire/internal/feeds"
	"github.com/abelbrown/trendwire/internal/pipeline"
	"github.com/abelbrown/trendwire/internal/store"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// cacheLine describes where a trending list came from.
func cacheLine(res pipeline.TrendingResult) string {
	switch {
	case res.IsStale:
		return staleStyle.Render(fmt.Sprintf("stale, fetched %s ago, refreshing", formatAge(res.CacheAge)))
	case res.Cached:
		return subtleStyle.Render(fmt.Sprintf("cached %s ago", formatAge(res.CacheAge)))
	default:
		return subtleStyle.Render("fresh")
	}
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

func renderTrending(w io.Writer, res pipeline.TrendingResult) {
	fmt.Fprintf(w, "%s  %s\n\n",
		headingStyle.Render(fmt.Sprintf("Trending · %d items", len(res.Items))),
		cacheLine(res))

	for i, it := range res.Items {
		line := indexStyle.Render(fmt.Sprintf("%d.", i+1))
		if i < len(res.Scored) {
			line += scoreStyle.Render(fmt.Sprintf("%.0f", res.Scored[i].Score)) + " "
		}
		line += badgeStyle.Render(string(it.Category)) + titleStyle.Render(it.Title)
		fmt.Fprintln(w, line)

		var meta []string
		if it.Publication != "" {
			meta = append(meta, it.Publication)
		}
		if it.Author != "" {
			meta = append(meta, it.Author)
		}
		if it.Summary != "" {
			meta = append(meta, feeds.Truncate(it.Summary, 80))
		}
		indent := strings.Repeat(" ", 5)
		if len(meta) > 0 {
			fmt.Fprintln(w, indent+subtleStyle.Render(strings.Join(meta, " · ")))
		}
		fmt.Fprintln(w, indent+subtleStyle.Render(it.URL))
	}
}

func renderSection(w io.Writer, sec pipeline.Section) {
	fmt.Fprintln(w, headingStyle.Render(sec.Title))
	if sec.Subtitle != "" {
		fmt.Fprintln(w, subtleStyle.Render(sec.Subtitle))
	}
	fmt.Fprintf(w, "\n%s\n", sec.Body)
	if len(sec.KeyPoints) > 0 {
		fmt.Fprintln(w)
		for _, kp := range sec.KeyPoints {
			fmt.Fprintf(w, "  • %s\n", kp)
		}
	}
	if len(sec.Sources) > 0 {
		fmt.Fprintln(w, "\n"+titleStyle.Render("Sources"))
		for _, src := range sec.Sources {
			fmt.Fprintf(w, "  %s %s\n", src.Title, subtleStyle.Render(src.URL))
		}
	}
	renderKey(w, sec.Key)
}

func renderTopics(w io.Writer, tl pipeline.TopicList) {
	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("%d topic ideas", len(tl.Topics))))
	for i, t := range tl.Topics {
		fmt.Fprintf(w, "\n%s%s", indexStyle.Render(fmt.Sprintf("%d.", i+1)), titleStyle.Render(t.Title))
		if t.Audience != "" {
			fmt.Fprint(w, " "+badgeStyle.Render(t.Audience))
		}
		fmt.Fprintln(w)
		if t.Angle != "" {
			fmt.Fprintf(w, "     %s\n", t.Angle)
		}
		if t.WhyNow != "" {
			fmt.Fprintf(w, "     %s\n", subtleStyle.Render("why now: "+t.WhyNow))
		}
		for _, u := range t.SourceURLs {
			fmt.Fprintf(w, "     %s\n", subtleStyle.Render(u))
		}
	}
	renderKey(w, tl.Key)
}

func renderSummary(w io.Writer, sum pipeline.TrendingSummary) {
	fmt.Fprintln(w, headingStyle.Render(sum.Headline))
	fmt.Fprintf(w, "\n%s\n", sum.Overview)
	for _, th := range sum.Themes {
		fmt.Fprintf(w, "\n%s\n", titleStyle.Render(th.Name))
		if th.Description != "" {
			fmt.Fprintf(w, "  %s\n", th.Description)
		}
		for _, u := range th.ItemURLs {
			fmt.Fprintf(w, "  %s\n", subtleStyle.Render(u))
		}
	}
	renderKey(w, sum.Key)
}

func renderKey(w io.Writer, key string) {
	if key != "" {
		fmt.Fprintf(w, "\n%s\n", subtleStyle.Render("saved as "+key))
	}
}

func renderArtifacts(w io.Writer, arts []store.Artifact) {
	if len(arts) == 0 {
		fmt.Fprintln(w, "No saved artifacts.")
		return
	}
	for _, a := range arts {
		fmt.Fprintf(w, "%s%s %s\n",
			badgeStyle.Render(a.Kind),
			a.Key,
			subtleStyle.Render(a.UpdatedAt.Local().Format("2006-01-02 15:04")))
	}
}

func renderSourceStats(w io.Writer, stats []feeds.SourceStats) {
	fmt.Fprintln(w, headingStyle.Render("Sources"))
	for _, st := range stats {
		status := fmt.Sprintf("%d items in %s", st.ItemCount, st.Duration.Round(time.Millisecond))
		if st.LastFetched.IsZero() {
			status = "not fetched"
		}
		line := fmt.Sprintf("%-12s %s", st.Name, subtleStyle.Render(status))
		if st.LastError != nil {
			line += "  " + errorStyle.Render(st.LastError.Error())
		}
		fmt.Fprintln(w, line)
	}
}

func renderSourceHistory(w io.Writer, statuses []store.SourceStatus) {
	fmt.Fprintln(w, headingStyle.Render("Source history"))
	if len(statuses) == 0 {
		fmt.Fprintln(w, "No fetches recorded.")
		return
	}
	for _, st := range statuses {
		line := fmt.Sprintf("%-12s %s", st.Name,
			subtleStyle.Render(fmt.Sprintf("%d items, last fetch %s", st.ItemCount, st.LastFetchedAt.Local().Format("2006-01-02 15:04"))))
		if st.ErrorCount > 0 {
			line += "  " + errorStyle.Render(fmt.Sprintf("%d consecutive errors: %s", st.ErrorCount, st.LastError))
		}
		fmt.Fprintln(w, line)
	}
}

func renderHistory(w io.Writer, items []store.SeenItem, total int) {
	fmt.Fprintf(w, "%s  %s\n\n",
		headingStyle.Render(fmt.Sprintf("Recently seen · %d of %d", len(items), total)),
		subtleStyle.Render("most recent first"))
	if len(items) == 0 {
		fmt.Fprintln(w, "Nothing recorded yet. Run trendwire trending with storage enabled.")
		return
	}
	for i, it := range items {
		fmt.Fprintln(w, indexStyle.Render(fmt.Sprintf("%d.", i+1))+badgeStyle.Render(string(it.Category))+titleStyle.Render(it.Title))
		seen := fmt.Sprintf("seen %d×, first %s, last %s", it.SeenCount,
			it.FirstSeen.Local().Format("2006-01-02 15:04"),
			it.LastSeen.Local().Format("2006-01-02 15:04"))
		fmt.Fprintln(w, strings.Repeat(" ", 5)+subtleStyle.Render(seen))
		fmt.Fprintln(w, strings.Repeat(" ", 5)+subtleStyle.Render(it.URL))
	}
}
