package feeds

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// PlainText reduces an HTML fragment to collapsed plain text, cut to at most
// max runes (0 means no limit). Input that is not HTML passes through with
// whitespace collapsed.
func PlainText(html string, max int) string {
	text := html
	if strings.ContainsAny(html, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err == nil {
			text = doc.Text()
		}
	}
	return Truncate(strings.Join(strings.Fields(text), " "), max)
}

// Truncate cuts s to max runes, ending with "..." when it had to cut.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return string([]rune(s)[:max])
	}
	return strings.TrimSpace(string([]rune(s)[:max-3])) + "..."
}
