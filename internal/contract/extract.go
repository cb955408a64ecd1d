// Package contract turns free-form model text into the structured values
// callers expect.
package contract

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*[ \t]*\r?\n?(.*?)```")

// ExtractJSON returns the first well-formed JSON object or array in text.
// Fenced code blocks are searched first, then the raw text. If nothing
// balanced and valid is found, text is returned unchanged.
func ExtractJSON(text string) string {
	for _, m := range fenceRe.FindAllStringSubmatch(text, -1) {
		if span, ok := firstJSON(m[1]); ok {
			return span
		}
	}
	if span, ok := firstJSON(text); ok {
		return span
	}
	return text
}

// firstJSON scans s for an opening brace or bracket that starts a balanced,
// valid JSON span.
func firstJSON(s string) (string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		end := balancedEnd(s, i)
		if end < 0 {
			continue
		}
		span := s[i : end+1]
		if json.Valid([]byte(span)) {
			return span, true
		}
	}
	return "", false
}

// balancedEnd returns the index of the bracket closing the one at start, or
// -1. Brackets inside string literals are ignored.
func balancedEnd(s string, start int) int {
	var stack []byte
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

// snippet shortens s for error messages.
func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
