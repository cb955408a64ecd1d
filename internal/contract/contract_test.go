package contract

import (
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fenced json", "Here is the result:\n```json\n{\"a\":1}\n```\nThanks!", `{"a":1}`},
		{"no json", "no json here", "no json here"},
		{"bare fence", "```\n[1, 2, 3]\n```", "[1, 2, 3]"},
		{"prose around object", `Sure! {"title": "x", "n": 2} Hope that helps.`, `{"title": "x", "n": 2}`},
		{"braces in strings", `Result: {"a": "}{ ][", "b": [1, {"c": "\"}"}]} done`, `{"a": "}{ ][", "b": [1, {"c": "\"}"}]}`},
		{"array", `topics: [{"t":"a"},{"t":"b"}]`, `[{"t":"a"},{"t":"b"}]`},
		{"skips invalid span", `set {x} then {"ok": true}`, `{"ok": true}`},
		{"unbalanced", `{"a": 1`, `{"a": 1`},
		{"mismatched", `{"a": [1}`, `{"a": [1}`},
		{"fence without json falls back to raw", "```\nnot json\n```\n{\"a\":2}", `{"a":2}`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.in); got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	var v struct {
		Title string `json:"title"`
	}
	if err := Decode("```json\n{\"title\": \"Go 1.26\"}\n```", &v); err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if v.Title != "Go 1.26" {
		t.Errorf("Title = %q", v.Title)
	}

	err := Decode("I could not produce JSON, sorry.", &v)
	if !errors.Is(err, ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput, got %v", err)
	}
	var me *MalformedOutputError
	if !errors.As(err, &me) || me.Snippet == "" {
		t.Errorf("expected error *MalformedOutputError with snippet, got %#v", err)
	}

	// Valid JSON of the wrong shape is also malformed.
	if err := Decode(`["a"]`, &v); !errors.Is(err, ErrMalformedOutput) {
		t.Errorf("expected wrong shape error ErrMalformedOutput, got %v", err)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"🚀 New AI Tools!!  ", "New AI Tools!!"},
		{"Ship  it\t\nnow", "Ship it now"},
		{"👍🏽 thumbs", "thumbs"},
		{"family 👨‍👩‍👧 time", "family time"},
		{"keycap 1️⃣ one", "keycap 1 one"},
		{"flags 🇺🇸 here", "flags here"},
		{"✨ sparkle ☀️", "sparkle"},
		{"plain text, punctuation: ok?", "plain text, punctuation: ok?"},
		{"café über", "café über"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFields(t *testing.T) {
	type artifact struct {
		Title    string
		Headings []string
		Body     string
		Score    int
	}
	a := artifact{Title: "🔥 Hot  take", Headings: []string{"✅ Done", "Next 🚧"}, Body: "keep 🎉 this"}
	if err := SanitizeFields(&a, "Title", "Headings"); err != nil {
		t.Fatalf("SanitizeFields() failed: %v", err)
	}
	if a.Title != "Hot take" {
		t.Errorf("Title = %q", a.Title)
	}
	if a.Headings[0] != "Done" || a.Headings[1] != "Next" {
		t.Errorf("Headings = %q", a.Headings)
	}
	if a.Body != "keep 🎉 this" {
		t.Errorf("expected Body untouched, got %q", a.Body)
	}

	if err := SanitizeFields(&a, "Score"); err == nil {
		t.Error("non-string field: want error")
	}
	if err := SanitizeFields(&a, "Missing"); err == nil {
		t.Error("unknown field: want error")
	}
	if err := SanitizeFields(a, "Title"); err == nil {
		t.Error("non-pointer: want error")
	}
}
