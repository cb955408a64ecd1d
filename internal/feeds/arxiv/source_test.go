package arxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const atomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>arXiv Query</title>
  <id>http://arxiv.org/api/query</id>
  <updated>2026-10-16T00:00:00-04:00</updated>
  <entry>
    <id>http://arxiv.org/abs/2610.01234v1</id>
    <updated>2026-10-16T17:59:59Z</updated>
    <published>2026-10-16T17:59:59Z</published>
    <title>Scaling Tool-Using
      Agents Without Tears</title>
    <summary>  We study agents that call tools.
    Results are encouraging. </summary>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <link href="http://arxiv.org/abs/2610.01234v1" rel="alternate" type="text/html"/>
    <category term="cs.AI" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2610.04321v2</id>
    <updated>2026-10-15T10:00:00Z</updated>
    <title>A Second Paper</title>
    <summary>Short.</summary>
    <author><name>Grace Hopper</name></author>
  </entry>
</feed>`

func TestFetchParsesAtom(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("search_query")
		if q != "cat:cs.AI OR cat:cs.LG" {
			t.Errorf("search_query = %q", q)
		}
		if r.URL.Query().Get("sortBy") != "submittedDate" {
			t.Errorf("sortBy = %q", r.URL.Query().Get("sortBy"))
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(atomFixture))
	}))
	defer server.Close()

	s := New("cs.AI", "cs.LG")
	s.endpoint = server.URL
	s.client = server.Client()

	items := s.Fetch(context.Background())
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	p := items[0]
	if p.ID != "arxiv-2610.01234v1" {
		t.Errorf("ID = %q", p.ID)
	}
	if p.Title != "Scaling Tool-Using Agents Without Tears" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.Author != "Ada Lovelace, Alan Turing" {
		t.Errorf("Author = %q", p.Author)
	}
	if p.Publication != "arXiv" {
		t.Errorf("Publication = %q", p.Publication)
	}
	if p.Date != "2026-10-16T17:59:59Z" {
		t.Errorf("Date = %q", p.Date)
	}
	if p.Summary != "We study agents that call tools. Results are encouraging." {
		t.Errorf("Summary = %q", p.Summary)
	}

	second := items[1]
	if second.Date != "2026-10-15T10:00:00Z" {
		t.Errorf("Date should fall back to updated, got %q", second.Date)
	}
	if !strings.HasSuffix(second.URL, "/abs/2610.04321v2") {
		t.Errorf("URL = %q", second.URL)
	}
}

func TestFetchBadXML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a feed"))
	}))
	defer server.Close()

	s := New()
	s.endpoint = server.URL
	if _, err := s.TryFetch(context.Background()); err == nil {
		t.Error("expected parse error")
	}
	if items := s.Fetch(context.Background()); len(items) != 0 {
		t.Errorf("got %d items", len(items))
	}
}

func TestPaperID(t *testing.T) {
	if got := paperID("http://arxiv.org/abs/2410.01234v2"); got != "2410.01234v2" {
		t.Errorf("paperID = %q", got)
	}
	if got := paperID("plain"); got != "plain" {
		t.Errorf("paperID = %q", got)
	}
}
