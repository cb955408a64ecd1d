// Package ranking scores trending items for relevance to developer audiences.
//
// A score is the plain sum of independent components (recency, engagement,
// practical keywords, audience-domain keywords, source type). Each component
// is a Ranker; the relative sizes of their constants are what matters:
// the smallest recency step outweighs any single keyword hit, which outweighs
// the source-type bonus.
package ranking

import (
	"sort"
	"sync"
	"time"

	"github.com/abelbrown/trendwire/internal/feeds"
)

// Ranker computes one component of an item's score.
// Implementations are stateless and safe for concurrent use.
type Ranker interface {
	Name() string
	Score(item feeds.Item, ctx *Context) float64
}

// Context carries what rankers need besides the item itself.
type Context struct {
	Now       time.Time
	Audiences []feeds.Audience

	once     sync.Once
	matchers []*feeds.AudienceMatcher
}

// NewContext returns a context at now over the given audiences. Nil audiences
// means feeds.DefaultAudiences.
func NewContext(now time.Time, audiences []feeds.Audience) *Context {
	if audiences == nil {
		audiences = feeds.DefaultAudiences
	}
	return &Context{Now: now, Audiences: audiences}
}

func (c *Context) audienceMatchers() []*feeds.AudienceMatcher {
	c.once.Do(func() {
		c.matchers = feeds.Matchers(c.Audiences)
	})
	return c.matchers
}

// Breakdown is an item's score by component. It is recomputed on every
// ranking pass and never cached.
type Breakdown struct {
	Recency    float64 `json:"recency"`
	Engagement float64 `json:"engagement"`
	Practical  float64 `json:"practical"`
	Domain     float64 `json:"domain"`
	SourceType float64 `json:"source_type"`
	Total      float64 `json:"total"`
}

var (
	recency    = RecencyRanker{}
	engagement = EngagementRanker{}
	practical  = NewPracticalRanker()
	domain     = DomainRanker{}
	sourceType = NewSourceTypeRanker()
)

// ScoreWithBreakdown scores item and reports each component.
func ScoreWithBreakdown(item feeds.Item, ctx *Context) Breakdown {
	if ctx == nil {
		ctx = NewContext(time.Now(), nil)
	}
	b := Breakdown{
		Recency:    recency.Score(item, ctx),
		Engagement: engagement.Score(item, ctx),
		Practical:  practical.Score(item, ctx),
		Domain:     domain.Score(item, ctx),
		SourceType: sourceType.Score(item, ctx),
	}
	b.Total = b.Recency + b.Engagement + b.Practical + b.Domain + b.SourceType
	return b
}

// Score returns the item's total relevance score.
func Score(item feeds.Item, ctx *Context) float64 {
	return ScoreWithBreakdown(item, ctx).Total
}

// Scored pairs an item with its score.
type Scored struct {
	Item      feeds.Item `json:"item"`
	Score     float64    `json:"score"`
	Breakdown Breakdown  `json:"breakdown"`
}

// Rank scores every item and sorts by descending score. Equal scores keep
// their input order.
func Rank(items []feeds.Item, ctx *Context) []Scored {
	if ctx == nil {
		ctx = NewContext(time.Now(), nil)
	}
	out := make([]Scored, len(items))
	for i, item := range items {
		b := ScoreWithBreakdown(item, ctx)
		out[i] = Scored{Item: item, Score: b.Total, Breakdown: b}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
