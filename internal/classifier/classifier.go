// Package classifier tags complaint text with a category and a priority using
// literal keyword lookup, so every decision can be traced back to a keyword.
package classifier

import (
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"grievance/backend/internal/models"
)

// Result is the outcome of classifying one complaint.
type Result struct {
	Category    string             `json:"category"`
	Priority    string             `json:"priority"`
	Explanation models.Explanation `json:"explanation"`
}

// keywordTable is one compiled keyword table. The automaton keeps per-match state,
// so Match calls are serialized.
type keywordTable struct {
	mu       sync.Mutex
	matcher  *ahocorasick.Matcher
	keywords []string
	order    []string
	byLabel  map[string][]string
}

// Classifier maps complaint text to a category and a priority.
type Classifier struct {
	categories *keywordTable
	priorities *keywordTable
}

// New compiles the tables into Aho-Corasick automata. The tables are copied, so
// later changes to the caller's slices have no effect.
func New(t Tables) *Classifier {
	cats := make([]CategoryKeywords, len(t.Categories))
	copy(cats, t.Categories)
	prios := make([]PriorityKeywords, len(t.Priorities))
	copy(prios, t.Priorities)

	ct := newKeywordTable()
	for _, c := range cats {
		ct.add(c.Category, c.Keywords)
	}
	ct.compile()

	pt := newKeywordTable()
	for _, p := range prios {
		pt.add(p.Priority, p.Keywords)
	}
	pt.compile()

	return &Classifier{categories: ct, priorities: pt}
}

// NewDefault returns a classifier using DefaultTables.
func NewDefault() *Classifier {
	return New(DefaultTables())
}

// Classify never fails; unmatched text is general/medium.
func (c *Classifier) Classify(title, description string) Result {
	text := strings.ToLower(title + " " + description)

	catHits := c.categories.match(text)
	prioHits := c.priorities.match(text)

	res := Result{Category: CatchAllCategory, Priority: DefaultPriority}
	for _, label := range c.categories.order {
		if label == CatchAllCategory {
			continue
		}
		if len(catHits[label]) > 0 {
			res.Category = label
			break
		}
	}
	for _, label := range c.priorities.order {
		if len(prioHits[label]) > 0 {
			res.Priority = label
			break
		}
	}

	res.Explanation = models.Explanation{
		MatchedCategory: []models.KeywordMatch{},
		MatchedPriority: []models.KeywordMatch{},
	}
	for _, label := range c.categories.order {
		for _, kw := range catHits[label] {
			res.Explanation.MatchedCategory = append(res.Explanation.MatchedCategory, models.KeywordMatch{Category: label, Keyword: kw})
		}
	}
	for _, label := range c.priorities.order {
		for _, kw := range prioHits[label] {
			res.Explanation.MatchedPriority = append(res.Explanation.MatchedPriority, models.KeywordMatch{Priority: label, Keyword: kw})
		}
	}
	return res
}

func newKeywordTable() *keywordTable {
	return &keywordTable{byLabel: make(map[string][]string)}
}

func (t *keywordTable) add(label string, keywords []string) {
	if _, seen := t.byLabel[label]; !seen {
		t.order = append(t.order, label)
	}
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		t.byLabel[label] = append(t.byLabel[label], kw)
		t.keywords = append(t.keywords, kw)
	}
	if t.byLabel[label] == nil {
		t.byLabel[label] = []string{}
	}
}

func (t *keywordTable) compile() {
	if len(t.keywords) > 0 {
		t.matcher = ahocorasick.NewStringMatcher(t.keywords)
	}
}

// match returns, per label, the matched keywords in table order.
func (t *keywordTable) match(text string) map[string][]string {
	hits := make(map[string][]string)
	if t.matcher == nil {
		return hits
	}

	t.mu.Lock()
	idx := t.matcher.Match([]byte(text))
	t.mu.Unlock()

	matched := make(map[string]bool, len(idx))
	for _, i := range idx {
		if i < len(t.keywords) {
			matched[t.keywords[i]] = true
		}
	}
	for _, label := range t.order {
		for _, kw := range t.byLabel[label] {
			if matched[kw] {
				hits[label] = append(hits[label], kw)
			}
		}
	}
	return hits
}
