package classifier

// CatchAllCategory is returned when no category keyword matches.
const CatchAllCategory = "general"

// DefaultPriority is returned when no priority keyword matches.
const DefaultPriority = "medium"

// CategoryKeywords lists the keywords that map text to one category.
type CategoryKeywords struct {
	Category string
	Keywords []string
}

// PriorityKeywords lists the keywords that map text to one priority tier.
type PriorityKeywords struct {
	Priority string
	Keywords []string
}

// Tables is the keyword configuration of a Classifier. Order matters: the first
// matching entry wins, ties are never broken by match counts.
type Tables struct {
	Categories []CategoryKeywords
	Priorities []PriorityKeywords
}

// DefaultTables returns the built-in municipal keyword tables.
func DefaultTables() Tables {
	return Tables{
		Categories: []CategoryKeywords{
			{Category: "sanitation", Keywords: []string{"garbage", "trash", "sewage", "drain"}},
			{Category: "roads", Keywords: []string{"pothole", "road", "street", "traffic"}},
			{Category: "water", Keywords: []string{"water", "tap", "supply", "leak"}},
			{Category: "electricity", Keywords: []string{"power", "electricity", "light", "outage"}},
			{Category: CatchAllCategory},
		},
		Priorities: []PriorityKeywords{
			{Priority: "high", Keywords: []string{"accident", "injury", "danger", "flood", "fire", "hospital"}},
			{Priority: "medium", Keywords: []string{"leak", "block", "breakdown"}},
			{Priority: "low", Keywords: []string{"delay", "noise", "minor"}},
		},
	}
}

// CategoryNames returns the categories in table order.
func (t Tables) CategoryNames() []string {
	names := make([]string, 0, len(t.Categories))
	for _, c := range t.Categories {
		names = append(names, c.Category)
	}
	return names
}
