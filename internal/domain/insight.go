package domain

// Priority is the tier of an insight item. Tiers are assigned per rule,
// never computed.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var priorityOrder = map[Priority]int{
	PriorityHigh:   0,
	PriorityMedium: 1,
	PriorityLow:    2,
}

func (p Priority) IsValid() bool {
	_, ok := priorityOrder[p]
	return ok
}

// Order returns the sort position of the tier, High first.
func (p Priority) Order() int {
	return priorityOrder[p]
}

// InsightKind distinguishes missed-target recommendations from
// notable-margin achievements. Both come from the same rule catalog.
type InsightKind string

const (
	InsightRecommendation InsightKind = "recommendation"
	InsightAchievement    InsightKind = "achievement"
)

// InsightItem is one rule-engine output. Items are immutable and ordered by
// priority tier, then relative breach magnitude descending, then rule ID.
type InsightItem struct {
	RuleID      string      `json:"rule_id"`
	Kind        InsightKind `json:"kind"`
	Priority    Priority    `json:"priority"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Owner       string      `json:"owner"`
	MetricPath  string      `json:"metric_path"`
	Observed    float64     `json:"observed"`
	Target      float64     `json:"target"`

	// RelativeBreach is (observed-target)/target for recommendations and
	// the margin of safety for achievements, always non-negative.
	RelativeBreach float64 `json:"relative_breach"`
}
