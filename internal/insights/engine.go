// Package insights evaluates the threshold rule catalog against a computed
// metrics bundle.
//
// The catalog is used twice per rule: a missed target yields a
// recommendation, a hit with margin at or above the configured notable
// margin yields an achievement. Output ordering is byte-identical across
// runs on identical input.
package insights

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/bissquit/escalation-insights/internal/config"
	"github.com/bissquit/escalation-insights/internal/domain"
)

// Engine evaluates the rule catalog for one client configuration.
type Engine struct {
	cfg    config.Config
	logger *slog.Logger
}

// NewEngine creates an engine bound to a client configuration.
func NewEngine(cfg config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Evaluate runs every catalog rule against the bundle. Rules whose metric is
// flagged unavailable are skipped entirely. Both returned slices are sorted
// by priority tier, then relative breach or margin descending, then rule ID.
func (e *Engine) Evaluate(m *domain.ComputedMetrics) (recommendations, achievements []domain.InsightItem) {
	for _, rule := range Catalog {
		observed, ok := m.Lookup(rule.MetricPath)
		if !ok {
			e.logger.Debug("skipping rule, metric unavailable",
				"rule", rule.ID,
				"metric", rule.MetricPath,
			)
			continue
		}
		recordRuleEvaluated(rule.ID)

		target := rule.Threshold(e.cfg)
		if satisfied(rule.Comparator, observed, target) {
			margin := relativeMargin(rule.Comparator, observed, target)
			if margin >= e.cfg.Thresholds.NotableMarginPercent {
				achievements = append(achievements, e.buildItem(rule, domain.InsightAchievement, observed, target, margin))
				recordInsightEmitted(string(domain.InsightAchievement))
			}
			continue
		}
		if rule.AchievementOnly {
			continue
		}

		breach := relativeBreach(rule.Comparator, observed, target)
		item := e.buildItem(rule, domain.InsightRecommendation, observed, target, breach)
		if rule.Warning != nil {
			if w := rule.Warning(e.cfg); pastWarningTier(rule.Comparator, observed, w) {
				item.Description = fmt.Sprintf("%s, past the warning tier of %.1f", item.Description, w)
			}
		}
		recommendations = append(recommendations, item)
		recordInsightEmitted(string(domain.InsightRecommendation))
	}

	sortItems(recommendations)
	sortItems(achievements)

	e.logger.Info("rule catalog evaluated",
		"rules", len(Catalog),
		"recommendations", len(recommendations),
		"achievements", len(achievements),
	)

	return recommendations, achievements
}

// pastWarningTier reports whether a missed target has also crossed the
// rule's warning tier.
func pastWarningTier(c Comparator, observed, warning float64) bool {
	if c == AtLeast {
		return observed < warning
	}
	return observed > warning
}

func satisfied(c Comparator, observed, target float64) bool {
	if c == AtLeast {
		return observed >= target
	}
	return observed <= target
}

// relativeBreach is the miss magnitude as a percentage of the target. A
// zero target cannot be missed proportionally, so the raw distance is used.
func relativeBreach(c Comparator, observed, target float64) float64 {
	if target == 0 {
		if c == AtLeast {
			return target - observed
		}
		return observed - target
	}
	if c == AtLeast {
		return (target - observed) / target * 100
	}
	return (observed - target) / target * 100
}

// relativeMargin is the headroom of a satisfied rule as a percentage of the
// target. For a zero target the observed value already is a percentage.
func relativeMargin(c Comparator, observed, target float64) float64 {
	if target == 0 {
		if c == AtLeast {
			return observed
		}
		return -observed
	}
	if c == AtLeast {
		return (observed - target) / target * 100
	}
	return (target - observed) / target * 100
}

func (e *Engine) buildItem(rule Rule, kind domain.InsightKind, observed, target, breach float64) domain.InsightItem {
	return domain.InsightItem{
		RuleID:         rule.ID,
		Kind:           kind,
		Priority:       rule.Priority,
		Title:          rule.Title,
		Description:    describe(rule, kind, observed, target, breach),
		Owner:          rule.Owner,
		MetricPath:     rule.MetricPath,
		Observed:       observed,
		Target:         target,
		RelativeBreach: breach,
	}
}

func describe(rule Rule, kind domain.InsightKind, observed, target, breach float64) string {
	if kind == domain.InsightAchievement {
		if target == 0 {
			return fmt.Sprintf("%s reached %.1f%%", rule.Subject, observed)
		}
		return fmt.Sprintf("%s of %.1f clears the target of %.1f by %.1f%%",
			rule.Subject, observed, target, breach)
	}
	bound := "ceiling"
	if rule.Comparator == AtLeast {
		bound = "floor"
	}
	return fmt.Sprintf("%s is %.1f against a %s of %.1f",
		rule.Subject, observed, bound, target)
}

// sortItems orders by priority tier, then breach magnitude descending, then
// rule ID for a stable total order.
func sortItems(items []domain.InsightItem) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Priority.Order() != b.Priority.Order() {
			return a.Priority.Order() < b.Priority.Order()
		}
		if a.RelativeBreach != b.RelativeBreach {
			return a.RelativeBreach > b.RelativeBreach
		}
		return a.RuleID < b.RuleID
	})
}
