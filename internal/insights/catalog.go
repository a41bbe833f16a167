package insights

import (
	"github.com/bissquit/escalation-insights/internal/config"
	"github.com/bissquit/escalation-insights/internal/domain"
)

// Comparator is the direction a rule checks its metric against the
// threshold.
type Comparator string

const (
	// AtMost passes when observed <= threshold (ceilings).
	AtMost Comparator = "at_most"
	// AtLeast passes when observed >= threshold (floors).
	AtLeast Comparator = "at_least"
)

// Rule is one catalog entry. Rules are data: the engine never special-cases
// a rule by ID, and tests enumerate the catalog independently of the
// evaluation loop.
type Rule struct {
	ID         string
	MetricPath string
	Comparator Comparator
	// Threshold resolves the rule's target from the client configuration.
	// Thresholds are always configuration-supplied, never literals here.
	Threshold func(config.Config) float64
	// Warning optionally resolves a second, worse tier. A miss that also
	// crosses it is called out in the item description; it never changes
	// the rule's priority.
	Warning  func(config.Config) float64
	Priority domain.Priority
	Owner    string
	Title    string
	// Subject is the short human name of the measured quantity, used in
	// item descriptions.
	Subject string
	// TemplateID names the narrative template used for this rule's items.
	TemplateID string
	// AchievementOnly rules never produce a recommendation on a miss; they
	// exist only to surface a strong hit.
	AchievementOnly bool
}

// Catalog is the fixed rule set, evaluated in declaration order. Ordering
// of the output does not depend on catalog order.
var Catalog = []Rule{
	{
		ID:         "detection-tuning",
		MetricPath: "volume.false_positive_rate",
		Comparator: AtMost,
		Threshold:  func(c config.Config) float64 { return c.SLA.FPRateMax },
		Warning:    func(c config.Config) float64 { return c.Thresholds.FPRateWarning },
		Priority:   domain.PriorityHigh,
		Owner:      "Detection Engineering",
		Title:      "Tune noisy detections",
		Subject:    "false-positive rate",
		TemplateID: "detection_tuning",
	},
	{
		ID:         "response-time",
		MetricPath: "response.mttr_minutes",
		Comparator: AtMost,
		Threshold:  func(c config.Config) float64 { return c.Thresholds.MTTRTargetMinutes },
		Warning:    func(c config.Config) float64 { return c.Thresholds.MTTRWarningMinutes },
		Priority:   domain.PriorityHigh,
		Owner:      "SOC Operations",
		Title:      "Reduce mean time to respond",
		Subject:    "mean time to respond in minutes",
		TemplateID: "response_time",
	},
	{
		ID:         "sla-compliance",
		MetricPath: "response.sla_compliance_rate",
		Comparator: AtLeast,
		Threshold:  func(c config.Config) float64 { return c.SLA.ComplianceFloor },
		Priority:   domain.PriorityHigh,
		Owner:      "SOC Operations",
		Title:      "Restore SLA compliance",
		Subject:    "SLA compliance rate",
		TemplateID: "sla_compliance",
	},
	{
		ID:         "automation-coverage",
		MetricPath: "volume.analyst_percent",
		Comparator: AtMost,
		Threshold:  func(c config.Config) float64 { return c.SLA.ManualEscalationMax },
		Priority:   domain.PriorityMedium,
		Owner:      "Automation Engineering",
		Title:      "Expand playbook coverage",
		Subject:    "analyst-escalated share",
		TemplateID: "automation_coverage",
	},
	{
		ID:         "automation-target",
		MetricPath: "volume.automation_percent",
		Comparator: AtLeast,
		Threshold:  func(c config.Config) float64 { return c.Thresholds.AutomationTarget },
		Priority:   domain.PriorityMedium,
		Owner:      "Automation Engineering",
		Title:      "Raise automation coverage",
		Subject:    "playbook automation share",
		TemplateID: "automation_target",
	},
	{
		ID:         "containment-rate",
		MetricPath: "quality.containment_rate",
		Comparator: AtLeast,
		Threshold:  func(c config.Config) float64 { return c.SLA.ContainmentRateMin },
		Priority:   domain.PriorityMedium,
		Owner:      "SOC Operations",
		Title:      "Raise end-to-end containment",
		Subject:    "end-to-end containment rate",
		TemplateID: "containment_rate",
	},
	{
		ID:              "response-advantage",
		MetricPath:      "response.advantage_percent",
		Comparator:      AtLeast,
		Threshold:       func(c config.Config) float64 { return 0 },
		Priority:        domain.PriorityLow,
		Owner:           "SOC Operations",
		Title:           "Response faster than industry benchmark",
		Subject:         "response advantage over the industry benchmark",
		TemplateID:      "response_advantage",
		AchievementOnly: true,
	},
}
