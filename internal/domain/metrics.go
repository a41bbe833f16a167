package domain

import "time"

// VolumeMetrics are the escalation volume KPIs for one period.
type VolumeMetrics struct {
	Total             int     `json:"total"`
	TruePositives     int     `json:"true_positives"`
	FalsePositives    int     `json:"false_positives"`
	Benign            int     `json:"benign"`
	ClosedEndToEnd    int     `json:"closed_end_to_end"`
	ClientTouch       int     `json:"client_touch"`
	PlaybookCount     int     `json:"playbook_count"`
	PlaybookPercent   float64 `json:"playbook_percent"`
	AnalystCount      int     `json:"analyst_count"`
	AnalystPercent    float64 `json:"analyst_percent"`
	AutomationPercent float64 `json:"automation_percent"`
	FalsePositiveRate float64 `json:"false_positive_rate"`
	IncidentsPerDay   float64 `json:"incidents_per_day"`
}

// ResponseMetrics are the timing KPIs for one period, in minutes.
type ResponseMetrics struct {
	MTTR                     float64 `json:"mttr_minutes"`
	MTTD                     float64 `json:"mttd_minutes"`
	P90                      float64 `json:"p90_minutes"`
	Fastest                  float64 `json:"fastest_minutes"`
	CriticalHighMTTR         float64 `json:"critical_high_mttr_minutes"`
	CriticalHighP90          float64 `json:"critical_high_p90_minutes"`
	ResponseAdvantagePercent float64 `json:"response_advantage_percent"`
	SLAComplianceRate        float64 `json:"sla_compliance_rate"`
}

// ReconciliationMetrics compare the vendor severity against the internally
// assigned severity on the fixed ordinal scale. The three counts always sum
// to Total; the aggregator asserts this.
type ReconciliationMetrics struct {
	Total             int     `json:"total"`
	Upgraded          int     `json:"upgraded"`
	Downgraded        int     `json:"downgraded"`
	Aligned           int     `json:"aligned"`
	UpgradedPercent   float64 `json:"upgraded_percent"`
	DowngradedPercent float64 `json:"downgraded_percent"`
	AlignedPercent    float64 `json:"aligned_percent"`
}

// BreakdownGroup is one row of a grouped breakdown (by detection source or
// by MITRE tactic). Groups with zero members are never emitted.
type BreakdownGroup struct {
	Name              string  `json:"name"`
	Count             int     `json:"count"`
	Percent           float64 `json:"percent"`
	FalsePositiveRate float64 `json:"false_positive_rate"`
}

// TimeOfDayMetrics split escalations into three exclusive buckets. The
// percentages sum to 100 within rounding tolerance.
type TimeOfDayMetrics struct {
	BusinessHours        int              `json:"business_hours"`
	AfterHoursWeeknight  int              `json:"after_hours_weeknight"`
	AfterHoursWeekend    int              `json:"after_hours_weekend"`
	BusinessHoursPercent float64          `json:"business_hours_percent"`
	WeeknightPercent     float64          `json:"weeknight_percent"`
	WeekendPercent       float64          `json:"weekend_percent"`
	AfterHoursTotal      int              `json:"after_hours_total"`
	AfterHoursBySeverity map[Severity]int `json:"after_hours_by_severity"`
}

// QualityMetrics describe detection quality for the period.
type QualityMetrics struct {
	Precision         float64 `json:"true_threat_precision"`
	SignalFidelity    float64 `json:"signal_fidelity"`
	FalsePositiveRate float64 `json:"false_positive_rate"`
	ContainmentRate   float64 `json:"containment_rate"`
	SignalToNoise     float64 `json:"signal_to_noise"`
}

// CostMetrics is the modeled cost-avoidance summary, in whole currency
// units from the configured labor and breach constants.
type CostMetrics struct {
	AnalystHours          int `json:"analyst_hours"`
	AnalystCost           int `json:"analyst_cost"`
	CoverageHours         int `json:"coverage_hours"`
	CoverageCost          int `json:"coverage_cost"`
	BreachExposureAvoided int `json:"breach_exposure_avoided"`
	TotalModeled          int `json:"total_modeled"`
}

// SeverityResponseRow is the per-severity SLA view.
type SeverityResponseRow struct {
	Severity      Severity `json:"severity"`
	Count         int      `json:"count"`
	MeanMinutes   float64  `json:"mean_minutes"`
	TargetMinutes float64  `json:"target_minutes"`
	MetTarget     bool     `json:"met_target"`
}

// ComparisonRow compares one observed KPI against its industry benchmark.
// DeltaPercent is positive when the observed value beats the benchmark.
type ComparisonRow struct {
	Metric       string  `json:"metric"`
	Observed     float64 `json:"observed"`
	Industry     float64 `json:"industry"`
	DeltaPercent float64 `json:"delta_percent"`
}

// TrendSeries holds one value per period per tracked KPI, in chronological
// order. Series length always equals len(Labels).
type TrendSeries struct {
	Labels            []string  `json:"labels"`
	MTTR              []float64 `json:"mttr_minutes"`
	MTTD              []float64 `json:"mttd_minutes"`
	FalsePositiveRate []float64 `json:"false_positive_rate"`
	Volume            []int     `json:"volume"`
}

// ComputedMetrics is the full aggregation output for a run. It is built
// once by the aggregator and read-only afterwards.
type ComputedMetrics struct {
	ClientName  string    `json:"client_name"`
	Tier        string    `json:"tier"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	PeriodDays  int       `json:"period_days"`

	Volume         VolumeMetrics         `json:"volume"`
	Response       ResponseMetrics       `json:"response"`
	Reconciliation ReconciliationMetrics `json:"reconciliation"`
	TimeOfDay      TimeOfDayMetrics      `json:"time_of_day"`
	Quality        QualityMetrics        `json:"quality"`
	Cost           CostMetrics           `json:"cost"`

	Sources            []BreakdownGroup      `json:"sources,omitempty"`
	Tactics            []BreakdownGroup      `json:"tactics,omitempty"`
	SeverityResponse   []SeverityResponseRow `json:"severity_response"`
	IndustryComparison []ComparisonRow       `json:"industry_comparison"`

	Trends        TrendSeries  `json:"trends"`
	MonthlyTrends *TrendSeries `json:"monthly_trends,omitempty"`

	// Unavailable lists metric paths that could not be computed because
	// their source column was absent. Consumers decide how to render the
	// gap; the aggregator never substitutes a default.
	Unavailable []string `json:"unavailable,omitempty"`
}

// IsUnavailable reports whether the metric at path was flagged as not
// computable for this run.
func (m *ComputedMetrics) IsUnavailable(path string) bool {
	for _, p := range m.Unavailable {
		if p == path {
			return true
		}
	}
	return false
}

// Lookup resolves a dotted metric path to its scalar value. The path set is
// closed: it covers exactly the scalars the rule catalog may reference.
func (m *ComputedMetrics) Lookup(path string) (float64, bool) {
	if m.IsUnavailable(path) {
		return 0, false
	}

	switch path {
	case "volume.false_positive_rate":
		return m.Volume.FalsePositiveRate, true
	case "volume.automation_percent":
		return m.Volume.AutomationPercent, true
	case "volume.analyst_percent":
		return m.Volume.AnalystPercent, true
	case "volume.incidents_per_day":
		return m.Volume.IncidentsPerDay, true
	case "response.mttr_minutes":
		return m.Response.MTTR, true
	case "response.mttd_minutes":
		return m.Response.MTTD, true
	case "response.p90_minutes":
		return m.Response.P90, true
	case "response.sla_compliance_rate":
		return m.Response.SLAComplianceRate, true
	case "response.advantage_percent":
		return m.Response.ResponseAdvantagePercent, true
	case "quality.containment_rate":
		return m.Quality.ContainmentRate, true
	case "quality.signal_fidelity":
		return m.Quality.SignalFidelity, true
	case "reconciliation.aligned_percent":
		return m.Reconciliation.AlignedPercent, true
	}

	return 0, false
}
