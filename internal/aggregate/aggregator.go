// Package aggregate turns normalized period batches into the full
// computed-metrics bundle.
//
// Aggregation is deterministic and pure with respect to its inputs: the
// same batches and configuration always produce an identical bundle,
// including rounding (one-decimal round-half-even throughout). Postcondition
// failures surface as InvariantViolation instead of degrading silently.
package aggregate

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/bissquit/escalation-insights/internal/config"
	"github.com/bissquit/escalation-insights/internal/domain"
)

// Aggregator computes metrics for one client configuration.
type Aggregator struct {
	cfg    config.Config
	logger *slog.Logger
}

// New creates an aggregator bound to a client configuration.
func New(cfg config.Config, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{cfg: cfg, logger: logger}
}

// columnMetricPaths maps a missing export column to the metric paths that
// become unavailable without it. The aggregator omits those metrics and
// flags them rather than substituting defaults.
var columnMetricPaths = map[string][]string{
	"disposition": {
		"volume.false_positive_rate",
		"quality.false_positive_rate",
		"quality.true_threat_precision",
		"quality.signal_fidelity",
		"quality.containment_rate",
		"quality.signal_to_noise",
	},
	"source":            {"sources"},
	"tactic":            {"tactics"},
	"escalation_method": {"volume.automation_percent", "volume.analyst_percent"},
	"resolution_method": {"volume.closed_end_to_end", "quality.containment_rate"},
}

var responseMetricPaths = []string{
	"response.mttr_minutes",
	"response.p90_minutes",
	"response.sla_compliance_rate",
	"response.advantage_percent",
}

// Aggregate computes the full metrics bundle for the current batch, with
// prior batches contributing only to the trend series. missingColumns
// carries the canonical names of optional export columns that were absent.
func (a *Aggregator) Aggregate(current domain.PeriodBatch, priors []domain.PeriodBatch, missingColumns []string) (*domain.ComputedMetrics, error) {
	if len(current.Records) == 0 {
		return nil, ErrEmptyCurrentBatch
	}

	start := time.Now()
	records := current.Records
	days := current.Days()

	m := &domain.ComputedMetrics{
		Tier:        a.cfg.Tier,
		ClientName:  a.cfg.ClientNameOverride,
		PeriodStart: current.Start,
		PeriodEnd:   current.End,
		PeriodDays:  days,
		Unavailable: unavailablePaths(missingColumns),
	}

	m.Volume = a.volumeMetrics(records, days)
	m.Response = a.responseMetrics(records, m)
	var err error
	m.Reconciliation, err = reconciliationMetrics(records)
	if err != nil {
		return nil, err
	}

	if !m.IsUnavailable("sources") {
		m.Sources = breakdownBy(records, func(r domain.IncidentRecord) string { return r.Source })
	}
	if !m.IsUnavailable("tactics") {
		m.Tactics = breakdownBy(records, func(r domain.IncidentRecord) string { return r.Tactic })
	}

	m.TimeOfDay, err = timeOfDayMetrics(records)
	if err != nil {
		return nil, err
	}
	m.Quality = qualityMetrics(records, m.Volume)
	m.Cost = a.costMetrics(records, days)
	m.SeverityResponse = a.severityResponse(records)
	m.IndustryComparison = a.industryComparison(m)

	batches := append(slices.Clone(priors), current)
	m.Trends = a.trendSeries(batches)
	if monthly := a.monthlyTrends(current); monthly != nil {
		m.MonthlyTrends = monthly
	}

	if err := checkInvariants(m); err != nil {
		return nil, err
	}

	recordAggregation(time.Since(start))
	a.logger.Info("aggregated metrics",
		"records", len(records),
		"periods", len(batches),
		"period_days", days,
	)

	return m, nil
}

func unavailablePaths(missingColumns []string) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(paths ...string) {
		for _, p := range paths {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				out = append(out, p)
			}
		}
	}

	missing := map[string]bool{}
	for _, c := range missingColumns {
		missing[c] = true
	}
	for column, paths := range columnMetricPaths {
		if missing[column] {
			add(paths...)
		}
	}
	// Response timing survives either a duration column or a response
	// timestamp; only losing both disables the timing metrics. Detection
	// timing works the same way.
	if missing["time_to_respond"] && missing["responded_at"] {
		add(responseMetricPaths...)
	}
	if missing["time_to_detect"] && missing["detected_at"] {
		add("response.mttd_minutes")
	}
	sort.Strings(out)
	return out
}

func (a *Aggregator) volumeMetrics(records []domain.IncidentRecord, days int) domain.VolumeMetrics {
	var v domain.VolumeMetrics
	v.Total = len(records)

	for _, r := range records {
		switch r.Disposition {
		case domain.DispositionTruePositive:
			v.TruePositives++
		case domain.DispositionFalsePositive:
			v.FalsePositives++
		case domain.DispositionBenign:
			v.Benign++
		}
		switch r.Escalation {
		case domain.EscalationPlaybook:
			v.PlaybookCount++
		case domain.EscalationAnalyst:
			v.AnalystCount++
		}
		switch r.Resolution {
		case domain.ResolutionEndToEnd:
			v.ClosedEndToEnd++
		case domain.ResolutionClientTouch:
			v.ClientTouch++
		}
	}

	v.FalsePositiveRate = rate(v.FalsePositives, v.Total)
	v.PlaybookPercent = rate(v.PlaybookCount, v.Total)
	v.AnalystPercent = rate(v.AnalystCount, v.Total)
	v.AutomationPercent = v.PlaybookPercent
	v.IncidentsPerDay = round1(float64(v.Total) / float64(days))

	return v
}

func (a *Aggregator) responseMetrics(records []domain.IncidentRecord, m *domain.ComputedMetrics) domain.ResponseMetrics {
	var resp domain.ResponseMetrics

	var ttr, ttd, critHighTTR []float64
	met, withTarget := 0, 0

	for _, r := range records {
		if minutes, ok := r.ResponseMinutes(); ok {
			ttr = append(ttr, minutes)
			if r.InternalSeverity.Rank() >= domain.SeverityHigh.Rank() {
				critHighTTR = append(critHighTTR, minutes)
			}
			withTarget++
			if minutes <= a.cfg.SLA.TargetFor(r.InternalSeverity) {
				met++
			}
		}
		if minutes, ok := r.DetectMinutes(); ok {
			ttd = append(ttd, minutes)
		}
	}

	if len(ttr) == 0 {
		m.Unavailable = mergePaths(m.Unavailable, responseMetricPaths)
	} else {
		resp.MTTR = round1(mean(ttr))
		resp.P90 = round1(percentile(ttr, 90))
		resp.Fastest = slices.Min(ttr)
		resp.SLAComplianceRate = rate(met, withTarget)
		if bench := a.cfg.Benchmarks.MTTRMinutes; bench > 0 {
			resp.ResponseAdvantagePercent = round1((bench - resp.MTTR) / bench * 100)
		}
	}

	if len(critHighTTR) > 0 {
		resp.CriticalHighMTTR = round1(mean(critHighTTR))
		resp.CriticalHighP90 = round1(percentile(critHighTTR, 90))
	}

	if len(ttd) == 0 {
		m.Unavailable = mergePaths(m.Unavailable, []string{"response.mttd_minutes"})
	} else {
		resp.MTTD = round1(mean(ttd))
	}

	return resp
}

func mergePaths(existing, add []string) []string {
	for _, p := range add {
		if !slices.Contains(existing, p) {
			existing = append(existing, p)
		}
	}
	sort.Strings(existing)
	return existing
}

// reconciliationMetrics classifies every record by comparing the internal
// severity against the vendor severity on the fixed ordinal scale. The
// three class counts must sum to the record total; anything else means the
// normalizer let an invalid severity through.
func reconciliationMetrics(records []domain.IncidentRecord) (domain.ReconciliationMetrics, error) {
	var rec domain.ReconciliationMetrics
	rec.Total = len(records)

	for _, r := range records {
		switch {
		case r.InternalSeverity.Rank() > r.VendorSeverity.Rank():
			rec.Upgraded++
		case r.InternalSeverity.Rank() < r.VendorSeverity.Rank():
			rec.Downgraded++
		default:
			rec.Aligned++
		}
	}

	if rec.Upgraded+rec.Downgraded+rec.Aligned != rec.Total {
		return rec, &InvariantViolation{
			Check: "reconciliation_sum",
			Detail: fmt.Sprintf("upgraded %d + downgraded %d + aligned %d != total %d",
				rec.Upgraded, rec.Downgraded, rec.Aligned, rec.Total),
		}
	}

	rec.UpgradedPercent = rate(rec.Upgraded, rec.Total)
	rec.DowngradedPercent = rate(rec.Downgraded, rec.Total)
	rec.AlignedPercent = rate(rec.Aligned, rec.Total)

	return rec, nil
}

// breakdownBy groups records by key with a per-group false-positive rate.
// Empty keys fall into "Unknown"; zero-member groups are never emitted.
// Ordering is count descending, then name, so output is deterministic.
func breakdownBy(records []domain.IncidentRecord, key func(domain.IncidentRecord) string) []domain.BreakdownGroup {
	counts := map[string]int{}
	fps := map[string]int{}

	for _, r := range records {
		k := key(r)
		if k == "" {
			k = "Unknown"
		}
		counts[k]++
		if r.Disposition == domain.DispositionFalsePositive {
			fps[k]++
		}
	}

	groups := make([]domain.BreakdownGroup, 0, len(counts))
	for name, count := range counts {
		groups = append(groups, domain.BreakdownGroup{
			Name:              name,
			Count:             count,
			Percent:           rate(count, len(records)),
			FalsePositiveRate: rate(fps[name], count),
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Name < groups[j].Name
	})

	return groups
}

// timeOfDayMetrics splits escalations into three exclusive buckets using
// the tags computed at normalization. The weekend percentage is assigned
// the residual so the three always sum to exactly 100.
func timeOfDayMetrics(records []domain.IncidentRecord) (domain.TimeOfDayMetrics, error) {
	var tod domain.TimeOfDayMetrics
	tod.AfterHoursBySeverity = map[domain.Severity]int{}

	for _, r := range records {
		switch {
		case r.Weekend:
			tod.AfterHoursWeekend++
		case r.AfterHours:
			tod.AfterHoursWeeknight++
		default:
			tod.BusinessHours++
		}
		if r.Weekend || r.AfterHours {
			tod.AfterHoursBySeverity[r.InternalSeverity]++
		}
	}
	tod.AfterHoursTotal = tod.AfterHoursWeeknight + tod.AfterHoursWeekend

	total := len(records)
	tod.BusinessHoursPercent = rate(tod.BusinessHours, total)
	tod.WeeknightPercent = rate(tod.AfterHoursWeeknight, total)
	tod.WeekendPercent = round1(100 - tod.BusinessHoursPercent - tod.WeeknightPercent)
	if tod.WeekendPercent < 0 {
		tod.WeekendPercent = 0
	}

	sum := tod.BusinessHoursPercent + tod.WeeknightPercent + tod.WeekendPercent
	if math.Abs(sum-100) > 0.1 {
		return tod, &InvariantViolation{
			Check:  "time_of_day_sum",
			Detail: fmt.Sprintf("bucket percentages sum to %.2f", sum),
		}
	}

	if tod.BusinessHours+tod.AfterHoursWeeknight+tod.AfterHoursWeekend != total {
		return tod, &InvariantViolation{
			Check:  "time_of_day_counts",
			Detail: fmt.Sprintf("bucket counts do not sum to total %d", total),
		}
	}

	return tod, nil
}

func qualityMetrics(records []domain.IncidentRecord, v domain.VolumeMetrics) domain.QualityMetrics {
	var q domain.QualityMetrics
	q.FalsePositiveRate = v.FalsePositiveRate
	q.Precision = rate(v.TruePositives, v.Total)
	q.SignalFidelity = round1(100 - v.FalsePositiveRate)

	containedTP := 0
	for _, r := range records {
		if r.Disposition == domain.DispositionTruePositive && r.Resolution == domain.ResolutionEndToEnd {
			containedTP++
		}
	}
	if v.TruePositives > 0 {
		q.ContainmentRate = rate(containedTP, v.TruePositives)
	} else {
		q.ContainmentRate = 100
	}

	if v.FalsePositives > 0 {
		q.SignalToNoise = round1(float64(v.TruePositives) / float64(v.FalsePositives))
	} else {
		q.SignalToNoise = float64(v.TruePositives)
	}

	return q
}

// costMetrics models avoided cost from configured labor and breach
// constants: 1.5 analyst hours per triaged incident, 24x7 coverage over the
// period, and 15% of the configured breach cost per contained true threat.
func (a *Aggregator) costMetrics(records []domain.IncidentRecord, days int) domain.CostMetrics {
	var c domain.CostMetrics

	c.AnalystHours = int(float64(len(records)) * 1.5)
	c.AnalystCost = c.AnalystHours * a.cfg.Cost.AnalystHourlyRate

	c.CoverageHours = days * 24
	c.CoverageCost = c.CoverageHours * a.cfg.Cost.CoverageHourlyRate / 10

	tp := 0
	for _, r := range records {
		if r.Disposition == domain.DispositionTruePositive {
			tp++
		}
	}
	c.BreachExposureAvoided = tp * int(float64(a.cfg.Cost.BreachCostEstimate)*0.15)

	c.TotalModeled = c.AnalystCost + c.CoverageCost + c.BreachExposureAvoided
	return c
}

var severityDisplayOrder = []domain.Severity{
	domain.SeverityCritical,
	domain.SeverityHigh,
	domain.SeverityMedium,
	domain.SeverityLow,
	domain.SeverityInformational,
}

func (a *Aggregator) severityResponse(records []domain.IncidentRecord) []domain.SeverityResponseRow {
	bySeverity := map[domain.Severity][]float64{}
	for _, r := range records {
		if minutes, ok := r.ResponseMinutes(); ok {
			bySeverity[r.InternalSeverity] = append(bySeverity[r.InternalSeverity], minutes)
		}
	}

	rows := make([]domain.SeverityResponseRow, 0, len(bySeverity))
	for _, sev := range severityDisplayOrder {
		values, ok := bySeverity[sev]
		if !ok {
			continue
		}
		target := a.cfg.SLA.TargetFor(sev)
		avg := round1(mean(values))
		rows = append(rows, domain.SeverityResponseRow{
			Severity:      sev,
			Count:         len(values),
			MeanMinutes:   avg,
			TargetMinutes: target,
			MetTarget:     avg <= target,
		})
	}
	return rows
}

func (a *Aggregator) industryComparison(m *domain.ComputedMetrics) []domain.ComparisonRow {
	var rows []domain.ComparisonRow
	add := func(metric string, observed, industry float64) {
		if observed <= 0 || industry <= 0 {
			return
		}
		rows = append(rows, domain.ComparisonRow{
			Metric:       metric,
			Observed:     observed,
			Industry:     industry,
			DeltaPercent: round1((industry - observed) / industry * 100),
		})
	}

	add("MTTR", m.Response.MTTR, a.cfg.Benchmarks.MTTRMinutes)
	add("MTTD", m.Response.MTTD, a.cfg.Benchmarks.MTTDMinutes)
	add("Incidents/Day", m.Volume.IncidentsPerDay, a.cfg.Benchmarks.IncidentsPerDay)

	return rows
}

// trendSeries recomputes the scalar KPIs per batch and concatenates them in
// chronological order. The trend is positional: gaps between periods are
// allowed and batch sizes may differ.
func (a *Aggregator) trendSeries(batches []domain.PeriodBatch) domain.TrendSeries {
	n := len(batches)
	series := domain.TrendSeries{
		Labels:            make([]string, 0, n),
		MTTR:              make([]float64, 0, n),
		MTTD:              make([]float64, 0, n),
		FalsePositiveRate: make([]float64, 0, n),
		Volume:            make([]int, 0, n),
	}

	for i, batch := range batches {
		label := "Current"
		if i < n-1 {
			label = fmt.Sprintf("Period -%d", n-1-i)
		}
		appendKPIs(&series, label, batch.Records)
	}

	return series
}

// monthlyTrends buckets the current batch by calendar month, giving a
// within-period trend when a single export spans several months. Returns
// nil when the batch covers fewer than two months.
func (a *Aggregator) monthlyTrends(current domain.PeriodBatch) *domain.TrendSeries {
	byMonth := map[string][]domain.IncidentRecord{}
	for _, r := range current.Records {
		key := r.EscalatedAt.Format("2006-01")
		byMonth[key] = append(byMonth[key], r)
	}
	if len(byMonth) < 2 {
		return nil
	}

	keys := make([]string, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	series := &domain.TrendSeries{}
	for _, key := range keys {
		t, _ := time.Parse("2006-01", key)
		appendKPIs(series, t.Format("Jan 2006"), byMonth[key])
	}
	return series
}

func appendKPIs(series *domain.TrendSeries, label string, records []domain.IncidentRecord) {
	var ttr, ttd []float64
	fp := 0
	for _, r := range records {
		if minutes, ok := r.ResponseMinutes(); ok {
			ttr = append(ttr, minutes)
		}
		if minutes, ok := r.DetectMinutes(); ok {
			ttd = append(ttd, minutes)
		}
		if r.Disposition == domain.DispositionFalsePositive {
			fp++
		}
	}

	series.Labels = append(series.Labels, label)
	series.MTTR = append(series.MTTR, round1(mean(ttr)))
	series.MTTD = append(series.MTTD, round1(mean(ttd)))
	series.FalsePositiveRate = append(series.FalsePositiveRate, rate(fp, len(records)))
	series.Volume = append(series.Volume, len(records))
}

// checkInvariants verifies the bundle postconditions the report depends
// on: rates bounded to [0,100], breakdown members summing to the record
// total, and trend series lengths matching their labels.
func checkInvariants(m *domain.ComputedMetrics) error {
	bounded := map[string]float64{
		"volume.false_positive_rate":     m.Volume.FalsePositiveRate,
		"volume.automation_percent":      m.Volume.AutomationPercent,
		"volume.analyst_percent":         m.Volume.AnalystPercent,
		"response.sla_compliance_rate":   m.Response.SLAComplianceRate,
		"reconciliation.aligned_percent": m.Reconciliation.AlignedPercent,
		"quality.true_threat_precision":  m.Quality.Precision,
		"quality.containment_rate":       m.Quality.ContainmentRate,
		"time_of_day.business_percent":   m.TimeOfDay.BusinessHoursPercent,
	}
	for name, v := range bounded {
		if v < 0 || v > 100 {
			return &InvariantViolation{
				Check:  "rate_bounds",
				Detail: fmt.Sprintf("%s = %.2f outside [0,100]", name, v),
			}
		}
	}

	total := m.Volume.Total
	for name, groups := range map[string][]domain.BreakdownGroup{"sources": m.Sources, "tactics": m.Tactics} {
		if groups == nil {
			continue
		}
		sum := 0
		for _, g := range groups {
			if g.Count == 0 {
				return &InvariantViolation{
					Check:  "breakdown_zero_group",
					Detail: fmt.Sprintf("%s group %q has zero members", name, g.Name),
				}
			}
			sum += g.Count
		}
		if sum != total {
			return &InvariantViolation{
				Check:  "breakdown_sum",
				Detail: fmt.Sprintf("%s member counts sum to %d, want %d", name, sum, total),
			}
		}
	}

	for name, length := range map[string]int{
		"mttr":   len(m.Trends.MTTR),
		"mttd":   len(m.Trends.MTTD),
		"fp":     len(m.Trends.FalsePositiveRate),
		"volume": len(m.Trends.Volume),
	} {
		if length != len(m.Trends.Labels) {
			return &InvariantViolation{
				Check:  "trend_length",
				Detail: fmt.Sprintf("%s series has %d points for %d labels", name, length, len(m.Trends.Labels)),
			}
		}
	}

	return nil
}
