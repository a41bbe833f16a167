package narrative

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bissquit/escalation-insights/internal/config"
	"github.com/bissquit/escalation-insights/internal/domain"
)

func testMetrics() *domain.ComputedMetrics {
	m := &domain.ComputedMetrics{
		ClientName:  "Acme Corp",
		Tier:        "Standard Tier",
		PeriodStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		PeriodDays:  30,
	}
	m.Volume.Total = 1284
	m.Volume.IncidentsPerDay = 42.8
	m.Volume.FalsePositiveRate = 9.0
	m.Response.MTTR = 96.0
	m.Response.ResponseAdvantagePercent = 50.0
	m.Response.SLAComplianceRate = 97.5
	m.Reconciliation.AlignedPercent = 62.9
	m.Cost.TotalModeled = 1250000
	return m
}

func TestNewBuilder_LoadsAllTemplates(t *testing.T) {
	b, err := NewBuilder(config.Default(), nil)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Len(t, b.templates, len(templateNames))
}

func TestBuild_ExecutiveSummary(t *testing.T) {
	b, err := NewBuilder(config.Default(), nil)
	require.NoError(t, err)

	out, err := b.Build(testMetrics(), nil, nil)
	require.NoError(t, err)

	summary := out.ExecutiveSummary
	assert.Contains(t, summary, "Acme Corp")
	assert.Contains(t, summary, "Standard Tier")
	assert.Contains(t, summary, "1,284", "totals are thousands separated")
	assert.Contains(t, summary, "42.8")
	assert.Contains(t, summary, "1:36", "MTTR rendered as h:mm")
	assert.Contains(t, summary, "50.0% response advantage")
	assert.Contains(t, summary, "9.0%")
	assert.Contains(t, summary, "62.9%")
	assert.Contains(t, summary, "1,250,000")
}

func TestBuild_SkipsUnavailableSentences(t *testing.T) {
	b, err := NewBuilder(config.Default(), nil)
	require.NoError(t, err)

	m := testMetrics()
	m.Unavailable = []string{"volume.false_positive_rate", "response.mttr_minutes"}

	out, err := b.Build(m, nil, nil)
	require.NoError(t, err)

	assert.NotContains(t, out.ExecutiveSummary, "false-positive")
	assert.NotContains(t, out.ExecutiveSummary, "Mean time to respond")
}

func TestBuild_InsightLines(t *testing.T) {
	b, err := NewBuilder(config.Default(), nil)
	require.NoError(t, err)

	recommendations := []domain.InsightItem{
		{
			RuleID:      "detection-tuning",
			Kind:        domain.InsightRecommendation,
			Priority:    domain.PriorityHigh,
			Title:       "Tune noisy detections",
			Description: "false-positive rate is 14.0 against a ceiling of 10.0",
			Owner:       "Detection Engineering",
			MetricPath:  "volume.false_positive_rate",
			Observed:    14.0,
			Target:      10.0,
		},
	}
	achievements := []domain.InsightItem{
		{
			RuleID:      "response-advantage",
			Kind:        domain.InsightAchievement,
			Title:       "Response faster than industry benchmark",
			Description: "response advantage over the industry benchmark reached 50.0%",
		},
	}

	out, err := b.Build(testMetrics(), recommendations, achievements)
	require.NoError(t, err)

	require.Len(t, out.Recommendations, 1)
	line := out.Recommendations[0]
	assert.True(t, strings.HasPrefix(line, "[High]"), "line %q carries the priority tag", line)
	assert.Contains(t, line, "Tune noisy detections")
	assert.Contains(t, line, "14.0")
	assert.Contains(t, line, "Detection Engineering")

	require.Len(t, out.Achievements, 1)
	assert.Contains(t, out.Achievements[0], "50.0%")

	assert.Contains(t, out.AreasOfFocus, "Tune noisy detections")
	assert.Contains(t, out.NextPeriodGoals, "from 14.0 to 10.0")
}

func TestBuild_NoRecommendationsNoFocusSections(t *testing.T) {
	b, err := NewBuilder(config.Default(), nil)
	require.NoError(t, err)

	out, err := b.Build(testMetrics(), nil, nil)
	require.NoError(t, err)

	assert.Empty(t, out.AreasOfFocus)
	assert.Empty(t, out.NextPeriodGoals)
	assert.Empty(t, out.Recommendations)
}

// Every numeric token in the rendered prose must originate from the metrics
// bundle or an insight item; the builder itself must not compute numbers.
func TestBuild_NoSynthesizedNumbers(t *testing.T) {
	b, err := NewBuilder(config.Default(), nil)
	require.NoError(t, err)

	m := testMetrics()
	out, err := b.Build(m, nil, nil)
	require.NoError(t, err)

	known := []string{
		"30", "1,284", "42.8", "1:36", "3:12", "50.0", "97.5", "9.0", "62.9", "1,250,000",
		"1", "31", "2025", // period dates
	}
	for _, token := range strings.Fields(out.ExecutiveSummary) {
		token = strings.Trim(token, ".,()%")
		if token == "" || !strings.ContainsAny(token, "0123456789") {
			continue
		}
		found := false
		for _, k := range known {
			if strings.Contains(token, k) || strings.Contains(k, token) {
				found = true
				break
			}
		}
		assert.True(t, found, "unexpected numeric token %q in summary", token)
	}
}
