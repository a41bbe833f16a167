package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input string
		want  Severity
	}{
		{"Critical", SeverityCritical},
		{"1 - CRITICAL", SeverityCritical},
		{"high", SeverityHigh},
		{"2 - High", SeverityHigh},
		{"Medium", SeverityMedium},
		{"Med", SeverityMedium},
		{"LOW", SeverityLow},
		{"Informational", SeverityInformational},
		{"INFO", SeverityInformational},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSeverity(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSeverity_Unrecognized(t *testing.T) {
	for _, input := range []string{"", "Unknown", "P1", "severe"} {
		_, err := ParseSeverity(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestSeverity_RankOrdering(t *testing.T) {
	ordered := []Severity{
		SeverityInformational,
		SeverityLow,
		SeverityMedium,
		SeverityHigh,
		SeverityCritical,
	}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Rank(), ordered[i-1].Rank(),
			"%s must outrank %s", ordered[i], ordered[i-1])
	}
}

func TestParseDisposition(t *testing.T) {
	tests := []struct {
		input string
		want  Disposition
	}{
		{"True Positive", DispositionTruePositive},
		{"true_positive", DispositionTruePositive},
		{"False Positive", DispositionFalsePositive},
		{"false positive", DispositionFalsePositive},
		{"Benign", DispositionBenign},
	}

	for _, tt := range tests {
		got, err := ParseDisposition(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseDisposition("inconclusive")
	assert.Error(t, err)
}

func TestParseEscalationMethod(t *testing.T) {
	got, err := ParseEscalationMethod("Playbook")
	require.NoError(t, err)
	assert.Equal(t, EscalationPlaybook, got)

	got, err = ParseEscalationMethod("CS SOC")
	require.NoError(t, err)
	assert.Equal(t, EscalationAnalyst, got)

	// Any other non-empty value is the name of the playbook that escalated.
	got, err = ParseEscalationMethod("Phishing Triage v2")
	require.NoError(t, err)
	assert.Equal(t, EscalationPlaybook, got)

	_, err = ParseEscalationMethod("")
	assert.Error(t, err)
}

func TestParseResolutionMethod(t *testing.T) {
	got, err := ParseResolutionMethod("Closed End to End")
	require.NoError(t, err)
	assert.Equal(t, ResolutionEndToEnd, got)

	got, err = ParseResolutionMethod("Client Touch")
	require.NoError(t, err)
	assert.Equal(t, ResolutionClientTouch, got)
}

func TestIncidentRecord_ResponseMinutes(t *testing.T) {
	d := 90 * time.Minute
	rec := IncidentRecord{TimeToRespond: &d}

	minutes, ok := rec.ResponseMinutes()
	require.True(t, ok)
	assert.InDelta(t, 90.0, minutes, 0.001)

	_, ok = IncidentRecord{}.ResponseMinutes()
	assert.False(t, ok)
}

func TestPeriodBatch_Days(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	batch := PeriodBatch{Records: []IncidentRecord{
		{ID: "a", EscalatedAt: base},
		{ID: "b", EscalatedAt: base.AddDate(0, 0, 29)},
	}}

	assert.Equal(t, 30, batch.Days())
	assert.Equal(t, 1, PeriodBatch{}.Days())
}

func TestComputedMetrics_Lookup(t *testing.T) {
	m := &ComputedMetrics{}
	m.Volume.FalsePositiveRate = 9.0
	m.Response.MTTR = 42.5

	v, ok := m.Lookup("volume.false_positive_rate")
	require.True(t, ok)
	assert.Equal(t, 9.0, v)

	v, ok = m.Lookup("response.mttr_minutes")
	require.True(t, ok)
	assert.Equal(t, 42.5, v)

	_, ok = m.Lookup("no.such.metric")
	assert.False(t, ok)

	m.Unavailable = []string{"volume.false_positive_rate"}
	_, ok = m.Lookup("volume.false_positive_rate")
	assert.False(t, ok, "unavailable metrics must not resolve")
}
