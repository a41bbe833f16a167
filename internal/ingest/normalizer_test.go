package ingest

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bissquit/escalation-insights/internal/config"
	"github.com/bissquit/escalation-insights/internal/domain"
)

func testNormalizer() *Normalizer {
	return New(config.Default().BusinessHours, nil)
}

const fullHeader = "Incident Id,Escalated Datetime UTC,Severity,Current Priority,Detection Source,MITRE Tactic,Disposition,Initial Escalation Method,Resolution Method,TTR (hh:mm),TTD Minutes"

func TestNormalize_FullExport(t *testing.T) {
	csv := fullHeader + "\n" +
		"INC-1,2025-03-03 10:15:00,High,Critical,EDR,Execution,True Positive,Playbook,Closed End to End,1:30,12\n" +
		"INC-2,2025-03-04 22:40:00,Medium,Medium,SIEM,Persistence,False Positive,CS SOC,Client Touch,0:45,8\n"

	batch, report, err := testNormalizer().Normalize(strings.NewReader(csv), "march")
	require.NoError(t, err)

	assert.Equal(t, "march", batch.Label)
	require.Len(t, batch.Records, 2)
	assert.Equal(t, 2, report.Valid)
	assert.Zero(t, report.Skipped)
	// The export carries durations, not raw timestamps.
	assert.ElementsMatch(t, []string{"detected_at", "responded_at"}, report.MissingColumns)

	first := batch.Records[0]
	assert.Equal(t, "INC-1", first.ID)
	assert.Equal(t, domain.SeverityHigh, first.VendorSeverity)
	assert.Equal(t, domain.SeverityCritical, first.InternalSeverity)
	assert.Equal(t, domain.DispositionTruePositive, first.Disposition)
	assert.Equal(t, domain.EscalationPlaybook, first.Escalation)
	assert.Equal(t, domain.ResolutionEndToEnd, first.Resolution)
	require.NotNil(t, first.TimeToRespond)
	assert.Equal(t, 90*time.Minute, *first.TimeToRespond)
	assert.False(t, first.AfterHours, "Monday 10:15 is business hours")

	second := batch.Records[1]
	assert.Equal(t, domain.EscalationAnalyst, second.Escalation)
	assert.True(t, second.AfterHours, "Tuesday 22:40 is after hours")
	assert.False(t, second.Weekend)
}

func TestNormalize_HeaderAliases(t *testing.T) {
	// Same columns under alternate header spellings, different order.
	csv := "Current Priority,Severity,Incident ID,Escalated Datetime (UTC)\n" +
		"High,Medium,INC-9,2025-03-05 09:00:00\n"

	batch, _, err := testNormalizer().Normalize(strings.NewReader(csv), "t")
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)

	rec := batch.Records[0]
	assert.Equal(t, "INC-9", rec.ID)
	assert.Equal(t, domain.SeverityMedium, rec.VendorSeverity)
	assert.Equal(t, domain.SeverityHigh, rec.InternalSeverity)
}

func TestNormalize_MissingRequiredColumn(t *testing.T) {
	csv := "Incident Id,Escalated Datetime UTC,Severity\n" +
		"INC-1,2025-03-03 10:00:00,High\n"

	_, _, err := testNormalizer().Normalize(strings.NewReader(csv), "t")
	require.Error(t, err)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "internal_severity", schemaErr.Column)
}

func TestNormalize_MissingOptionalColumnsReported(t *testing.T) {
	csv := "Incident Id,Escalated Datetime UTC,Severity,Current Priority\n" +
		"INC-1,2025-03-03 10:00:00,High,High\n"

	_, report, err := testNormalizer().Normalize(strings.NewReader(csv), "t")
	require.NoError(t, err)
	assert.Contains(t, report.MissingColumns, "disposition")
	assert.Contains(t, report.MissingColumns, "source")
	assert.Contains(t, report.MissingColumns, "time_to_respond")
}

func TestNormalize_BadRowsSkippedNotFatal(t *testing.T) {
	csv := fullHeader + "\n" +
		"INC-1,2025-03-03 10:00:00,High,High,EDR,Execution,True Positive,Playbook,Closed End to End,1:00,5\n" +
		"INC-2,not-a-date,High,High,EDR,Execution,True Positive,Playbook,Closed End to End,1:00,5\n" +
		"INC-3,2025-03-03 11:00:00,Unknown,High,EDR,Execution,True Positive,Playbook,Closed End to End,1:00,5\n" +
		",2025-03-03 12:00:00,High,High,EDR,Execution,True Positive,Playbook,Closed End to End,1:00,5\n"

	batch, report, err := testNormalizer().Normalize(strings.NewReader(csv), "t")
	require.NoError(t, err)

	assert.Len(t, batch.Records, 1)
	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, 3, report.Skipped)
	require.Len(t, report.Errors, 3)
	assert.Equal(t, "escalated_at", report.Errors[0].Column)
	assert.Equal(t, "vendor_severity", report.Errors[1].Column)
	assert.Equal(t, "incident_id", report.Errors[2].Column)
}

func TestNormalize_EmptyDataset(t *testing.T) {
	csv := fullHeader + "\n" +
		"INC-1,garbage,High,High,EDR,Execution,True Positive,Playbook,Closed End to End,1:00,5\n"

	_, report, err := testNormalizer().Normalize(strings.NewReader(csv), "t")
	require.ErrorIs(t, err, ErrEmptyDataset)
	assert.Equal(t, 1, report.Skipped)
}

func TestNormalize_BlankRowsIgnored(t *testing.T) {
	csv := "Incident Id,Escalated Datetime UTC,Severity,Current Priority\n" +
		"INC-1,2025-03-03 10:00:00,High,High\n" +
		",,,\n"

	_, report, err := testNormalizer().Normalize(strings.NewReader(csv), "t")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Rows)
	assert.Zero(t, report.Skipped)
}

func TestNormalize_ResponseTimeFromTimestamps(t *testing.T) {
	csv := "Incident Id,Escalated Datetime UTC,Severity,Current Priority,Responded Datetime UTC\n" +
		"INC-1,2025-03-03 10:00:00,High,High,2025-03-03 10:45:00\n"

	batch, _, err := testNormalizer().Normalize(strings.NewReader(csv), "t")
	require.NoError(t, err)
	require.NotNil(t, batch.Records[0].TimeToRespond)
	assert.Equal(t, 45*time.Minute, *batch.Records[0].TimeToRespond)
}

func TestNormalize_DetectionTimeFromTimestamps(t *testing.T) {
	csv := "Incident Id,Escalated Datetime UTC,Severity,Current Priority,Detected Datetime UTC\n" +
		"INC-1,2025-03-03 10:00:00,High,High,2025-03-03 09:30:00\n"

	batch, _, err := testNormalizer().Normalize(strings.NewReader(csv), "t")
	require.NoError(t, err)
	require.NotNil(t, batch.Records[0].TimeToDetect)
	assert.Equal(t, 30*time.Minute, *batch.Records[0].TimeToDetect)
}

func TestNormalize_DetectionAfterEscalationSkipsRow(t *testing.T) {
	csv := "Incident Id,Escalated Datetime UTC,Severity,Current Priority,Detected Datetime UTC\n" +
		"INC-1,2025-03-03 10:00:00,High,High,2025-03-03 11:00:00\n"

	_, report, err := testNormalizer().Normalize(strings.NewReader(csv), "t")
	require.ErrorIs(t, err, ErrEmptyDataset)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "detected_at", report.Errors[0].Column)
}

func TestNormalize_NegativeResponseTimeSkipsRow(t *testing.T) {
	csv := "Incident Id,Escalated Datetime UTC,Severity,Current Priority,Responded Datetime UTC\n" +
		"INC-1,2025-03-03 10:00:00,High,High,2025-03-03 09:00:00\n"

	_, report, err := testNormalizer().Normalize(strings.NewReader(csv), "t")
	require.ErrorIs(t, err, ErrEmptyDataset)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "responded_at", report.Errors[0].Column)
}

func TestNormalize_BatchRange(t *testing.T) {
	csv := "Incident Id,Escalated Datetime UTC,Severity,Current Priority\n" +
		"INC-1,2025-03-10 08:00:00,High,High\n" +
		"INC-2,2025-03-01 08:00:00,High,High\n" +
		"INC-3,2025-03-20 08:00:00,High,High\n"

	batch, _, err := testNormalizer().Normalize(strings.NewReader(csv), "t")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), batch.Start)
	assert.True(t, batch.End.After(time.Date(2025, 3, 20, 8, 0, 0, 0, time.UTC)),
		"end bound is exclusive of the last escalation")
	assert.Equal(t, 20, batch.Days())
}

func TestParseMinutes(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"1:30", 90 * time.Minute},
		{"0:05", 5 * time.Minute},
		{"12:00", 12 * time.Hour},
		{"45", 45 * time.Minute},
		{"7.5", 450 * time.Second},
	}

	for _, tt := range tests {
		got, err := parseMinutes(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}

	for _, bad := range []string{"", "-5", "1:75", "soon"} {
		_, err := parseMinutes(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestNormalizeFile_MissingFile(t *testing.T) {
	_, _, err := testNormalizer().NormalizeFile("/nonexistent/export.csv", "t")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmptyDataset))
}
