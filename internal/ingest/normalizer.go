// Package ingest normalizes tabular incident exports into typed records.
//
// One export file becomes one PeriodBatch. Rows that fail validation are
// skipped and reported, never fatal; the batch fails only when a required
// column is missing or no row survives.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bissquit/escalation-insights/internal/config"
	"github.com/bissquit/escalation-insights/internal/domain"
)

// Normalizer parses exports and tags records with time semantics. It holds
// no state between calls and is safe for concurrent use.
type Normalizer struct {
	hours  config.BusinessHours
	logger *slog.Logger
}

// New creates a normalizer for the given business-hours window.
func New(hours config.BusinessHours, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{hours: hours, logger: logger}
}

// NormalizeFile reads and normalizes one export file. The file is fully
// read and closed before the batch is returned.
func (n *Normalizer) NormalizeFile(path, label string) (domain.PeriodBatch, Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.PeriodBatch{}, Report{}, fmt.Errorf("open export %s: %w", path, err)
	}
	defer f.Close()

	return n.Normalize(f, label)
}

// Normalize parses one CSV export into a PeriodBatch. Column order is
// irrelevant; headers are matched by name through the alias table.
func (n *Normalizer) Normalize(r io.Reader, label string) (domain.PeriodBatch, Report, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return domain.PeriodBatch{}, Report{}, fmt.Errorf("read export header: %w", err)
	}

	index, report, err := resolveColumns(header)
	if err != nil {
		return domain.PeriodBatch{}, report, err
	}

	var records []domain.IncidentRecord
	for rowNum := 2; ; rowNum++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.PeriodBatch{}, report, fmt.Errorf("read export row %d: %w", rowNum, err)
		}
		if isBlankRow(row) {
			continue
		}

		report.Rows++
		rec, rowErr := n.parseRow(rowNum, row, index)
		if rowErr != nil {
			report.Skipped++
			report.Errors = append(report.Errors, *rowErr)
			recordRowSkipped(rowErr.Column)
			continue
		}
		report.Valid++
		records = append(records, rec)
	}
	recordRowsParsed(report.Valid)

	if len(report.Errors) > 0 {
		n.logger.Warn("rows skipped during normalization",
			"label", label,
			"skipped", report.Skipped,
			"valid", report.Valid,
		)
	}

	if len(records) == 0 {
		return domain.PeriodBatch{}, report, ErrEmptyDataset
	}

	batch := domain.PeriodBatch{Label: label, Records: records}
	batch.Start, batch.End, _ = batch.DateRange()
	// The batch covers [start, end): bump the end past the last record.
	batch.End = batch.End.Add(time.Second)

	recordBatchNormalized()
	n.logger.Info("normalized export",
		"label", label,
		"records", len(records),
		"skipped", report.Skipped,
	)

	return batch, report, nil
}

// resolveColumns maps header names to field indexes and checks the
// required set. A missing required column aborts the batch; missing
// optional columns are recorded on the report.
func resolveColumns(header []string) (map[string]int, Report, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if field, ok := columnAliases[h]; ok {
			if _, dup := index[field]; !dup {
				index[field] = i
			}
		}
	}

	var report Report
	for _, field := range requiredFields {
		if _, ok := index[field]; !ok {
			return nil, report, &SchemaError{Column: field}
		}
	}
	for _, field := range optionalFields {
		if _, ok := index[field]; !ok {
			report.MissingColumns = append(report.MissingColumns, field)
		}
	}

	return index, report, nil
}

func (n *Normalizer) parseRow(rowNum int, row []string, index map[string]int) (domain.IncidentRecord, *RowError) {
	cell := func(field string) string {
		i, ok := index[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	fail := func(field string, err error) (domain.IncidentRecord, *RowError) {
		return domain.IncidentRecord{}, &RowError{Row: rowNum, Column: field, Err: err}
	}

	var rec domain.IncidentRecord

	rec.ID = cell(fieldIncidentID)
	if rec.ID == "" {
		return fail(fieldIncidentID, fmt.Errorf("missing incident identifier"))
	}

	escalated, err := parseTimestamp(cell(fieldEscalatedAt))
	if err != nil {
		return fail(fieldEscalatedAt, err)
	}
	rec.EscalatedAt = escalated

	rec.VendorSeverity, err = domain.ParseSeverity(cell(fieldVendorSeverity))
	if err != nil {
		return fail(fieldVendorSeverity, err)
	}
	rec.InternalSeverity, err = domain.ParseSeverity(cell(fieldInternalSeverity))
	if err != nil {
		return fail(fieldInternalSeverity, err)
	}

	if v := cell(fieldDetectedAt); v != "" {
		t, err := parseTimestamp(v)
		if err != nil {
			return fail(fieldDetectedAt, err)
		}
		rec.DetectedAt = &t
	}
	if v := cell(fieldRespondedAt); v != "" {
		t, err := parseTimestamp(v)
		if err != nil {
			return fail(fieldRespondedAt, err)
		}
		rec.RespondedAt = &t
	}

	if v := cell(fieldTimeToRespond); v != "" {
		d, err := parseMinutes(v)
		if err != nil {
			return fail(fieldTimeToRespond, err)
		}
		rec.TimeToRespond = &d
	} else if rec.RespondedAt != nil {
		d := rec.RespondedAt.Sub(rec.EscalatedAt)
		if d < 0 {
			return fail(fieldRespondedAt, fmt.Errorf("negative response time %v", d))
		}
		rec.TimeToRespond = &d
	}

	if v := cell(fieldTimeToDetect); v != "" {
		d, err := parseMinutes(v)
		if err != nil {
			return fail(fieldTimeToDetect, err)
		}
		rec.TimeToDetect = &d
	} else if rec.DetectedAt != nil {
		// Internal detection precedes the external escalation.
		d := rec.EscalatedAt.Sub(*rec.DetectedAt)
		if d < 0 {
			return fail(fieldDetectedAt, fmt.Errorf("detection after escalation by %v", -d))
		}
		rec.TimeToDetect = &d
	}

	rec.Source = cell(fieldSource)
	rec.Tactic = cell(fieldTactic)

	if v := cell(fieldDisposition); v != "" {
		rec.Disposition, err = domain.ParseDisposition(v)
		if err != nil {
			return fail(fieldDisposition, err)
		}
	}
	if v := cell(fieldEscalation); v != "" {
		rec.Escalation, err = domain.ParseEscalationMethod(v)
		if err != nil {
			return fail(fieldEscalation, err)
		}
	}
	if v := cell(fieldResolution); v != "" {
		rec.Resolution, err = domain.ParseResolutionMethod(v)
		if err != nil {
			return fail(fieldResolution, err)
		}
	}

	rec.AfterHours = n.hours.IsAfterHours(rec.EscalatedAt)
	rec.Weekend = n.hours.IsWeekend(rec.EscalatedAt)

	return rec, nil
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
}

func parseTimestamp(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", v)
}

var clockDuration = regexp.MustCompile(`^(\d+):([0-5]\d)$`)

// parseMinutes accepts the export's h:mm duration format or a plain number
// of minutes.
func parseMinutes(v string) (time.Duration, error) {
	if m := clockDuration.FindStringSubmatch(v); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable duration %q", v)
	}
	if f < 0 {
		return 0, fmt.Errorf("negative duration %q", v)
	}
	return time.Duration(f * float64(time.Minute)), nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
