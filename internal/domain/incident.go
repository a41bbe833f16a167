package domain

import (
	"fmt"
	"strings"
	"time"
)

// Severity is the closed set of incident severity levels shared by the
// vendor rating and the SOC-assigned rating.
type Severity string

const (
	SeverityInformational Severity = "informational"
	SeverityLow           Severity = "low"
	SeverityMedium        Severity = "medium"
	SeverityHigh          Severity = "high"
	SeverityCritical      Severity = "critical"
)

var severityRanks = map[Severity]int{
	SeverityInformational: 0,
	SeverityLow:           1,
	SeverityMedium:        2,
	SeverityHigh:          3,
	SeverityCritical:      4,
}

func (s Severity) IsValid() bool {
	_, ok := severityRanks[s]
	return ok
}

// Rank returns the position on the fixed ordinal scale
// Informational < Low < Medium < High < Critical.
func (s Severity) Rank() int {
	return severityRanks[s]
}

// ParseSeverity normalizes a raw severity cell. Exports carry severities in
// several shapes ("High", "3 - HIGH", "Med", "INFO"); anything outside the
// enumerated set is an error rather than a pass-through string.
func ParseSeverity(raw string) (Severity, error) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	if v == "" {
		return "", fmt.Errorf("empty severity")
	}

	switch {
	case strings.Contains(v, "CRITICAL") || strings.HasPrefix(v, "1 -"):
		return SeverityCritical, nil
	case strings.Contains(v, "HIGH") || strings.HasPrefix(v, "2 -") || strings.HasPrefix(v, "3 -"):
		return SeverityHigh, nil
	case strings.Contains(v, "MED") || strings.HasPrefix(v, "4 -") || strings.HasPrefix(v, "5 -"):
		return SeverityMedium, nil
	case strings.Contains(v, "LOW") || strings.HasPrefix(v, "6 -") || strings.HasPrefix(v, "7 -"):
		return SeverityLow, nil
	case strings.Contains(v, "INFO") || strings.HasPrefix(v, "8 -"):
		return SeverityInformational, nil
	}

	return "", fmt.Errorf("unrecognized severity %q", raw)
}

// Disposition is the SOC verdict on an escalated incident.
type Disposition string

const (
	DispositionTruePositive  Disposition = "true_positive"
	DispositionFalsePositive Disposition = "false_positive"
	DispositionBenign        Disposition = "benign"
)

func (d Disposition) IsValid() bool {
	switch d {
	case DispositionTruePositive, DispositionFalsePositive, DispositionBenign:
		return true
	}
	return false
}

// ParseDisposition normalizes a raw verdict cell.
func ParseDisposition(raw string) (Disposition, error) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.Contains(v, "TRUE"):
		return DispositionTruePositive, nil
	case strings.Contains(v, "FALSE"):
		return DispositionFalsePositive, nil
	case strings.Contains(v, "BENIGN"):
		return DispositionBenign, nil
	}
	return "", fmt.Errorf("unrecognized disposition %q", raw)
}

// EscalationMethod distinguishes automated playbook escalations from
// analyst-driven ones.
type EscalationMethod string

const (
	EscalationPlaybook EscalationMethod = "playbook"
	EscalationAnalyst  EscalationMethod = "analyst"
)

// ParseEscalationMethod maps the export's "Initial Escalation Method"
// values. The original export uses the SOC name itself for analyst-driven
// escalations; every other non-empty value names a playbook.
func ParseEscalationMethod(raw string) (EscalationMethod, error) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	if v == "" {
		return "", fmt.Errorf("empty escalation method")
	}
	if v == "CS SOC" || strings.Contains(v, "ANALYST") {
		return EscalationAnalyst, nil
	}
	return EscalationPlaybook, nil
}

// ResolutionMethod distinguishes incidents the client had to touch from
// incidents closed end-to-end by the SOC.
type ResolutionMethod string

const (
	ResolutionClientTouch ResolutionMethod = "client_touch"
	ResolutionEndToEnd    ResolutionMethod = "end_to_end"
)

// ParseResolutionMethod maps the export's resolution values.
func ParseResolutionMethod(raw string) (ResolutionMethod, error) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.Contains(v, "CLIENT"):
		return ResolutionClientTouch, nil
	case strings.Contains(v, "END"), strings.Contains(v, "SOC"), strings.Contains(v, "CLOSED"):
		return ResolutionEndToEnd, nil
	}
	return "", fmt.Errorf("unrecognized resolution method %q", raw)
}

// IncidentRecord is one escalated incident from the export. Records are
// built once by the normalizer and never mutated downstream.
type IncidentRecord struct {
	ID               string
	EscalatedAt      time.Time
	DetectedAt       *time.Time
	RespondedAt      *time.Time
	TimeToRespond    *time.Duration
	TimeToDetect     *time.Duration
	VendorSeverity   Severity
	InternalSeverity Severity
	Source           string
	Tactic           string
	Disposition      Disposition
	Escalation       EscalationMethod
	Resolution       ResolutionMethod

	// Computed once at normalization so later stages never re-derive
	// time semantics.
	AfterHours bool
	Weekend    bool
}

// ResponseMinutes returns the response time in minutes, or false when the
// record carries no response time.
func (r IncidentRecord) ResponseMinutes() (float64, bool) {
	if r.TimeToRespond == nil {
		return 0, false
	}
	return r.TimeToRespond.Minutes(), true
}

// DetectMinutes returns the detection time in minutes, or false when the
// record carries no detection time.
func (r IncidentRecord) DetectMinutes() (float64, bool) {
	if r.TimeToDetect == nil {
		return 0, false
	}
	return r.TimeToDetect.Minutes(), true
}
