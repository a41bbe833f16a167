package ingest

// Canonical field names. The export's column headers are matched by name,
// order independent, through the alias table below.
const (
	fieldIncidentID       = "incident_id"
	fieldEscalatedAt      = "escalated_at"
	fieldDetectedAt       = "detected_at"
	fieldRespondedAt      = "responded_at"
	fieldVendorSeverity   = "vendor_severity"
	fieldInternalSeverity = "internal_severity"
	fieldSource           = "source"
	fieldTactic           = "tactic"
	fieldDisposition      = "disposition"
	fieldEscalation       = "escalation_method"
	fieldResolution       = "resolution_method"
	fieldTimeToRespond    = "time_to_respond"
	fieldTimeToDetect     = "time_to_detect"
)

// columnAliases maps export header names to canonical fields. Different
// export generations spell the same column differently ("Incident Id" vs
// "Incident ID"), so several headers can resolve to one field.
var columnAliases = map[string]string{
	"Incident Id": fieldIncidentID,
	"Incident ID": fieldIncidentID,

	"Escalated Datetime UTC":   fieldEscalatedAt,
	"Escalated Datetime (UTC)": fieldEscalatedAt,

	"Detected Datetime UTC":    fieldDetectedAt,
	"Detection Datetime UTC":   fieldDetectedAt,
	"Detected Datetime (UTC)":  fieldDetectedAt,
	"Responded Datetime UTC":   fieldRespondedAt,
	"Response Datetime UTC":    fieldRespondedAt,
	"Responded Datetime (UTC)": fieldRespondedAt,

	"Severity":        fieldVendorSeverity,
	"Vendor Severity": fieldVendorSeverity,

	"Internal Severity": fieldInternalSeverity,
	"SOC Severity":      fieldInternalSeverity,
	"Current Priority":  fieldInternalSeverity,

	"Product":          fieldSource,
	"Detection Source": fieldSource,

	"MITRE Tactic Name": fieldTactic,
	"MITRE Tactic":      fieldTactic,

	"Verdict":     fieldDisposition,
	"SOC Verdict": fieldDisposition,
	"Disposition": fieldDisposition,

	"Initial Escalation Method": fieldEscalation,
	"Escalation Method":         fieldEscalation,

	"Resolution Method": fieldResolution,
	"Resolution":        fieldResolution,

	"TTR (hh:mm)":     fieldTimeToRespond,
	"SOC TTR (hh:mm)": fieldTimeToRespond,
	"TTR Minutes":     fieldTimeToRespond,

	"TTD (hh:mm)":     fieldTimeToDetect,
	"SOC TTD (hh:mm)": fieldTimeToDetect,
	"TTD Minutes":     fieldTimeToDetect,
}

// requiredFields fail the run with a SchemaError when their column is
// absent. Everything else degrades the breakdowns that depend on it.
var requiredFields = []string{
	fieldIncidentID,
	fieldEscalatedAt,
	fieldVendorSeverity,
	fieldInternalSeverity,
}

// optionalFields are reported as missing so the aggregator can flag the
// dependent metrics as unavailable.
var optionalFields = []string{
	fieldDetectedAt,
	fieldRespondedAt,
	fieldSource,
	fieldTactic,
	fieldDisposition,
	fieldEscalation,
	fieldResolution,
	fieldTimeToRespond,
	fieldTimeToDetect,
}
