package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/bissquit/escalation-insights/internal/domain"
	"github.com/bissquit/escalation-insights/internal/narrative"
)

// Bundle is the full output of one pipeline run. It is JSON-serializable
// and read-only once returned; the rendering layer consumes it as-is.
type Bundle struct {
	RunID       uuid.UUID `json:"run_id"`
	ClientName  string    `json:"client_name,omitempty"`
	Tier        string    `json:"tier"`
	GeneratedAt time.Time `json:"generated_at"`

	Metrics         *domain.ComputedMetrics `json:"metrics"`
	Recommendations []domain.InsightItem    `json:"recommendations"`
	Achievements    []domain.InsightItem    `json:"achievements"`
	Narratives      narrative.Narratives    `json:"narratives"`

	Ingest []IngestSummary `json:"ingest"`
}

// IngestSummary is the per-source normalization outcome carried on the
// bundle so skipped rows stay visible in the final report.
type IngestSummary struct {
	Label          string   `json:"label"`
	Rows           int      `json:"rows"`
	Valid          int      `json:"valid"`
	Skipped        int      `json:"skipped"`
	MissingColumns []string `json:"missing_columns,omitempty"`
	RowErrors      []string `json:"row_errors,omitempty"`
}
