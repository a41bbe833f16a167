// Package narrative renders report prose from templates.
//
// The builder performs no metric computation. Every number substituted into
// a narrative comes from the computed metrics bundle or an insight item;
// templates only format.
package narrative

import (
	"bytes"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bissquit/escalation-insights/internal/config"
	"github.com/bissquit/escalation-insights/internal/domain"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var templateNames = []string{
	"executive_summary",
	"recommendation",
	"achievement",
	"areas_of_focus",
	"next_period_goals",
}

// Narratives is the rendered prose for one report.
type Narratives struct {
	ExecutiveSummary string   `json:"executive_summary"`
	Recommendations  []string `json:"recommendations"`
	Achievements     []string `json:"achievements"`
	AreasOfFocus     string   `json:"areas_of_focus,omitempty"`
	NextPeriodGoals  string   `json:"next_period_goals,omitempty"`
}

// Builder renders narratives from the embedded template set.
type Builder struct {
	cfg       config.Config
	logger    *slog.Logger
	templates map[string]*template.Template
}

// NewBuilder loads and validates all templates. A missing or unparseable
// template fails construction, never a later Build call.
func NewBuilder(cfg config.Config, logger *slog.Logger) (*Builder, error) {
	if logger == nil {
		logger = slog.Default()
	}

	funcMap := template.FuncMap{
		"title":   titleCase,
		"comma":   comma,
		"pct":     pct,
		"minutes": formatMinutes,
		"date":    formatDate,
	}

	b := &Builder{
		cfg:       cfg,
		logger:    logger,
		templates: make(map[string]*template.Template, len(templateNames)),
	}

	for _, name := range templateNames {
		filename := fmt.Sprintf("templates/%s.tmpl", name)
		content, err := templatesFS.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", filename, err)
		}
		tmpl, err := template.New(name).Funcs(funcMap).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		b.templates[name] = tmpl
	}

	return b, nil
}

// summaryView is the executive-summary template data. Availability flags
// gate sentences whose metric could not be computed.
type summaryView struct {
	ClientName    string
	Tier          string
	PeriodStart   time.Time
	PeriodEnd     time.Time
	PeriodDays    int
	Total         int
	PerDay        float64
	MTTR          float64
	BenchmarkMTTR float64
	Advantage     float64
	FPRate        float64
	SLACompliance float64
	AlignedPct    float64
	CostTotal     int

	HasResponse bool
	HasFPRate   bool
	HasAdvant   bool
}

// Build renders the full narrative set. Insight items must already be in
// their final order; rendering preserves it.
func (b *Builder) Build(m *domain.ComputedMetrics, recommendations, achievements []domain.InsightItem) (Narratives, error) {
	var out Narratives

	view := summaryView{
		ClientName:    m.ClientName,
		Tier:          m.Tier,
		PeriodStart:   m.PeriodStart,
		PeriodEnd:     m.PeriodEnd,
		PeriodDays:    m.PeriodDays,
		Total:         m.Volume.Total,
		PerDay:        m.Volume.IncidentsPerDay,
		MTTR:          m.Response.MTTR,
		BenchmarkMTTR: b.cfg.Benchmarks.MTTRMinutes,
		Advantage:     m.Response.ResponseAdvantagePercent,
		FPRate:        m.Volume.FalsePositiveRate,
		SLACompliance: m.Response.SLAComplianceRate,
		AlignedPct:    m.Reconciliation.AlignedPercent,
		CostTotal:     m.Cost.TotalModeled,
		HasResponse:   !m.IsUnavailable("response.mttr_minutes"),
		HasFPRate:     !m.IsUnavailable("volume.false_positive_rate"),
		HasAdvant:     !m.IsUnavailable("response.advantage_percent") && m.Response.ResponseAdvantagePercent > 0,
	}
	if view.ClientName == "" {
		view.ClientName = "the client"
	}

	summary, err := b.render("executive_summary", view)
	if err != nil {
		return Narratives{}, err
	}
	out.ExecutiveSummary = summary

	for _, item := range recommendations {
		line, err := b.render("recommendation", item)
		if err != nil {
			return Narratives{}, err
		}
		out.Recommendations = append(out.Recommendations, line)
	}
	for _, item := range achievements {
		line, err := b.render("achievement", item)
		if err != nil {
			return Narratives{}, err
		}
		out.Achievements = append(out.Achievements, line)
	}

	if len(recommendations) > 0 {
		focus, err := b.render("areas_of_focus", recommendations)
		if err != nil {
			return Narratives{}, err
		}
		out.AreasOfFocus = focus

		goals, err := b.render("next_period_goals", recommendations)
		if err != nil {
			return Narratives{}, err
		}
		out.NextPeriodGoals = goals
	}

	b.logger.Debug("narratives rendered",
		"recommendations", len(out.Recommendations),
		"achievements", len(out.Achievements),
	)

	return out, nil
}

func (b *Builder) render(name string, data any) (string, error) {
	tmpl, ok := b.templates[name]
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Template functions

var (
	titleCaser   = cases.Title(language.English)
	commaPrinter = message.NewPrinter(language.English)
)

func titleCase(s string) string {
	return titleCaser.String(s)
}

func comma(n int) string {
	return commaPrinter.Sprintf("%d", n)
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// formatMinutes renders a duration given in minutes as h:mm, matching the
// export's duration notation.
func formatMinutes(v float64) string {
	total := int(v + 0.5)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func formatDate(t time.Time) string {
	return t.UTC().Format("Jan 2, 2006")
}
