// Package report runs the full pipeline: normalize every export, aggregate
// the current period against the priors, evaluate the rule catalog and
// render narratives into one output bundle.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bissquit/escalation-insights/internal/aggregate"
	"github.com/bissquit/escalation-insights/internal/config"
	"github.com/bissquit/escalation-insights/internal/domain"
	"github.com/bissquit/escalation-insights/internal/ingest"
	"github.com/bissquit/escalation-insights/internal/insights"
	"github.com/bissquit/escalation-insights/internal/narrative"
)

// Source names one export file to normalize. Sources are given in
// chronological order; the last one is the current period.
type Source struct {
	Path  string
	Label string
}

// Service wires the pipeline stages for one client configuration.
type Service struct {
	cfg        config.Config
	logger     *slog.Logger
	normalizer *ingest.Normalizer
	aggregator *aggregate.Aggregator
	engine     *insights.Engine
	builder    *narrative.Builder
}

// NewService builds the pipeline. Construction fails if the narrative
// template set does not load.
func NewService(cfg config.Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	builder, err := narrative.NewBuilder(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create narrative builder: %w", err)
	}

	return &Service{
		cfg:        cfg,
		logger:     logger,
		normalizer: ingest.New(cfg.BusinessHours, logger),
		aggregator: aggregate.New(cfg, logger),
		engine:     insights.NewEngine(cfg, logger),
		builder:    builder,
	}, nil
}

// Run executes the pipeline over the given sources. Exports are normalized
// concurrently; everything downstream is sequential and deterministic.
func (s *Service) Run(ctx context.Context, sources []Source) (*Bundle, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no export sources given")
	}

	start := time.Now()
	runID := uuid.New()
	s.logger.Info("starting report run", "run_id", runID, "sources", len(sources))

	batches := make([]domain.PeriodBatch, len(sources))
	reports := make([]ingest.Report, len(sources))
	errs := make([]error, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			batches[i], reports[i], errs[i] = s.normalizer.NormalizeFile(src.Path, src.Label)
		}(i, src)
	}
	wg.Wait()

	summaries := make([]IngestSummary, len(sources))
	for i, src := range sources {
		if errs[i] != nil {
			recordRun("error")
			return nil, fmt.Errorf("normalize %s: %w", src.Path, errs[i])
		}
		summaries[i] = IngestSummary{
			Label:          src.Label,
			Rows:           reports[i].Rows,
			Valid:          reports[i].Valid,
			Skipped:        reports[i].Skipped,
			MissingColumns: reports[i].MissingColumns,
			RowErrors:      reports[i].ErrorSummaries(),
		}
	}

	if err := ctx.Err(); err != nil {
		recordRun("cancelled")
		return nil, err
	}

	current := batches[len(batches)-1]
	priors := batches[:len(batches)-1]

	// Only the current export's missing columns gate metric availability;
	// priors contribute nothing beyond the trend series.
	metrics, err := s.aggregator.Aggregate(current, priors, reports[len(reports)-1].MissingColumns)
	if err != nil {
		recordRun("error")
		return nil, fmt.Errorf("aggregate metrics: %w", err)
	}

	recommendations, achievements := s.engine.Evaluate(metrics)

	narratives, err := s.builder.Build(metrics, recommendations, achievements)
	if err != nil {
		recordRun("error")
		return nil, fmt.Errorf("build narratives: %w", err)
	}

	bundle := &Bundle{
		RunID:           runID,
		ClientName:      s.cfg.ClientNameOverride,
		Tier:            s.cfg.Tier,
		GeneratedAt:     time.Now().UTC(),
		Metrics:         metrics,
		Recommendations: recommendations,
		Achievements:    achievements,
		Narratives:      narratives,
		Ingest:          summaries,
	}

	recordRun("ok")
	s.logger.Info("report run complete",
		"run_id", runID,
		"records", metrics.Volume.Total,
		"recommendations", len(recommendations),
		"achievements", len(achievements),
		"elapsed", time.Since(start),
	)

	return bundle, nil
}
