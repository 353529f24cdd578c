package pipeline

import (
	"context"
	"log/slog"

	"github.com/geoimpact/impact-profiler/internal/bus"
	"github.com/geoimpact/impact-profiler/internal/domain"
	"github.com/geoimpact/impact-profiler/internal/economic"
	"github.com/geoimpact/impact-profiler/internal/observability"
)

// Summarizer renders the final analysis for a completed record.
type Summarizer interface {
	Summarize(ctx context.Context, record domain.CollectedRecord, indicators domain.FusedIndicators) domain.ImpactAnalysis
}

// EconomicFuser assembles the economic indicators for a country code.
type EconomicFuser interface {
	Fuse(ctx context.Context, countryCode string) (domain.FusedIndicators, error)
}

// ReportSink receives the terminal artifact of a run.
type ReportSink interface {
	Publish(ctx context.Context, analysis domain.ImpactAnalysis) error
}

// StateRecorder receives run-state updates from downstream stages.
type StateRecorder interface {
	RecordState(runID string, location domain.LocationQuery, state State, reason string)
}

// ImpactAgent is the downstream half of the pipeline: it consumes
// collected records off the bus, fuses economic indicators, renders the
// narrative, and publishes the analysis. A record with no country code
// skips the economic lookups and still produces a report.
type ImpactAgent struct {
	fuser      EconomicFuser
	summarizer Summarizer
	sink       ReportSink
	recorder   StateRecorder
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewImpactAgent creates the agent and registers it at its bus address.
// recorder may be nil when no orchestrator is tracking run state.
func NewImpactAgent(b bus.Bus, fuser EconomicFuser, summarizer Summarizer, sink ReportSink, recorder StateRecorder, logger *slog.Logger, metrics *observability.Metrics) *ImpactAgent {
	a := &ImpactAgent{
		fuser:      fuser,
		summarizer: summarizer,
		sink:       sink,
		recorder:   recorder,
		logger:     logger,
		metrics:    metrics,
	}
	b.Handle(AddrImpact, a.handle)
	return a
}

func (a *ImpactAgent) handle(ctx context.Context, msg bus.Message) (*bus.Message, error) {
	var record domain.CollectedRecord
	if err := msg.Decode(&record); err != nil {
		return nil, err
	}
	return nil, a.Process(ctx, record)
}

// Process runs the economic and summarization stages for one record.
func (a *ImpactAgent) Process(ctx context.Context, record domain.CollectedRecord) error {
	if !record.Complete() {
		a.logger.Warn("received record with missing sections, summarizing anyway",
			"run_id", record.RunID,
		)
	}

	indicators := a.fuse(ctx, record)

	a.record(record, StateSummarizing, "")
	analysis := a.summarizer.Summarize(ctx, record, indicators)

	if err := a.sink.Publish(ctx, analysis); err != nil {
		a.record(record, StateFailed, err.Error())
		a.metrics.RunsFailed.Inc()
		return err
	}

	a.record(record, StateDone, "")
	a.logger.Info("impact analysis published",
		"run_id", record.RunID,
		"location", analysis.Location,
		"key_phrases", len(analysis.KeyPhrases),
	)
	return nil
}

// fuse looks up the economic indicators. Every fuse failure degrades to an
// empty indicator set; the narrative renders the gaps explicitly.
func (a *ImpactAgent) fuse(ctx context.Context, record domain.CollectedRecord) domain.FusedIndicators {
	if record.CountryCode == "" {
		a.logger.Warn("no country code on record, skipping economic lookups",
			"run_id", record.RunID,
		)
		return domain.FusedIndicators{}
	}

	indicators, err := a.fuser.Fuse(ctx, record.CountryCode)
	if err != nil {
		a.logger.Warn("economic fuse failed, continuing without indicators",
			"run_id", record.RunID,
			"country", record.CountryCode,
			"error", err,
		)
		a.metrics.StageFailures.WithLabelValues("economic").Inc()
		return domain.FusedIndicators{}
	}
	return indicators
}

func (a *ImpactAgent) record(record domain.CollectedRecord, state State, reason string) {
	if a.recorder == nil {
		return
	}
	a.recorder.RecordState(record.RunID, record.Location, state, reason)
}

var _ EconomicFuser = (*economic.Fuser)(nil)
