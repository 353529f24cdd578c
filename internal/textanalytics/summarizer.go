package textanalytics

import (
	"context"
	"log/slog"

	"github.com/geoimpact/impact-profiler/internal/domain"
	"github.com/geoimpact/impact-profiler/internal/observability"
)

// Summarizer renders the final impact analysis: a section-ordered narrative
// built from the collected record and fused indicators, plus key phrases
// when an extractor is configured. Extraction is decorative; a failed or
// absent extractor still yields a complete analysis with no phrases.
type Summarizer struct {
	extractor KeyPhraseExtractor
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewSummarizer creates a Summarizer. extractor may be nil when no language
// service is configured.
func NewSummarizer(extractor KeyPhraseExtractor, logger *slog.Logger, metrics *observability.Metrics) *Summarizer {
	return &Summarizer{
		extractor: extractor,
		logger:    logger,
		metrics:   metrics,
	}
}

// Summarize builds the narrative for a run and enriches it with key
// phrases.
func (s *Summarizer) Summarize(ctx context.Context, record domain.CollectedRecord, indicators domain.FusedIndicators) domain.ImpactAnalysis {
	sections := domain.BuildNarrative(record, indicators)
	summary := domain.JoinNarrative(sections)

	analysis := domain.ImpactAnalysis{
		RunID:       record.RunID,
		Location:    record.Location.Name,
		Summary:     summary,
		KeyPhrases:  []string{},
		GeneratedAt: domain.Now(),
	}

	if s.extractor == nil {
		return analysis
	}

	phrases, err := s.extractor.ExtractKeyPhrases(ctx, summary)
	if err != nil {
		s.logger.Warn("key phrase extraction failed, continuing without phrases",
			"run_id", record.RunID,
			"error", err,
		)
		s.metrics.StageFailures.WithLabelValues("summarizer").Inc()
		return analysis
	}
	analysis.KeyPhrases = phrases
	return analysis
}
