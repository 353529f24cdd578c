package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/geoimpact/impact-profiler/internal/observability"
)

// RequestSource yields inbound profile requests, typically from a Kafka
// topic. Commit acknowledges the request after a run has been accepted.
type RequestSource interface {
	Next(ctx context.Context) (ProfileRequest, func(context.Context) error, error)
}

// Loop consumes profile requests and drives a pipeline run for each. Source
// failures back off exponentially; run failures are terminal for that run
// only and never stop the loop.
type Loop struct {
	source       RequestSource
	orchestrator *Orchestrator
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewLoop creates the request-consuming service loop.
func NewLoop(source RequestSource, orchestrator *Orchestrator, logger *slog.Logger, metrics *observability.Metrics) *Loop {
	return &Loop{
		source:       source,
		orchestrator: orchestrator,
		logger:       logger,
		metrics:      metrics,
	}
}

// Run consumes requests until the context is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("profile request loop started")
	l.metrics.PipelineRunning.Set(1)
	defer l.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("profile request loop stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !l.consumeOne(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// consumeOne fetches and runs a single request. Returns false if the loop
// should stop.
func (l *Loop) consumeOne(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	req, commit, err := l.source.Next(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		l.logger.Error("fetching profile request failed", "error", err)
		return l.backoffOrStop(ctx, backoff, maxBackoff)
	}
	*backoff = 200 * time.Millisecond

	if _, err := l.orchestrator.Run(ctx, req); err != nil {
		// The run is already recorded as failed; the request is still
		// committed so a poison request cannot wedge the topic.
		l.logger.Warn("pipeline run failed for request",
			"location", req.Location.Name,
			"error", err,
		)
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			l.logger.Warn("committing profile request failed", "error", err)
		}
	}
	return true
}

// backoffOrStop checks for context cancellation, sleeps with the current
// backoff, and advances the backoff. Returns false if the loop should stop.
func (l *Loop) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
