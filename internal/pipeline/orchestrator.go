// Package pipeline sequences the profiling stages for each run: resolve
// the location, collect weather, soil, and vegetation data, then forward
// the completed record to the impact stage for economic fusion and
// summarization. Stages exchange messages over the bus; the orchestrator
// owns the run's state machine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/geoimpact/impact-profiler/internal/bus"
	"github.com/geoimpact/impact-profiler/internal/domain"
	"github.com/geoimpact/impact-profiler/internal/observability"
	"github.com/geoimpact/impact-profiler/internal/vegetation"
	"github.com/geoimpact/impact-profiler/internal/weather"
)

// WeatherStage reduces a date range at a coordinate to a cached summary.
type WeatherStage interface {
	Aggregate(ctx context.Context, coord domain.Coordinate, start, end time.Time, cacheKey string) (domain.WeatherSummary, error)
}

// SoilStage renders the soil picture around a coordinate.
type SoilStage interface {
	Sample(ctx context.Context, coord domain.Coordinate) (string, error)
}

// VegetationStage reduces an NDVI raster query to a vegetation summary.
type VegetationStage interface {
	Analyze(ctx context.Context, query vegetation.RasterQuery) (domain.NDVISummary, error)
}

// Orchestrator drives one pipeline run per profile request through the
// stage sequence. Collection failures are tolerated per stage: the record
// keeps moving with an explicit error marker in the failed section. Only
// resolution and transport failures terminate a run.
type Orchestrator struct {
	bus            bus.Bus
	weather        WeatherStage
	soil           SoilStage
	vegetation     VegetationStage
	cloudThreshold float64
	logger         *slog.Logger
	metrics        *observability.Metrics
	tracker        *runTracker
	ready          atomic.Bool
}

// NewOrchestrator creates an Orchestrator. cloudThreshold is passed through
// to every vegetation raster query.
func NewOrchestrator(b bus.Bus, w WeatherStage, s SoilStage, v VegetationStage, cloudThreshold float64, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		bus:            b,
		weather:        w,
		soil:           s,
		vegetation:     v,
		cloudThreshold: cloudThreshold,
		logger:         logger,
		metrics:        metrics,
		tracker:        newRunTracker(),
	}
}

// CheckReadiness returns nil once at least one run has completed,
// or an error describing why the service is not yet ready.
func (o *Orchestrator) CheckReadiness(_ context.Context) error {
	if !o.ready.Load() {
		return errors.New("no pipeline run has completed yet")
	}
	return nil
}

// Status returns the tracked snapshot for a run.
func (o *Orchestrator) Status(runID string) (RunStatus, bool) {
	return o.tracker.Status(runID)
}

// RecordState lets downstream stages advance a run's tracked state after
// the orchestrator has handed the record off.
func (o *Orchestrator) RecordState(runID string, location domain.LocationQuery, state State, reason string) {
	o.tracker.set(runID, location, state, reason)
}

// Run executes one profiling run and returns the collected record that was
// forwarded to the impact stage. The returned error is non-nil only for
// terminal failures: unresolvable location or undeliverable record.
func (o *Orchestrator) Run(ctx context.Context, req ProfileRequest) (domain.CollectedRecord, error) {
	runID := uuid.NewString()
	start := time.Now()
	o.metrics.RunsStarted.Inc()
	o.tracker.set(runID, req.Location, StateIdle, "")

	o.logger.Info("pipeline run started",
		"run_id", runID,
		"location", req.Location.Name,
		"window_start", req.Start.Format("2006-01-02"),
		"window_end", req.End.Format("2006-01-02"),
	)

	record, err := o.collect(ctx, runID, req)
	if err != nil {
		o.fail(runID, req.Location, err)
		return domain.CollectedRecord{}, err
	}

	o.tracker.set(runID, req.Location, StateForwarding, "")
	if err := o.forward(ctx, record); err != nil {
		o.fail(runID, req.Location, err)
		return domain.CollectedRecord{}, err
	}

	// Delivery is fire-and-forget: accepting the send is the
	// acknowledgment, the run does not wait on downstream processing.
	// The impact stage advances the tracker through summarizing to done.
	o.tracker.set(runID, req.Location, StateAwaitingEconomic, "")
	o.metrics.RunsCompleted.Inc()
	o.metrics.RunDuration.Observe(time.Since(start).Seconds())
	o.ready.Store(true)

	o.logger.Info("pipeline run completed",
		"run_id", runID,
		"location", req.Location.Name,
		"complete_sections", record.Complete(),
	)
	return record, nil
}

// collect walks the resolution and collection states, accumulating the
// record.
func (o *Orchestrator) collect(ctx context.Context, runID string, req ProfileRequest) (domain.CollectedRecord, error) {
	record := domain.CollectedRecord{
		RunID:    runID,
		Location: req.Location,
	}

	o.tracker.set(runID, req.Location, StateResolvingLocation, "")
	resolved, err := o.resolve(ctx, req.Location)
	if err != nil {
		return domain.CollectedRecord{}, err
	}
	record.Coordinate = resolved.Coordinate
	record.CountryCode = resolved.CountryCode

	o.tracker.set(runID, req.Location, StateCollectingWeather, "")
	cacheKey := weather.CacheKey(req.Location.Name, req.Start.Format("2006-01-02"), req.End.Format("2006-01-02"))
	if summary, err := o.weather.Aggregate(ctx, record.Coordinate, req.Start, req.End, cacheKey); err != nil {
		o.stageFailed(runID, "weather", err)
		record.WeatherError = err.Error()
	} else {
		record.Weather = &summary
	}

	o.tracker.set(runID, req.Location, StateSamplingSoil, "")
	if soilSummary, err := o.soil.Sample(ctx, record.Coordinate); err != nil {
		o.stageFailed(runID, "soil", err)
		record.SoilError = err.Error()
	} else {
		record.Soil = soilSummary
	}

	o.tracker.set(runID, req.Location, StateAnalyzingVegetation, "")
	query := vegetation.RasterQuery{
		Coordinate:     record.Coordinate,
		Start:          req.Start,
		End:            req.End,
		CloudThreshold: o.cloudThreshold,
	}
	if summary, err := o.vegetation.Analyze(ctx, query); err != nil {
		o.stageFailed(runID, "vegetation", err)
		record.VegetationError = err.Error()
	} else {
		record.Vegetation = &summary
	}

	record.CollectedAt = domain.Now()
	return record, nil
}

// resolve runs the query/reply exchange with the geocode agent. A failure
// reported inside the reply is a resolution failure; a missing or timed-out
// reply is a transport failure. Both terminate the run.
func (o *Orchestrator) resolve(ctx context.Context, location domain.LocationQuery) (ResolveReply, error) {
	msg, err := bus.NewMessage(TypeResolveRequest, ResolveRequest{Location: location})
	if err != nil {
		return ResolveReply{}, err
	}

	replyMsg, err := o.bus.Query(ctx, AddrGeocode, msg)
	if err != nil {
		return ResolveReply{}, fmt.Errorf("querying geocode stage: %w", err)
	}

	var reply ResolveReply
	if err := replyMsg.Decode(&reply); err != nil {
		return ResolveReply{}, err
	}
	if reply.Error != "" {
		return ResolveReply{}, fmt.Errorf("%w: %s", domain.ErrResolutionFailure, reply.Error)
	}
	return reply, nil
}

// forward hands the completed record to the impact stage.
func (o *Orchestrator) forward(ctx context.Context, record domain.CollectedRecord) error {
	msg, err := bus.NewMessage(TypeCollectedRecord, record)
	if err != nil {
		return err
	}
	if err := o.bus.Send(ctx, AddrImpact, msg); err != nil {
		return fmt.Errorf("forwarding record %s: %w", record.RunID, err)
	}
	return nil
}

func (o *Orchestrator) stageFailed(runID, stage string, err error) {
	o.logger.Warn("stage failed, continuing with error marker",
		"run_id", runID,
		"stage", stage,
		"error", err,
	)
	o.metrics.StageFailures.WithLabelValues(stage).Inc()
}

func (o *Orchestrator) fail(runID string, location domain.LocationQuery, err error) {
	o.logger.Error("pipeline run failed",
		"run_id", runID,
		"location", location.Name,
		"error", err,
	)
	o.tracker.set(runID, location, StateFailed, err.Error())
	o.metrics.RunsFailed.Inc()
}
