package pipeline

import (
	"context"
	"log/slog"

	"github.com/geoimpact/impact-profiler/internal/bus"
	"github.com/geoimpact/impact-profiler/internal/domain"
	"github.com/geoimpact/impact-profiler/internal/observability"
)

// GeocodeAgent answers coordinate-resolution queries on the bus. It wraps
// the geocoder behind the query/reply pattern so the orchestrator never
// calls the resolver directly. Resolution failure travels inside the reply
// payload, never as a dropped message.
type GeocodeAgent struct {
	resolver domain.Geocoder
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewGeocodeAgent creates the agent and registers it at its bus address.
func NewGeocodeAgent(b bus.Bus, resolver domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *GeocodeAgent {
	a := &GeocodeAgent{
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
	}
	b.Handle(AddrGeocode, a.handle)
	return a
}

func (a *GeocodeAgent) handle(ctx context.Context, msg bus.Message) (*bus.Message, error) {
	var req ResolveRequest
	if err := msg.Decode(&req); err != nil {
		return nil, err
	}

	coord, err := a.resolver.Resolve(ctx, req.Location)
	if err != nil {
		a.logger.Warn("location resolution failed",
			"location", req.Location.Name,
			"error", err,
		)
		a.metrics.StageFailures.WithLabelValues("geocode").Inc()
		reply, buildErr := bus.NewMessage(TypeResolveReply, ResolveReply{Error: err.Error()})
		if buildErr != nil {
			return nil, buildErr
		}
		return &reply, nil
	}

	// Reverse lookup is best-effort: a run without a country code still
	// collects environment data, it just skips the economic stage.
	countryCode, err := a.resolver.ReverseResolve(ctx, coord)
	if err != nil {
		a.logger.Warn("reverse geocode failed, continuing without country",
			"lat", coord.Lat,
			"lon", coord.Lon,
			"error", err,
		)
		countryCode = ""
	}

	reply, err := bus.NewMessage(TypeResolveReply, ResolveReply{
		Coordinate:  coord,
		CountryCode: countryCode,
	})
	if err != nil {
		return nil, err
	}
	return &reply, nil
}
