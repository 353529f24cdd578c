package pipeline

import (
	"time"

	"github.com/geoimpact/impact-profiler/internal/domain"
)

// Stage addresses on the message bus.
const (
	AddrGeocode = "stage.geocode"
	AddrImpact  = "stage.impact"
)

// Message types exchanged between stages.
const (
	TypeProfileRequest  = "profile.request"
	TypeResolveRequest  = "geocode.resolve"
	TypeResolveReply    = "geocode.result"
	TypeCollectedRecord = "record.collected"
	TypeImpactReport    = "impact.report"
)

// ProfileRequest starts one pipeline run: profile this location over this
// observation window.
type ProfileRequest struct {
	Location domain.LocationQuery `json:"location"`
	Start    time.Time            `json:"start"`
	End      time.Time            `json:"end"`
}

// ResolveRequest asks the geocode agent for a location's coordinate.
type ResolveRequest struct {
	Location domain.LocationQuery `json:"location"`
}

// ResolveReply carries the resolved coordinate and reverse-geocoded country
// code, or the resolution error. Error and coordinate are mutually
// exclusive; a failed resolution never reports a usable coordinate.
type ResolveReply struct {
	Coordinate  domain.Coordinate `json:"coordinate"`
	CountryCode string            `json:"country_code,omitempty"`
	Error       string            `json:"error,omitempty"`
}
