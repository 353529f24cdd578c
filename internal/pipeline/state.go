package pipeline

import (
	"sync"

	"github.com/geoimpact/impact-profiler/internal/domain"
)

// State is a run's position in the profiling pipeline.
type State string

const (
	StateIdle                State = "idle"
	StateResolvingLocation   State = "resolving_location"
	StateCollectingWeather   State = "collecting_weather"
	StateSamplingSoil        State = "sampling_soil"
	StateAnalyzingVegetation State = "analyzing_vegetation"
	StateForwarding          State = "forwarding"
	StateAwaitingEconomic    State = "awaiting_economic"
	StateSummarizing         State = "summarizing"
	StateDone                State = "done"
	StateFailed              State = "failed"
)

// RunStatus is the externally visible snapshot of one run.
type RunStatus struct {
	RunID    string               `json:"run_id"`
	Location domain.LocationQuery `json:"location"`
	State    State                `json:"state"`
	Reason   string               `json:"reason,omitempty"` // set only for failed runs
}

// runTracker records the current state of every run the orchestrator has
// seen. Terminal snapshots stay queryable until the process exits.
type runTracker struct {
	mu   sync.RWMutex
	runs map[string]RunStatus
}

func newRunTracker() *runTracker {
	return &runTracker{runs: make(map[string]RunStatus)}
}

func (t *runTracker) set(runID string, location domain.LocationQuery, state State, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs[runID] = RunStatus{
		RunID:    runID,
		Location: location,
		State:    state,
		Reason:   reason,
	}
}

// Status returns the snapshot for a run, or false if the run is unknown.
func (t *runTracker) Status(runID string) (RunStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	status, ok := t.runs[runID]
	return status, ok
}
