package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoimpact/impact-profiler/internal/bus"
	"github.com/geoimpact/impact-profiler/internal/domain"
	"github.com/geoimpact/impact-profiler/internal/observability"
)

type stubFuser struct {
	indicators domain.FusedIndicators
	err        error
	gotCountry string
	called     bool
}

func (s *stubFuser) Fuse(_ context.Context, countryCode string) (domain.FusedIndicators, error) {
	s.called = true
	s.gotCountry = countryCode
	if s.err != nil {
		return domain.FusedIndicators{}, s.err
	}
	return s.indicators, nil
}

type stubSummarizer struct {
	gotIndicators domain.FusedIndicators
}

func (s *stubSummarizer) Summarize(_ context.Context, record domain.CollectedRecord, indicators domain.FusedIndicators) domain.ImpactAnalysis {
	s.gotIndicators = indicators
	return domain.ImpactAnalysis{
		RunID:    record.RunID,
		Location: record.Location.Name,
		Summary:  "narrative",
	}
}

type captureSink struct {
	mu        sync.Mutex
	published []domain.ImpactAnalysis
	err       error
}

func (s *captureSink) Publish(_ context.Context, analysis domain.ImpactAnalysis) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, analysis)
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.published)
}

type recordedState struct {
	state  State
	reason string
}

type captureRecorder struct {
	states []recordedState
}

func (c *captureRecorder) RecordState(_ string, _ domain.LocationQuery, state State, reason string) {
	c.states = append(c.states, recordedState{state: state, reason: reason})
}

func completeRecord() domain.CollectedRecord {
	return domain.CollectedRecord{
		RunID:       "run-1",
		Location:    domain.LocationQuery{Name: "Springfield"},
		CountryCode: "US",
		Weather:     &domain.WeatherSummary{Days: 2},
		Soil:        "clay at 0-5cm: 18.2 g/kg",
		Vegetation:  &domain.NDVISummary{Trend: domain.TrendStable},
	}
}

func TestImpactAgent_Process(t *testing.T) {
	gdp := domain.EconomicIndicator{Value: 1e12, Year: 2020, ISO3: "USA"}

	t.Run("fuses, summarizes, publishes", func(t *testing.T) {
		fuser := &stubFuser{indicators: domain.FusedIndicators{GDP: &gdp}}
		summarizer := &stubSummarizer{}
		sink := &captureSink{}
		recorder := &captureRecorder{}
		metrics := observability.NewMetricsForTesting()
		b := bus.NewInProc(time.Second, discardLogger(), metrics)
		t.Cleanup(b.Close)

		a := NewImpactAgent(b, fuser, summarizer, sink, recorder, discardLogger(), metrics)

		require.NoError(t, a.Process(context.Background(), completeRecord()))
		assert.Equal(t, "US", fuser.gotCountry)
		require.NotNil(t, summarizer.gotIndicators.GDP)
		require.Len(t, sink.published, 1)
		assert.Equal(t, "run-1", sink.published[0].RunID)
		assert.Equal(t, []recordedState{
			{state: StateSummarizing},
			{state: StateDone},
		}, recorder.states)
	})

	t.Run("missing country skips economic lookups", func(t *testing.T) {
		fuser := &stubFuser{}
		sink := &captureSink{}
		metrics := observability.NewMetricsForTesting()
		b := bus.NewInProc(time.Second, discardLogger(), metrics)
		t.Cleanup(b.Close)
		a := NewImpactAgent(b, fuser, &stubSummarizer{}, sink, nil, discardLogger(), metrics)

		record := completeRecord()
		record.CountryCode = ""
		require.NoError(t, a.Process(context.Background(), record))
		assert.False(t, fuser.called)
		assert.Len(t, sink.published, 1)
	})

	t.Run("fuse failure still publishes a report", func(t *testing.T) {
		fuser := &stubFuser{err: domain.ErrMissingDependency}
		summarizer := &stubSummarizer{}
		sink := &captureSink{}
		metrics := observability.NewMetricsForTesting()
		b := bus.NewInProc(time.Second, discardLogger(), metrics)
		t.Cleanup(b.Close)
		a := NewImpactAgent(b, fuser, summarizer, sink, nil, discardLogger(), metrics)

		require.NoError(t, a.Process(context.Background(), completeRecord()))
		assert.Nil(t, summarizer.gotIndicators.GDP)
		assert.Len(t, sink.published, 1)
	})

	t.Run("publish failure is terminal", func(t *testing.T) {
		sink := &captureSink{err: errors.New("broker unreachable")}
		recorder := &captureRecorder{}
		metrics := observability.NewMetricsForTesting()
		b := bus.NewInProc(time.Second, discardLogger(), metrics)
		t.Cleanup(b.Close)
		a := NewImpactAgent(b, &stubFuser{}, &stubSummarizer{}, sink, recorder, discardLogger(), metrics)

		err := a.Process(context.Background(), completeRecord())
		require.Error(t, err)
		require.NotEmpty(t, recorder.states)
		last := recorder.states[len(recorder.states)-1]
		assert.Equal(t, StateFailed, last.state)
		assert.Contains(t, last.reason, "broker unreachable")
	})

	t.Run("consumes records off the bus", func(t *testing.T) {
		sink := &captureSink{}
		metrics := observability.NewMetricsForTesting()
		b := bus.NewInProc(time.Second, discardLogger(), metrics)
		t.Cleanup(b.Close)
		NewImpactAgent(b, &stubFuser{}, &stubSummarizer{}, sink, nil, discardLogger(), metrics)

		msg, err := bus.NewMessage(TypeCollectedRecord, completeRecord())
		require.NoError(t, err)
		require.NoError(t, b.Send(context.Background(), AddrImpact, msg))

		require.Eventually(t, func() bool {
			return sink.count() == 1
		}, time.Second, 10*time.Millisecond)
	})
}
