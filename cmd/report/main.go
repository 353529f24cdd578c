// Command report runs one profiling pipeline end to end for a single
// location and writes the impact analysis to a local JSON file instead of
// Kafka.
//
// Usage:
//
//	go run ./cmd/report \
//	  -location "Springfield" -admin IL -country US \
//	  -start 2021-01-01 -end 2021-01-31
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/geoimpact/impact-profiler/internal/bus"
	"github.com/geoimpact/impact-profiler/internal/config"
	"github.com/geoimpact/impact-profiler/internal/domain"
	"github.com/geoimpact/impact-profiler/internal/economic"
	"github.com/geoimpact/impact-profiler/internal/geocode"
	"github.com/geoimpact/impact-profiler/internal/observability"
	"github.com/geoimpact/impact-profiler/internal/pipeline"
	"github.com/geoimpact/impact-profiler/internal/soil"
	"github.com/geoimpact/impact-profiler/internal/textanalytics"
	"github.com/geoimpact/impact-profiler/internal/vegetation"
	"github.com/geoimpact/impact-profiler/internal/weather"
)

// fileSink writes the analysis to impact_analysis_<location>.json in the
// working directory.
type fileSink struct {
	path string
}

func (s *fileSink) Publish(_ context.Context, analysis domain.ImpactAnalysis) error {
	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding analysis: %w", err)
	}
	return os.WriteFile(s.path, data, 0o644)
}

func main() {
	var (
		location = flag.String("location", "", "location name to profile (required)")
		admin    = flag.String("admin", "", "administrative region, e.g. a state or province")
		country  = flag.String("country", "", "ISO country code hint for the geocoder")
		start    = flag.String("start", "", "observation window start, YYYY-MM-DD (default: 30 days ago)")
		end      = flag.String("end", "", "observation window end, YYYY-MM-DD (default: yesterday)")
		cutoff   = flag.Int("cutoff", 0, "economic indicator cutoff year (default: CUTOFF_YEAR from env)")
	)
	flag.Parse()

	if *location == "" {
		fmt.Fprintln(os.Stderr, "-location is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *cutoff != 0 {
		cfg.CutoffYear = *cutoff
	}
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetricsForTesting() // one-shot run, nothing scrapes

	windowStart, windowEnd, err := parseWindow(*start, *end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid window: %v\n", err)
		os.Exit(2)
	}

	b := bus.NewInProc(cfg.QueryTimeout, logger, metrics)
	defer b.Close()

	geocoder := geocode.NewCachedGeocoder(
		geocode.NewClient(cfg.GeocodeBaseURL, cfg.GeocodeAPIKey, cfg.GeocodeTimeout, logger),
		cfg.GeocodeCacheSize,
	)
	pipeline.NewGeocodeAgent(b, geocoder, logger, metrics)

	aggregator := weather.NewAggregator(
		weather.NewClient(cfg.WeatherBaseURL, cfg.WeatherAPIKey, cfg.WeatherTimeout, logger),
		weather.NewInMemoryCache(),
		cfg.WeatherPacing,
		logger,
		metrics,
	)
	sampler := soil.NewSampler(soil.NewClient(cfg.SoilBaseURL, cfg.SoilTimeout, logger), logger, metrics)
	analyzer := vegetation.NewAnalyzer(vegetation.NewClient(cfg.SatelliteBaseURL, cfg.SatelliteTimeout, logger), logger, metrics)

	orchestrator := pipeline.NewOrchestrator(b, aggregator, sampler, analyzer, cfg.CloudThreshold, logger, metrics)

	fuser := economic.NewFuser(
		economic.NewWorldBankClient(cfg.IndicatorBaseURL, cfg.QueryTimeout, logger),
		economic.NewSDMXClient(cfg.SDMXBaseURL, cfg.QueryTimeout, logger),
		cfg.CutoffYear,
		logger,
		metrics,
	)

	var extractor textanalytics.KeyPhraseExtractor
	if cfg.TextAnalyticsEnabled {
		extractor = textanalytics.NewClient(cfg.TextAnalyticsEndpoint, cfg.TextAnalyticsKey, cfg.TextAnalyticsTimeout, logger)
	}
	summarizer := textanalytics.NewSummarizer(extractor, logger, metrics)

	sink := &fileSink{path: outputPath(*location)}
	pipeline.NewImpactAgent(b, fuser, summarizer, sink, orchestrator, logger, metrics)

	ctx := context.Background()
	record, err := orchestrator.Run(ctx, pipeline.ProfileRequest{
		Location: domain.LocationQuery{Name: *location, Admin: *admin, Country: *country},
		Start:    windowStart,
		End:      windowEnd,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}

	// The impact stage consumes the record off the bus; wait for the run
	// to reach a terminal state before exiting.
	if err := waitForRun(orchestrator, record.RunID, time.Minute); err != nil {
		fmt.Fprintf(os.Stderr, "impact stage failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %s\n", sink.path)
}

// waitForRun polls the run tracker until the run is done, failed, or the
// deadline passes.
func waitForRun(orchestrator *pipeline.Orchestrator, runID string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		status, ok := orchestrator.Status(runID)
		if ok {
			switch status.State {
			case pipeline.StateDone:
				return nil
			case pipeline.StateFailed:
				return fmt.Errorf("run %s failed: %s", runID, status.Reason)
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("run %s did not finish within %s", runID, timeout)
}

// parseWindow resolves the observation window, defaulting to the 30 days
// ending yesterday.
func parseWindow(start, end string) (time.Time, time.Time, error) {
	now := time.Now().UTC().Truncate(24 * time.Hour)
	windowEnd := now.AddDate(0, 0, -1)
	windowStart := windowEnd.AddDate(0, 0, -29)

	var err error
	if start != "" {
		if windowStart, err = time.Parse("2006-01-02", start); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing -start: %w", err)
		}
	}
	if end != "" {
		if windowEnd, err = time.Parse("2006-01-02", end); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing -end: %w", err)
		}
	}
	if windowEnd.Before(windowStart) {
		return time.Time{}, time.Time{}, fmt.Errorf("-end %s precedes -start %s", windowEnd.Format("2006-01-02"), windowStart.Format("2006-01-02"))
	}
	return windowStart, windowEnd, nil
}

func outputPath(location string) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(location), " ", "_"))
	return fmt.Sprintf("impact_analysis_%s.json", slug)
}
