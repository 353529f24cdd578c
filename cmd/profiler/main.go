package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/geoimpact/impact-profiler/internal/adapter/http"
	kafkaadapter "github.com/geoimpact/impact-profiler/internal/adapter/kafka"
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

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

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

	// Key-phrase extraction is feature-flagged via TEXT_ANALYTICS_KEY.
	var extractor textanalytics.KeyPhraseExtractor
	if cfg.TextAnalyticsEnabled {
		extractor = textanalytics.NewClient(cfg.TextAnalyticsEndpoint, cfg.TextAnalyticsKey, cfg.TextAnalyticsTimeout, logger)
		logger.Info("key phrase extraction enabled", "endpoint", cfg.TextAnalyticsEndpoint)
	} else {
		logger.Info("key phrase extraction disabled")
	}
	summarizer := textanalytics.NewSummarizer(extractor, logger, metrics)

	reportWriter := kafkaadapter.NewReportWriter(cfg, logger)
	impactAgent := pipeline.NewImpactAgent(b, fuser, summarizer, reportWriter, orchestrator, logger, metrics)

	// Collected records are mirrored to the record topic for external
	// consumers before the in-process impact stage takes over.
	recordPublisher := bus.NewKafkaPublisher(cfg.KafkaBrokers, logger, metrics)
	b.Handle(pipeline.AddrImpact, func(ctx context.Context, msg bus.Message) (*bus.Message, error) {
		if err := recordPublisher.Send(ctx, cfg.KafkaRecordTopic, msg); err != nil {
			logger.Warn("mirroring collected record failed", "error", err)
		}
		var record domain.CollectedRecord
		if err := msg.Decode(&record); err != nil {
			return nil, err
		}
		return nil, impactAgent.Process(ctx, record)
	})

	reader := kafkaadapter.NewReader(cfg, logger)
	loop := pipeline.NewLoop(reader, orchestrator, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, orchestrator, orchestrator, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := loop.Run(ctx); err != nil {
			logger.Error("request loop error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := recordPublisher.Close(); err != nil {
		logger.Error("record publisher close error", "error", err)
	}
	if err := reportWriter.Close(); err != nil {
		logger.Error("report writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
