package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/geoimpact/impact-profiler/internal/config"
	"github.com/geoimpact/impact-profiler/internal/domain"
)

// ReportWriter produces impact analyses to the report topic.
// It implements pipeline.ReportSink.
type ReportWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewReportWriter creates a producer for the configured report topic.
func NewReportWriter(cfg *config.Config, logger *slog.Logger) *ReportWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &ReportWriter{writer: w, logger: logger}
}

// Publish serializes and produces one impact analysis.
func (w *ReportWriter) Publish(ctx context.Context, analysis domain.ImpactAnalysis) error {
	msg, err := serializeAnalysis(analysis)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *ReportWriter) Close() error {
	return w.writer.Close()
}

// serializeAnalysis marshals an impact analysis into a Kafka message keyed
// by run ID.
func serializeAnalysis(analysis domain.ImpactAnalysis) (kafkago.Message, error) {
	data, err := json.Marshal(analysis)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize impact analysis: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(analysis.RunID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "location", Value: []byte(analysis.Location)},
			{Key: "generated_at", Value: []byte(analysis.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
