// Package kafka adapts the profiler's inbound and outbound edges to Kafka:
// profile requests are consumed from the request topic and impact reports
// are produced to the report topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/geoimpact/impact-profiler/internal/config"
	"github.com/geoimpact/impact-profiler/internal/pipeline"
)

// Reader consumes profile requests from the request topic.
// It implements pipeline.RequestSource.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a consumer-group reader for the configured request
// topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaRequestTopic,
		GroupID: cfg.KafkaGroupID,
	})
	return &Reader{reader: r, logger: logger}
}

// Next fetches and decodes one profile request. The returned commit
// function acknowledges the message's offset; a malformed message is
// committed immediately and reported as an error so the loop can move on.
func (r *Reader) Next(ctx context.Context) (pipeline.ProfileRequest, func(context.Context) error, error) {
	msg, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return pipeline.ProfileRequest{}, nil, fmt.Errorf("fetching profile request: %w", err)
	}

	var req pipeline.ProfileRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		if commitErr := r.reader.CommitMessages(ctx, msg); commitErr != nil {
			r.logger.Warn("committing malformed request failed", "error", commitErr)
		}
		return pipeline.ProfileRequest{}, nil, fmt.Errorf("decoding profile request at offset %d: %w", msg.Offset, err)
	}

	commit := func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	return req, commit, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}
