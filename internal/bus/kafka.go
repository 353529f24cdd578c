package bus

import (
	"context"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/geoimpact/impact-profiler/internal/observability"
)

// KafkaPublisher is the outward-facing transport: Send publishes an
// envelope to the Kafka topic named by the address. It is fire-and-forget;
// Query is unsupported, and inbound consumption is owned by the Kafka
// adapter's reader, not this type.
type KafkaPublisher struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewKafkaPublisher creates a publisher over the given brokers. The topic
// is taken per-message from the Send address.
func NewKafkaPublisher(brokers []string, logger *slog.Logger, metrics *observability.Metrics) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &KafkaPublisher{writer: w, logger: logger, metrics: metrics}
}

// Send publishes the envelope to the topic named by address. The envelope
// type and correlation ID travel as headers so consumers can route without
// decoding the payload.
func (p *KafkaPublisher) Send(ctx context.Context, address string, msg Message) error {
	err := p.writer.WriteMessages(ctx, kafkago.Message{
		Topic: address,
		Key:   []byte(msg.CorrelationID),
		Value: msg.Payload,
		Headers: []kafkago.Header{
			{Key: "type", Value: []byte(msg.Type)},
			{Key: "correlation_id", Value: []byte(msg.CorrelationID)},
		},
	})
	if err != nil {
		return fmt.Errorf("publishing %s to %s: %w", msg.Type, address, err)
	}
	p.metrics.BusMessages.WithLabelValues("kafka", "send").Inc()
	return nil
}

// Query is unsupported on the Kafka transport.
func (p *KafkaPublisher) Query(_ context.Context, address string, msg Message) (Message, error) {
	return Message{}, fmt.Errorf("%w: %s to %s", ErrQueryUnsupported, msg.Type, address)
}

// Handle is a no-op: inbound topic consumption runs through the Kafka
// adapter's reader loop rather than per-address handlers.
func (p *KafkaPublisher) Handle(address string, _ Handler) {
	p.logger.Warn("ignoring handler registration on publish-only transport", "address", address)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
