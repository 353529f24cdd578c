// Package bus carries typed messages between pipeline stages. Stages are
// independently addressable: each listens on a named address and exchanges
// envelopes that carry a message type, a correlation ID, and a JSON
// payload. Two transports exist, one in-process for the single-binary
// deployment and one Kafka-backed for publishing to external topics.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Transport errors.
var (
	// ErrNoConsumer means no handler is registered at the target address.
	ErrNoConsumer = errors.New("no consumer registered at address")
	// ErrQueryUnsupported means the transport is fire-and-forget only.
	ErrQueryUnsupported = errors.New("transport does not support queries")
	// ErrQueryTimeout means no reply arrived within the query window.
	ErrQueryTimeout = errors.New("query timed out awaiting reply")
)

// Message is the envelope exchanged between stages.
type Message struct {
	Type          string          `json:"type"`
	CorrelationID string          `json:"correlation_id"`
	ReplyTo       string          `json:"reply_to,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewMessage builds an envelope with a fresh correlation ID around a JSON
// payload.
func NewMessage(msgType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encoding %s payload: %w", msgType, err)
	}
	return Message{
		Type:          msgType,
		CorrelationID: uuid.NewString(),
		Payload:       data,
	}, nil
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", m.Type, err)
	}
	return nil
}

// Handler consumes a message at an address. A non-nil return is the reply
// for query-style exchanges; fire-and-forget handlers return nil.
type Handler func(ctx context.Context, msg Message) (*Message, error)

// Bus delivers envelopes to addressable consumers.
type Bus interface {
	// Send delivers a message without waiting for a reply.
	Send(ctx context.Context, address string, msg Message) error
	// Query delivers a message and blocks for the correlated reply.
	Query(ctx context.Context, address string, msg Message) (Message, error)
	// Handle registers the consumer for an address. One consumer per
	// address; registering twice replaces the handler for new messages.
	Handle(address string, handler Handler)
}
