package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/geoimpact/impact-profiler/internal/observability"
)

const mailboxDepth = 16

// InProc is the single-binary transport: each address owns a buffered
// mailbox drained by one consumer goroutine, and queries are matched to
// replies by correlation ID.
type InProc struct {
	queryTimeout time.Duration
	logger       *slog.Logger
	metrics      *observability.Metrics

	mu        sync.Mutex
	mailboxes map[string]chan delivery
	handlers  map[string]Handler
	pending   map[string]chan Message
	done      chan struct{}
	closed    bool
}

type delivery struct {
	ctx context.Context
	msg Message
}

// NewInProc creates the in-process transport. queryTimeout bounds how long
// Query waits for a correlated reply.
func NewInProc(queryTimeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *InProc {
	return &InProc{
		queryTimeout: queryTimeout,
		logger:       logger,
		metrics:      metrics,
		mailboxes:    make(map[string]chan delivery),
		handlers:     make(map[string]Handler),
		pending:      make(map[string]chan Message),
		done:         make(chan struct{}),
	}
}

// Handle registers the consumer for an address and starts draining its
// mailbox.
func (b *InProc) Handle(address string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[address] = handler
	if _, ok := b.mailboxes[address]; ok {
		return
	}
	mailbox := make(chan delivery, mailboxDepth)
	b.mailboxes[address] = mailbox
	go b.consume(address, mailbox)
}

// Send enqueues a message for the address's consumer.
func (b *InProc) Send(ctx context.Context, address string, msg Message) error {
	b.mu.Lock()
	mailbox, ok := b.mailboxes[address]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoConsumer, address)
	}

	select {
	case mailbox <- delivery{ctx: ctx, msg: msg}:
		b.metrics.BusMessages.WithLabelValues("inproc", "send").Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return fmt.Errorf("%w: %s", ErrNoConsumer, address)
	}
}

// Query enqueues a message and blocks until the consumer's reply arrives,
// the query window elapses, or the context is canceled.
func (b *InProc) Query(ctx context.Context, address string, msg Message) (Message, error) {
	replies := make(chan Message, 1)
	b.mu.Lock()
	b.pending[msg.CorrelationID] = replies
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, msg.CorrelationID)
		b.mu.Unlock()
	}()

	msg.ReplyTo = msg.CorrelationID
	if err := b.Send(ctx, address, msg); err != nil {
		return Message{}, err
	}
	b.metrics.BusMessages.WithLabelValues("inproc", "query").Inc()

	timer := time.NewTimer(b.queryTimeout)
	defer timer.Stop()

	select {
	case reply := <-replies:
		return reply, nil
	case <-timer.C:
		return Message{}, fmt.Errorf("%w: %s to %s", ErrQueryTimeout, msg.Type, address)
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Close stops accepting sends. In-flight handlers finish their current
// message.
func (b *InProc) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
}

// consume drains one address's mailbox, dispatching each message to the
// registered handler and routing replies back to waiting queriers.
func (b *InProc) consume(address string, mailbox chan delivery) {
	for {
		select {
		case <-b.done:
			return
		case d := <-mailbox:
			b.dispatch(address, d)
		}
	}
}

func (b *InProc) dispatch(address string, d delivery) {
	b.mu.Lock()
	handler := b.handlers[address]
	b.mu.Unlock()

	reply, err := handler(d.ctx, d.msg)
	if err != nil {
		b.logger.Error("message handler failed",
			"address", address,
			"type", d.msg.Type,
			"correlation_id", d.msg.CorrelationID,
			"error", err,
		)
		return
	}
	if reply == nil || d.msg.ReplyTo == "" {
		return
	}

	reply.CorrelationID = d.msg.CorrelationID
	b.mu.Lock()
	replies, ok := b.pending[d.msg.ReplyTo]
	b.mu.Unlock()
	if !ok {
		// Querier gave up before the reply was ready.
		b.logger.Warn("dropping reply with no waiting querier",
			"address", address,
			"correlation_id", d.msg.CorrelationID,
		)
		return
	}
	replies <- *reply
	b.metrics.BusMessages.WithLabelValues("inproc", "reply").Inc()
}
