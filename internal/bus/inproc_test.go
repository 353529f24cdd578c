package bus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoimpact/impact-profiler/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBus(t *testing.T, queryTimeout time.Duration) *InProc {
	t.Helper()
	b := NewInProc(queryTimeout, discardLogger(), observability.NewMetricsForTesting())
	t.Cleanup(b.Close)
	return b
}

type greeting struct {
	Name string `json:"name"`
}

func TestMessage_RoundTrip(t *testing.T) {
	msg, err := NewMessage("greeting", greeting{Name: "ada"})
	require.NoError(t, err)
	assert.Equal(t, "greeting", msg.Type)
	assert.NotEmpty(t, msg.CorrelationID)

	var decoded greeting
	require.NoError(t, msg.Decode(&decoded))
	assert.Equal(t, "ada", decoded.Name)
}

func TestInProc_Send(t *testing.T) {
	t.Run("delivers to registered consumer", func(t *testing.T) {
		b := newTestBus(t, time.Second)

		received := make(chan Message, 1)
		b.Handle("stage.weather", func(_ context.Context, msg Message) (*Message, error) {
			received <- msg
			return nil, nil
		})

		msg, err := NewMessage("weather.request", greeting{Name: "ada"})
		require.NoError(t, err)
		require.NoError(t, b.Send(context.Background(), "stage.weather", msg))

		select {
		case got := <-received:
			assert.Equal(t, msg.CorrelationID, got.CorrelationID)
		case <-time.After(time.Second):
			t.Fatal("consumer never received the message")
		}
	})

	t.Run("unknown address", func(t *testing.T) {
		b := newTestBus(t, time.Second)

		msg, err := NewMessage("weather.request", greeting{})
		require.NoError(t, err)
		err = b.Send(context.Background(), "stage.nowhere", msg)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNoConsumer))
	})
}

func TestInProc_Query(t *testing.T) {
	t.Run("correlates reply to request", func(t *testing.T) {
		b := newTestBus(t, time.Second)

		b.Handle("stage.geocode", func(_ context.Context, msg Message) (*Message, error) {
			var req greeting
			if err := msg.Decode(&req); err != nil {
				return nil, err
			}
			reply, err := NewMessage("geocode.result", greeting{Name: "hello " + req.Name})
			if err != nil {
				return nil, err
			}
			return &reply, nil
		})

		msg, err := NewMessage("geocode.request", greeting{Name: "ada"})
		require.NoError(t, err)

		reply, err := b.Query(context.Background(), "stage.geocode", msg)
		require.NoError(t, err)
		assert.Equal(t, msg.CorrelationID, reply.CorrelationID)

		var decoded greeting
		require.NoError(t, reply.Decode(&decoded))
		assert.Equal(t, "hello ada", decoded.Name)
	})

	t.Run("concurrent queries stay correlated", func(t *testing.T) {
		b := newTestBus(t, 2*time.Second)

		b.Handle("stage.echo", func(_ context.Context, msg Message) (*Message, error) {
			var req greeting
			if err := msg.Decode(&req); err != nil {
				return nil, err
			}
			reply, err := NewMessage("echo.result", req)
			if err != nil {
				return nil, err
			}
			return &reply, nil
		})

		var wg sync.WaitGroup
		names := []string{"a", "b", "c", "d"}
		for _, name := range names {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				msg, err := NewMessage("echo.request", greeting{Name: name})
				assert.NoError(t, err)
				reply, err := b.Query(context.Background(), "stage.echo", msg)
				assert.NoError(t, err)

				var decoded greeting
				assert.NoError(t, reply.Decode(&decoded))
				assert.Equal(t, name, decoded.Name)
			}(name)
		}
		wg.Wait()
	})

	t.Run("silent consumer times out", func(t *testing.T) {
		b := newTestBus(t, 50*time.Millisecond)

		b.Handle("stage.silent", func(_ context.Context, _ Message) (*Message, error) {
			return nil, nil
		})

		msg, err := NewMessage("silent.request", greeting{})
		require.NoError(t, err)
		_, err = b.Query(context.Background(), "stage.silent", msg)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrQueryTimeout))
	})

	t.Run("canceled context wins over timeout", func(t *testing.T) {
		b := newTestBus(t, time.Minute)

		b.Handle("stage.slow", func(_ context.Context, _ Message) (*Message, error) {
			return nil, nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		msg, err := NewMessage("slow.request", greeting{})
		require.NoError(t, err)
		_, err = b.Query(ctx, "stage.slow", msg)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("handler error drops the reply", func(t *testing.T) {
		b := newTestBus(t, 50*time.Millisecond)

		b.Handle("stage.broken", func(_ context.Context, _ Message) (*Message, error) {
			return nil, errors.New("boom")
		})

		msg, err := NewMessage("broken.request", greeting{})
		require.NoError(t, err)
		_, err = b.Query(context.Background(), "stage.broken", msg)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrQueryTimeout))
	})
}
