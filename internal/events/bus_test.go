package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/common/logger"
	"expense-approvals/internal/common/observability"
	"expense-approvals/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(id string) models.TransitionEvent {
	return models.TransitionEvent{Claim: models.Claim{ID: id}, Type: models.NotificationSubmitted}
}

func TestBus_DeliversToHandler(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	bus := NewBus(Config{Workers: 2, QueueSize: 8}, func(_ context.Context, ev models.TransitionEvent) error {
		mu.Lock()
		seen = append(seen, ev.Claim.ID)
		mu.Unlock()
		return nil
	}, logger.NewTestLogger(t), observability.NewNoop())

	bus.Start(context.Background())
	for _, id := range []string{"c-1", "c-2", "c-3"} {
		require.NoError(t, bus.Emit(context.Background(), event(id)))
	}
	require.NoError(t, bus.Stop(context.Background()))

	assert.ElementsMatch(t, []string{"c-1", "c-2", "c-3"}, seen)
}

func TestBus_EmitFailsWhenSaturated(t *testing.T) {
	bus := NewBus(Config{Workers: 1, QueueSize: 1}, func(context.Context, models.TransitionEvent) error {
		return nil
	}, logger.NewTestLogger(t), observability.NewNoop())

	require.NoError(t, bus.Emit(context.Background(), event("c-1")))
	err := bus.Emit(context.Background(), event("c-2"))
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeEventQueueFull))
}

func TestBus_StopDrainsQueuedEvents(t *testing.T) {
	var handled int32
	bus := NewBus(Config{Workers: 1, QueueSize: 16}, func(context.Context, models.TransitionEvent) error {
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&handled, 1)
		return nil
	}, logger.NewTestLogger(t), observability.NewNoop())

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Emit(context.Background(), event("c")))
	}
	ctx, cancel := context.WithCancel(context.Background())
	bus.Start(ctx)
	cancel()

	require.NoError(t, bus.Stop(context.Background()))
	assert.Equal(t, int32(10), atomic.LoadInt32(&handled))

	err := bus.Emit(context.Background(), event("late"))
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeEventQueueFull))
	assert.NoError(t, bus.Stop(context.Background()))
}

func TestBus_StopTimesOut(t *testing.T) {
	release := make(chan struct{})
	bus := NewBus(Config{Workers: 1, QueueSize: 4}, func(ctx context.Context, _ models.TransitionEvent) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}, logger.NewTestLogger(t), observability.NewNoop())
	defer close(release)

	bus.Start(context.Background())
	require.NoError(t, bus.Emit(context.Background(), event("slow")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Stop(ctx), context.DeadlineExceeded)
}

func TestBus_HandlerFailuresDoNotStopWorkers(t *testing.T) {
	var calls int32
	bus := NewBus(Config{Workers: 1, QueueSize: 4}, func(_ context.Context, ev models.TransitionEvent) error {
		atomic.AddInt32(&calls, 1)
		switch ev.Claim.ID {
		case "panic":
			panic("boom")
		case "fail":
			return errors.New("dispatch failed")
		}
		return nil
	}, logger.NewTestLogger(t), observability.NewNoop())

	bus.Start(context.Background())
	for _, id := range []string{"panic", "fail", "ok"} {
		require.NoError(t, bus.Emit(context.Background(), event(id)))
	}
	require.NoError(t, bus.Stop(context.Background()))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}
