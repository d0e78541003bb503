// Package events decouples transition side effects from the request that
// caused them. Emit enqueues without blocking; a fixed worker pool drains.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/common/logger"
	"expense-approvals/internal/common/metrics"
	"expense-approvals/internal/common/observability"
	"expense-approvals/internal/models"
)

// Handler processes one transition event.
type Handler func(ctx context.Context, event models.TransitionEvent) error

type Config struct {
	Workers   int
	QueueSize int
}

type Bus struct {
	queue   chan models.TransitionEvent
	handler Handler
	workers int
	logger  logger.Logger
	obs     *observability.Observability

	mu      sync.RWMutex
	stopped bool

	startOnce sync.Once
	wg        sync.WaitGroup
	cancel    context.CancelFunc
}

func NewBus(cfg Config, handler Handler, log logger.Logger, obs *observability.Observability) *Bus {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	return &Bus{
		queue:   make(chan models.TransitionEvent, cfg.QueueSize),
		handler: handler,
		workers: cfg.Workers,
		logger:  logger.ForComponent(log, "event_bus"),
		obs:     obs,
	}
}

// Emit enqueues event. It fails with EVENT_QUEUE_FULL when the queue is
// saturated or the bus has been stopped.
func (b *Bus) Emit(_ context.Context, event models.TransitionEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.stopped {
		metrics.EventsDropped.Inc()
		return apperrors.NewEventQueueFullError(cap(b.queue)).WithMetadata("stopped", true)
	}

	select {
	case b.queue <- event:
		metrics.EventQueueDepth.Set(float64(len(b.queue)))
		return nil
	default:
		metrics.EventsDropped.Inc()
		b.logger.Warn("Transition event dropped", map[string]interface{}{
			"claim_id":   event.Claim.ID,
			"event_type": string(event.Type),
			"capacity":   cap(b.queue),
		})
		return apperrors.NewEventQueueFullError(cap(b.queue))
	}
}

// Start launches the workers. Handlers run on a context detached from ctx's
// cancellation so queued events survive shutdown until Stop gives up.
func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		workCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		b.cancel = cancel
		for i := 0; i < b.workers; i++ {
			b.wg.Add(1)
			go b.run(workCtx, i)
		}
		b.logger.Info("Event bus started", map[string]interface{}{
			"workers":    b.workers,
			"queue_size": cap(b.queue),
		})
	})
}

// Stop refuses new events and waits for queued ones to be handled. If ctx
// expires first the in-flight handlers are cancelled and ctx.Err returned.
func (b *Bus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil
	}
	b.stopped = true
	close(b.queue)
	b.mu.Unlock()

	// Never started: nothing will drain the queue.
	if b.cancel == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.cancel()
		b.logger.Info("Event bus drained", nil)
		return nil
	case <-ctx.Done():
		b.cancel()
		b.logger.Warn("Event bus drain timed out", map[string]interface{}{
			"pending": len(b.queue),
		})
		return ctx.Err()
	}
}

func (b *Bus) run(ctx context.Context, id int) {
	defer b.wg.Done()
	for event := range b.queue {
		metrics.EventQueueDepth.Set(float64(len(b.queue)))
		b.handle(ctx, id, event)
	}
}

func (b *Bus) handle(ctx context.Context, workerID int, event models.TransitionEvent) {
	start := time.Now()
	status := "success"

	defer func() {
		if r := recover(); r != nil {
			status = "panic"
			b.logger.Error("Transition handler panicked", map[string]interface{}{
				"worker":   workerID,
				"claim_id": event.Claim.ID,
				"panic":    fmt.Sprint(r),
			})
		}
		b.obs.RecordEventHandled(ctx, string(event.Type), status)
		b.obs.RecordEventDuration(ctx, string(event.Type), time.Since(start))
	}()

	if err := b.handler(ctx, event); err != nil {
		status = "failed"
		b.logger.WithError(err).Error("Transition handler failed", map[string]interface{}{
			"worker":     workerID,
			"claim_id":   event.Claim.ID,
			"event_type": string(event.Type),
		})
	}
}
