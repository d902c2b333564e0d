package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ai-garden/internal/domain"
	"ai-garden/internal/repository"
)

// EventTracker persiste eventos de analitica en background. Los fallos se
// absorben y solo se loguean: este canal lateral nunca bloquea ni hace fallar
// la respuesta principal.
type EventTracker struct {
	logger *zap.Logger
	events repository.EventRepository
	wg     sync.WaitGroup
}

func NewEventTracker(logger *zap.Logger, events repository.EventRepository) *EventTracker {
	return &EventTracker{
		logger: logger,
		events: events,
	}
}

// Track registra el evento en una goroutine propia (fire and forget).
func (t *EventTracker) Track(event domain.Event) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.record(event)
	}()
}

func (t *EventTracker) record(event domain.Event) {
	if t.events == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.events.Create(ctx, event); err != nil && t.logger != nil {
		t.logger.Warn("track event failed",
			zap.Error(err),
			zap.String("event_type", event.EventType),
		)
	}
}

// Wait espera los eventos en vuelo; util en shutdown y en tests.
func (t *EventTracker) Wait() {
	t.wg.Wait()
}
