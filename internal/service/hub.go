package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alphabot/alphabot-client/internal/model"
	"github.com/alphabot/alphabot-client/pkg/logger"
)

// EventSink receives every session event, e.g. a NATS publisher.
type EventSink interface {
	PublishEvent(ctx context.Context, event *model.SessionEvent) error
}

// Hub fans session events out to in-process subscribers and sinks.
// Delivery to subscribers never blocks the controller: a subscriber whose
// buffer is full misses the event and should resync from a snapshot.
type Hub struct {
	logger *logger.Logger
	sinks  []EventSink

	mu     sync.Mutex
	nextID int
	subs   map[int]chan model.SessionEvent
}

// NewHub creates an event hub.
func NewHub(log *logger.Logger, sinks ...EventSink) *Hub {
	return &Hub{
		logger: log,
		sinks:  sinks,
		subs:   make(map[int]chan model.SessionEvent),
	}
}

// Subscribe registers a subscriber. The returned function unsubscribes and
// closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan model.SessionEvent, func()) {
	ch := make(chan model.SessionEvent, buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Emit stamps and delivers an event.
func (h *Hub) Emit(ev model.SessionEvent) {
	if ev.ID == "" {
		ev.ID = uuid.Must(uuid.NewV7()).String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	h.mu.Lock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.logger.Debug("subscriber lagging, event dropped", zap.String("type", string(ev.Type)))
		}
	}
	h.mu.Unlock()

	for _, sink := range h.sinks {
		go h.publish(sink, ev)
	}
}

func (h *Hub) publish(sink EventSink, ev model.SessionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sink.PublishEvent(ctx, &ev); err != nil {
		h.logger.Warn("failed to publish session event",
			zap.String("type", string(ev.Type)),
			zap.Error(err),
		)
	}
}
