package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alphabot/alphabot-client/internal/model"
	"github.com/alphabot/alphabot-client/pkg/logger"
)

type recordingSink struct {
	mu     sync.Mutex
	events []model.SessionEvent
	done   chan struct{}
}

func (s *recordingSink) PublishEvent(ctx context.Context, ev *model.SessionEvent) error {
	s.mu.Lock()
	s.events = append(s.events, *ev)
	s.mu.Unlock()
	s.done <- struct{}{}
	return nil
}

func TestHub_EmitStampsAndFansOut(t *testing.T) {
	sink := &recordingSink{done: make(chan struct{}, 1)}
	hub := NewHub(logger.NewNop(), sink)
	ch, unsubscribe := hub.Subscribe(1)

	hub.Emit(model.SessionEvent{Type: model.EventRoomsListed})

	ev := <-ch
	if ev.ID == "" || ev.CreatedAt.IsZero() {
		t.Errorf("event not stamped: %+v", ev)
	}
	select {
	case <-sink.done:
	case <-time.After(2 * time.Second):
		t.Fatal("sink never received the event")
	}

	// A full subscriber buffer drops rather than blocks.
	hub.Emit(model.SessionEvent{Type: model.EventRoomsListed})
	hub.Emit(model.SessionEvent{Type: model.EventRoomsListed})
	<-sink.done
	<-sink.done

	unsubscribe()
	unsubscribe()
	for range ch {
	}
}

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "tsla", want: "TSLA"},
		{in: " brk.b ", want: "BRK.B"},
		{in: "005930", want: "005930"},
		{in: "t s l a", want: "TSLA"},
		{in: "", wantErr: true},
		{in: "AAPL!", wantErr: true},
		{in: "ABCDEFGHIJKLMNOPQRSTUV", wantErr: true},
	}

	for _, tt := range tests {
		got, err := NormalizeTicker(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidTicker) {
				t.Errorf("NormalizeTicker(%q) error = %v, want ErrInvalidTicker", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NormalizeTicker(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}
