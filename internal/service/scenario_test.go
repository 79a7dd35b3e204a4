package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/alphabot/alphabot-client/internal/api"
	"github.com/alphabot/alphabot-client/internal/credentials"
	"github.com/alphabot/alphabot-client/internal/model"
	"github.com/alphabot/alphabot-client/pkg/logger"
)

// backendServer mimics the Alpha Bot REST API closely enough for the
// ticker-to-completion flow.
type backendServer struct {
	mu       sync.Mutex
	rooms    map[string]map[string]any
	messages map[int64][]map[string]any
	nextRoom int64
}

func newBackendServer(t *testing.T) *httptest.Server {
	t.Helper()
	b := &backendServer{
		rooms:    make(map[string]map[string]any),
		messages: make(map[int64][]map[string]any),
		nextRoom: 1,
	}

	r := chi.NewRouter()
	r.Put("/api/v1/chats/by-stock/{ticker}", b.resolve)
	r.Get("/api/rooms/{id}/messages", b.list)
	r.Post("/api/rooms/{id}/chat-completions", b.complete)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func (b *backendServer) resolve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ticker := chi.URLParam(r, "ticker")
	if room, ok := b.rooms[ticker]; ok {
		out := map[string]any{"existed": true}
		for k, v := range room {
			out[k] = v
		}
		respond(w, http.StatusOK, out)
		return
	}
	room := map[string]any{
		"chat_id":    b.nextRoom,
		"title":      ticker + " chat",
		"stock_code": ticker,
		"trash_can":  "out",
		"created_at": "2025-03-01T09:00:00",
	}
	b.nextRoom++
	b.rooms[ticker] = room
	out := map[string]any{"existed": false}
	for k, v := range room {
		out[k] = v
	}
	respond(w, http.StatusOK, out)
}

func (b *backendServer) list(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	msgs := b.messages[id]
	if msgs == nil {
		msgs = []map[string]any{}
	}
	respond(w, http.StatusOK, msgs)
}

func (b *backendServer) complete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	user := map[string]any{"messages_id": 10, "chat_id": id, "role": "user", "content": body.Content, "created_at": "2025-03-01T09:01:00"}
	assistant := map[string]any{"messages_id": 11, "chat_id": id, "role": "assistant", "content": "TSLA is trading flat today.", "created_at": "2025-03-01T09:01:02"}
	b.messages[id] = append(b.messages[id], user, assistant)
	respond(w, http.StatusOK, map[string]any{"user_message": user, "assistant_message": assistant})
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestScenario_TickerToReconciledExchange(t *testing.T) {
	srv := newBackendServer(t)
	creds := credentials.NewMemoryStore()
	_ = creds.Set(context.Background(), "tok")
	client := api.New(api.Config{BaseURL: srv.URL, HTTPClient: srv.Client()}, creds, logger.NewNop())
	hub := NewHub(logger.NewNop())
	c := NewSessionController(client, creds, hub, logger.NewNop())
	ctx := context.Background()

	events, unsubscribe := hub.Subscribe(32)
	defer unsubscribe()

	room, err := c.ResolveRoom(ctx, "TSLA", "")
	if err != nil {
		t.Fatalf("ResolveRoom() error = %v", err)
	}
	if room.StockCode != "TSLA" {
		t.Errorf("StockCode = %q, want TSLA", room.StockCode)
	}
	if ev := waitEvent(t, events, model.EventRoomResolved); ev.Metadata["existed"] != false {
		t.Errorf("room_resolved existed = %v, want false", ev.Metadata["existed"])
	}

	again, err := c.ResolveRoom(ctx, "TSLA", "")
	if err != nil {
		t.Fatalf("second ResolveRoom() error = %v", err)
	}
	if again.ID != room.ID {
		t.Errorf("second resolution returned room %d, want %d", again.ID, room.ID)
	}
	if ev := waitEvent(t, events, model.EventRoomResolved); ev.Metadata["existed"] != true {
		t.Errorf("second room_resolved existed = %v, want true", ev.Metadata["existed"])
	}

	history, err := c.LoadHistory(ctx, room.ID)
	if err != nil {
		t.Fatalf("LoadHistory() error = %v", err)
	}
	if len(history) != 0 {
		t.Errorf("LoadHistory() = %d messages, want empty", len(history))
	}

	if _, err := c.Send(ctx, "hello"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	pending := waitEvent(t, events, model.EventExchangePending)
	if len(pending.Messages) != 2 {
		t.Fatalf("exchange_pending carried %d messages, want 2", len(pending.Messages))
	}
	for _, m := range pending.Messages {
		if _, ok := m.Provisional(); !ok {
			t.Errorf("pending message %+v is not provisional", m)
		}
	}
	waitEvent(t, events, model.EventExchangeReconciled)

	msgs := c.Snapshot().Messages
	if len(msgs) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(msgs))
	}
	want := []struct {
		id   model.ConfirmedID
		role model.Role
		text string
	}{
		{10, model.RoleUser, "hello"},
		{11, model.RoleAssistant, "TSLA is trading flat today."},
	}
	for i, w := range want {
		id, ok := msgs[i].Confirmed()
		if !ok || id != w.id || msgs[i].Role != w.role || msgs[i].Text != w.text {
			t.Errorf("Messages[%d] = %+v, want id %d %s %q", i, msgs[i], w.id, w.role, w.text)
		}
	}
}
