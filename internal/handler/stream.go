package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/alphabot/alphabot-client/internal/middleware"
	"github.com/alphabot/alphabot-client/internal/model"
	"github.com/alphabot/alphabot-client/internal/service"
	"github.com/alphabot/alphabot-client/pkg/logger"
	"github.com/alphabot/alphabot-client/pkg/metrics"
)

// EventReplayer reads published session events back from a durable log.
type EventReplayer interface {
	ReplayEvents(ctx context.Context, roomID int64, afterSequence uint64, limit int) ([]model.SessionEvent, uint64, bool, error)
}

// StreamHandler handles SSE streaming endpoints.
type StreamHandler struct {
	session   *service.SessionController
	replayer  EventReplayer
	logger    *logger.Logger
	heartbeat time.Duration
}

// NewStreamHandler creates a new stream handler. replayer may be nil when
// events are not persisted.
func NewStreamHandler(session *service.SessionController, replayer EventReplayer, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		session:   session,
		replayer:  replayer,
		logger:    log,
		heartbeat: 30 * time.Second,
	}
}

// HeartbeatEvent keeps idle connections open.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// ReplayCompleteEvent marks the end of replayed events.
type ReplayCompleteEvent struct {
	LastSequence uint64 `json:"last_sequence"`
	EventCount   int    `json:"event_count"`
}

// Stream handles GET /api/session/stream
// The first event is a snapshot; every controller event follows.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	events, unsubscribe := h.session.Subscribe(64)
	defer unsubscribe()

	setSSEHeaders(w)

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	sendSSEEvent(w, flusher, "snapshot", h.session.Snapshot())

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("SSE client disconnected", zap.String("correlation_id", middleware.GetCorrelationID(ctx)))
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := sendSSEEvent(w, flusher, string(ev.Type), ev); err != nil {
				h.logger.Warn("failed to write SSE event", zap.Error(err))
				return
			}

		case <-heartbeat.C:
			sendSSEEvent(w, flusher, "heartbeat", &HeartbeatEvent{Timestamp: time.Now()})
		}
	}
}

// Replay handles GET /api/rooms/{id}/events
// Supports ?after_sequence=N for resuming from a specific point.
func (h *StreamHandler) Replay(w http.ResponseWriter, r *http.Request) {
	if h.replayer == nil {
		writeError(w, http.StatusNotImplemented, "event log not configured")
		return
	}

	roomID, err := middleware.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var afterSequence uint64
	if seqStr := r.URL.Query().Get("after_sequence"); seqStr != "" {
		if seq, err := strconv.ParseUint(seqStr, 10, 64); err == nil {
			afterSequence = seq
		}
	}
	limit := queryInt(r, "limit")
	if limit == 0 || limit > 500 {
		limit = 100
	}

	events, last, hasMore, err := h.replayer.ReplayEvents(r.Context(), roomID, afterSequence, limit)
	if err != nil {
		h.logger.Error("failed to replay events", zap.Int64("room_id", roomID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to replay events")
		return
	}
	if events == nil {
		events = []model.SessionEvent{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events":        events,
		"last_sequence": last,
		"has_more":      hasMore,
	})
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	flusher.Flush()

	return nil
}
