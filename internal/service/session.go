// Package service holds the client-side business logic: the chat session
// controller, the room sidebar, account and library operations.
package service

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/alphabot/alphabot-client/internal/api"
	"github.com/alphabot/alphabot-client/internal/credentials"
	"github.com/alphabot/alphabot-client/internal/model"
	"github.com/alphabot/alphabot-client/pkg/logger"
	"github.com/alphabot/alphabot-client/pkg/metrics"
	"github.com/alphabot/alphabot-client/pkg/tracing"
)

// ChatBackend is the part of the backend API used by the session controller.
type ChatBackend interface {
	ResolveRoomByStock(ctx context.Context, ticker, titleHint string) (*model.ResolvedRoom, error)
	ListMessages(ctx context.Context, roomID, afterID int64) ([]api.MessageRecord, error)
	CreateCompletion(ctx context.Context, roomID int64, content string) (*api.Completion, error)
}

// Exchange is a reconciled user message and its assistant reply.
type Exchange struct {
	User      model.Message `json:"user_message"`
	Assistant model.Message `json:"assistant_message"`
}

type pendingExchange struct {
	user      model.ProvisionalID
	assistant model.ProvisionalID
}

// SessionController owns the chat session for one selected ticker: the
// resolved room, its transcript and the single in-flight exchange.
// Presentation layers read it through Snapshot and Subscribe.
type SessionController struct {
	backend ChatBackend
	guard   *boundary
	hub     *Hub
	logger  *logger.Logger
	tracer  trace.Tracer
	newID   func() model.ProvisionalID

	mu         sync.Mutex
	generation uint64
	// scope is cancelled when the session is superseded.
	scope    context.Context
	cancel   context.CancelFunc
	ticker   string
	room     *model.Room
	messages []model.Message
	pending  *pendingExchange
	loading  bool
	lastErr  string
}

// NewSessionController creates a controller with no session.
func NewSessionController(backend ChatBackend, creds credentials.Provider, hub *Hub, log *logger.Logger) *SessionController {
	scope, cancel := context.WithCancel(context.Background())
	return &SessionController{
		backend: backend,
		guard:   newBoundary(creds, hub, log),
		hub:     hub,
		logger:  log,
		tracer:  tracing.Tracer("github.com/alphabot/alphabot-client/internal/service"),
		newID: func() model.ProvisionalID {
			return model.ProvisionalID("tmp-" + uuid.NewString())
		},
		scope:  scope,
		cancel: cancel,
	}
}

// OpenTicker is the ticker selection flow: resolve the room, then load its
// full history.
func (c *SessionController) OpenTicker(ctx context.Context, ticker, titleHint string) (*model.Room, []model.Message, error) {
	code, err := NormalizeTicker(ticker)
	if err != nil {
		return nil, nil, err
	}

	gen, scope := c.begin(code)
	room, err := c.resolve(ctx, gen, scope, code, titleHint)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := c.load(ctx, gen, scope, room.ID, true)
	if err != nil {
		return room, nil, err
	}
	return room, msgs, nil
}

// ResolveRoom discards the current session and makes the ticker's room the
// current one, creating it on the backend if needed. Resolving the same
// ticker again returns the same room.
func (c *SessionController) ResolveRoom(ctx context.Context, ticker, titleHint string) (*model.Room, error) {
	code, err := NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	gen, scope := c.begin(code)
	room, err := c.resolve(ctx, gen, scope, code, titleHint)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.generation == gen {
		c.loading = false
	}
	c.mu.Unlock()
	return room, nil
}

// LoadHistory fetches a room's full transcript. When roomID is the current
// session's room the transcript is merged into the rendered one by message
// ID; on failure the rendered transcript is kept.
func (c *SessionController) LoadHistory(ctx context.Context, roomID int64) ([]model.Message, error) {
	c.mu.Lock()
	current := c.room != nil && c.room.ID == roomID
	if current && c.pending != nil {
		c.mu.Unlock()
		return nil, ErrSendInFlight
	}
	gen, scope := c.generation, c.scope
	if current {
		c.loading = true
	}
	c.mu.Unlock()

	return c.load(ctx, gen, scope, roomID, current)
}

// Refresh appends messages newer than the last confirmed one.
func (c *SessionController) Refresh(ctx context.Context) ([]model.Message, error) {
	ctx, span := c.tracer.Start(ctx, "session.refresh")
	defer span.End()

	c.mu.Lock()
	if c.room == nil {
		c.mu.Unlock()
		return nil, ErrNoRoom
	}
	if c.pending != nil {
		c.mu.Unlock()
		return nil, ErrSendInFlight
	}
	gen, scope, roomID := c.generation, c.scope, c.room.ID
	cursor := c.lastConfirmedLocked()
	c.mu.Unlock()

	opCtx, release := bind(ctx, scope)
	recs, err := c.backend.ListMessages(opCtx, roomID, int64(cursor))
	release()
	if err != nil && scope.Err() == nil {
		span.RecordError(err)
		err = c.guard.classify(ctx, "refresh_history", ErrResolutionFailed, "", err)
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		metrics.StaleResponsesTotal.WithLabelValues("refresh_history").Inc()
		return nil, ErrSuperseded
	}
	if err != nil {
		c.lastErr = err.Error()
		c.mu.Unlock()
		c.emitError(gen, roomID, err)
		return nil, err
	}

	seen := make(map[model.ConfirmedID]bool, len(c.messages))
	for _, m := range c.messages {
		if id, ok := m.Confirmed(); ok {
			seen[id] = true
		}
	}
	var added []model.Message
	for _, rec := range recs {
		if seen[model.ConfirmedID(rec.ID)] {
			continue
		}
		added = append(added, rec.Message())
	}
	if len(added) > 0 {
		c.messages = c.withPendingTailLocked(mergeConfirmed(c.confirmedLocked(), added))
	}
	c.lastErr = ""
	c.mu.Unlock()

	if len(added) > 0 {
		c.emit(model.SessionEvent{
			Type:       model.EventHistoryLoaded,
			Generation: gen,
			RoomID:     roomID,
			Messages:   copyMessages(added),
			Metadata:   map[string]any{"incremental": true},
		})
	}
	return added, nil
}

// Send submits text as a new exchange. Two provisional entries are appended
// immediately; on success they are replaced in place by the confirmed pair,
// on failure both are removed. Only one exchange may be in flight.
func (c *SessionController) Send(ctx context.Context, text string) (*Exchange, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		metrics.SendsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.room == nil {
		c.mu.Unlock()
		metrics.SendsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrNoRoom
	}
	if c.pending != nil {
		c.mu.Unlock()
		metrics.SendsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrSendInFlight
	}

	gen, roomID := c.generation, c.room.ID
	p := &pendingExchange{user: c.newID(), assistant: c.newID()}
	provisional := []model.Message{
		{Ref: p.user, RoomID: roomID, Role: model.RoleUser, Text: trimmed},
		{Ref: p.assistant, RoomID: roomID, Role: model.RoleAssistant, Text: model.GeneratingText, Status: model.StatusGenerating},
	}
	c.messages = append(c.messages, provisional...)
	c.pending = p
	c.lastErr = ""
	c.mu.Unlock()

	c.emit(model.SessionEvent{
		Type:       model.EventExchangePending,
		Generation: gen,
		RoomID:     roomID,
		Messages:   copyMessages(provisional),
	})

	ctx, span := c.tracer.Start(ctx, "session.send", trace.WithAttributes(attribute.Int64("room_id", roomID)))
	defer span.End()

	completion, err := c.backend.CreateCompletion(ctx, roomID, trimmed)
	if err != nil {
		span.RecordError(err)
		err = c.guard.classify(ctx, "send_message", ErrSendFailed, "", err)
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		metrics.StaleResponsesTotal.WithLabelValues("send_message").Inc()
		return nil, ErrSuperseded
	}

	if err != nil {
		c.messages = removeRefs(c.messages, p.user, p.assistant)
		c.pending = nil
		c.lastErr = err.Error()
		c.mu.Unlock()

		metrics.SendsTotal.WithLabelValues("rolled_back").Inc()
		c.emit(model.SessionEvent{
			Type:       model.EventExchangeRolledBack,
			Generation: gen,
			RoomID:     roomID,
			Messages:   copyMessages(provisional),
			Reason:     err.Error(),
		})
		return nil, err
	}

	ex := &Exchange{
		User:      completion.UserMessage.Message(),
		Assistant: completion.AssistantMessage.Message(),
	}
	c.replaceLocked(p.user, ex.User)
	c.replaceLocked(p.assistant, ex.Assistant)
	c.pending = nil
	c.mu.Unlock()

	metrics.SendsTotal.WithLabelValues("reconciled").Inc()
	c.logger.Debug("exchange reconciled",
		zap.Int64("room_id", roomID),
		zap.String("user_message", ex.User.Ref.String()),
		zap.String("assistant_message", ex.Assistant.Ref.String()),
	)
	c.emit(model.SessionEvent{
		Type:       model.EventExchangeReconciled,
		Generation: gen,
		RoomID:     roomID,
		Messages:   []model.Message{ex.User, ex.Assistant},
		Metadata: map[string]any{
			"replaced": []string{string(p.user), string(p.assistant)},
		},
	})
	return ex, nil
}

// Snapshot returns a copy of the session state.
func (c *SessionController) Snapshot() model.SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := model.SessionSnapshot{
		Generation: c.generation,
		Ticker:     c.ticker,
		Messages:   copyMessages(c.messages),
		Phase:      model.PhaseIdle,
		Loading:    c.loading,
		LastError:  c.lastErr,
	}
	if snap.Messages == nil {
		snap.Messages = []model.Message{}
	}
	if c.room != nil {
		room := *c.room
		snap.Room = &room
	}
	if c.pending != nil {
		snap.Phase = model.PhaseSending
	}
	return snap
}

// Subscribe streams session events.
func (c *SessionController) Subscribe(buffer int) (<-chan model.SessionEvent, func()) {
	return c.hub.Subscribe(buffer)
}

// Close leaves the chat view. Pending work is flagged stale and in-flight
// loads are cancelled.
func (c *SessionController) Close() {
	c.mu.Lock()
	gen := c.resetLocked("")
	c.mu.Unlock()
	c.emit(model.SessionEvent{Type: model.EventSessionReset, Generation: gen})
}

// CurrentRoomID returns the current session's room, or 0.
func (c *SessionController) CurrentRoomID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == nil {
		return 0
	}
	return c.room.ID
}

// applyRoom updates the current room after a rename elsewhere.
func (c *SessionController) applyRoom(room model.Room) {
	c.mu.Lock()
	if c.room == nil || c.room.ID != room.ID {
		c.mu.Unlock()
		return
	}
	c.room.Title = room.Title
	gen := c.generation
	c.mu.Unlock()

	c.emit(model.SessionEvent{Type: model.EventRoomUpdated, Generation: gen, RoomID: room.ID, Room: &room})
}

func (c *SessionController) begin(ticker string) (uint64, context.Context) {
	c.mu.Lock()
	gen := c.resetLocked(ticker)
	c.loading = true
	scope := c.scope
	c.mu.Unlock()

	c.emit(model.SessionEvent{Type: model.EventSessionReset, Generation: gen, Ticker: ticker})
	return gen, scope
}

func (c *SessionController) resolve(ctx context.Context, gen uint64, scope context.Context, code, titleHint string) (*model.Room, error) {
	ctx, span := c.tracer.Start(ctx, "session.resolve_room", trace.WithAttributes(attribute.String("ticker", code)))
	defer span.End()

	opCtx, release := bind(ctx, scope)
	resolved, err := c.backend.ResolveRoomByStock(opCtx, code, strings.TrimSpace(titleHint))
	release()
	if err != nil && scope.Err() == nil {
		span.RecordError(err)
		err = c.guard.classify(ctx, "resolve_room", ErrResolutionFailed, "", err)
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		metrics.StaleResponsesTotal.WithLabelValues("resolve_room").Inc()
		return nil, ErrSuperseded
	}
	if err != nil {
		c.loading = false
		c.lastErr = err.Error()
		c.mu.Unlock()
		c.emitError(gen, 0, err)
		return nil, err
	}

	room := resolved.Room
	if room.StockCode == "" {
		room.StockCode = code
	}
	c.room = &room
	c.mu.Unlock()

	metrics.RecordResolution(resolved.Existed)
	c.logger.WithSession(room.ID, code).Info("chat room resolved", zap.Bool("existed", resolved.Existed))
	out := room
	c.emit(model.SessionEvent{
		Type:       model.EventRoomResolved,
		Generation: gen,
		RoomID:     room.ID,
		Ticker:     code,
		Room:       &out,
		Metadata:   map[string]any{"existed": resolved.Existed},
	})
	return &out, nil
}

func (c *SessionController) load(ctx context.Context, gen uint64, scope context.Context, roomID int64, current bool) ([]model.Message, error) {
	ctx, span := c.tracer.Start(ctx, "session.load_history", trace.WithAttributes(attribute.Int64("room_id", roomID)))
	defer span.End()

	opCtx, release := ctx, func() {}
	if current {
		opCtx, release = bind(ctx, scope)
	}
	recs, err := c.backend.ListMessages(opCtx, roomID, 0)
	release()
	if err != nil && (!current || scope.Err() == nil) {
		span.RecordError(err)
		err = c.guard.classify(ctx, "load_history", ErrResolutionFailed, "", err)
	}

	msgs := make([]model.Message, 0, len(recs))
	for _, rec := range recs {
		msgs = append(msgs, rec.Message())
	}
	if !current {
		if err != nil {
			return nil, err
		}
		return msgs, nil
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		metrics.StaleResponsesTotal.WithLabelValues("load_history").Inc()
		return nil, ErrSuperseded
	}
	c.loading = false
	if err != nil {
		c.lastErr = err.Error()
		c.mu.Unlock()
		c.emitError(gen, roomID, err)
		return nil, err
	}
	// Exchanges reconciled while the load was in flight are newer than the
	// loaded page and stay in the transcript.
	merged := mergeConfirmed(msgs, c.confirmedLocked())
	c.messages = c.withPendingTailLocked(copyMessages(merged))
	c.lastErr = ""
	c.mu.Unlock()

	c.emit(model.SessionEvent{
		Type:       model.EventHistoryLoaded,
		Generation: gen,
		RoomID:     roomID,
		Messages:   copyMessages(merged),
	})
	return merged, nil
}

func (c *SessionController) resetLocked(ticker string) uint64 {
	c.cancel()
	c.scope, c.cancel = context.WithCancel(context.Background())
	c.generation++
	c.ticker = ticker
	c.room = nil
	c.messages = nil
	c.pending = nil
	c.loading = false
	c.lastErr = ""
	return c.generation
}

func (c *SessionController) lastConfirmedLocked() model.ConfirmedID {
	var last model.ConfirmedID
	for _, m := range c.messages {
		if id, ok := m.Confirmed(); ok && id > last {
			last = id
		}
	}
	return last
}

func (c *SessionController) confirmedLocked() []model.Message {
	out := make([]model.Message, 0, len(c.messages))
	for _, m := range c.messages {
		if _, ok := m.Confirmed(); ok {
			out = append(out, m)
		}
	}
	return out
}

// withPendingTailLocked re-appends the in-flight exchange to a confirmed list.
func (c *SessionController) withPendingTailLocked(confirmed []model.Message) []model.Message {
	if c.pending == nil {
		return confirmed
	}
	for _, ref := range []model.ProvisionalID{c.pending.user, c.pending.assistant} {
		if i := indexOf(c.messages, ref); i >= 0 {
			confirmed = append(confirmed, c.messages[i])
		}
	}
	return confirmed
}

func (c *SessionController) replaceLocked(ref model.ProvisionalID, msg model.Message) {
	if i := indexOf(c.messages, ref); i >= 0 {
		c.messages[i] = msg
	}
}

func (c *SessionController) emit(ev model.SessionEvent) {
	c.hub.Emit(ev)
}

func (c *SessionController) emitError(gen uint64, roomID int64, err error) {
	c.emit(model.SessionEvent{
		Type:       model.EventError,
		Generation: gen,
		RoomID:     roomID,
		Reason:     err.Error(),
	})
}

// bind derives an operation context that is also cancelled with scope.
func bind(ctx, scope context.Context) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(scope, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

func indexOf(msgs []model.Message, ref model.ProvisionalID) int {
	for i, m := range msgs {
		if id, ok := m.Provisional(); ok && id == ref {
			return i
		}
	}
	return -1
}

func removeRefs(msgs []model.Message, refs ...model.ProvisionalID) []model.Message {
	out := msgs[:0]
	for _, m := range msgs {
		drop := false
		if id, ok := m.Provisional(); ok {
			for _, ref := range refs {
				if id == ref {
					drop = true
					break
				}
			}
		}
		if !drop {
			out = append(out, m)
		}
	}
	return out
}

// mergeConfirmed unions two lists of confirmed messages by ID, in ascending
// ID order. Entries of base win over duplicates in extra.
func mergeConfirmed(base, extra []model.Message) []model.Message {
	out := make([]model.Message, 0, len(base)+len(extra))
	seen := make(map[model.ConfirmedID]bool, len(base))
	for _, m := range base {
		if id, ok := m.Confirmed(); ok {
			seen[id] = true
		}
		out = append(out, m)
	}
	for _, m := range extra {
		if id, ok := m.Confirmed(); ok && !seen[id] {
			seen[id] = true
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Message) int {
		ai, _ := a.Confirmed()
		bi, _ := b.Confirmed()
		return cmp.Compare(ai, bi)
	})
	return out
}

func copyMessages(msgs []model.Message) []model.Message {
	if msgs == nil {
		return nil
	}
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out
}
