// Package handler provides the bridge HTTP handlers over the client services.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alphabot/alphabot-client/internal/middleware"
	"github.com/alphabot/alphabot-client/internal/model"
	"github.com/alphabot/alphabot-client/internal/service"
	"github.com/alphabot/alphabot-client/pkg/logger"
)

// SessionHandler exposes the chat session controller.
type SessionHandler struct {
	session *service.SessionController
	logger  *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(session *service.SessionController, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		session: session,
		logger:  log,
	}
}

// sendRequest is the body of a message submission.
type sendRequest struct {
	Content string `json:"content"`
}

// openResponse is the ticker selection result.
type openResponse struct {
	Room     *model.Room     `json:"room"`
	Messages []model.Message `json:"messages"`
}

// Snapshot handles GET /api/session
func (h *SessionHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// Open handles PUT /api/session/ticker/{ticker}
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if err := middleware.ValidateTitle(title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	room, msgs, err := h.session.OpenTicker(r.Context(), chi.URLParam(r, "ticker"), title)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	writeJSON(w, http.StatusOK, openResponse{Room: room, Messages: msgs})
}

// Close handles DELETE /api/session
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.session.Close()
	w.WriteHeader(http.StatusNoContent)
}

// Send handles POST /api/session/messages
func (h *SessionHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The exchange outlives the request; stream subscribers see its outcome
	// even if this caller goes away.
	ex, err := h.session.Send(context.WithoutCancel(r.Context()), req.Content)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, ex)
}

// Refresh handles POST /api/session/refresh
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	added, err := h.session.Refresh(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if added == nil {
		added = []model.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": added})
}

// History handles GET /api/rooms/{id}/messages
func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	roomID, err := middleware.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msgs, err := h.session.LoadHistory(r.Context(), roomID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}
