package handler

import (
	"context"
	"net/http"

	"github.com/alphabot/alphabot-client/internal/middleware"
	"github.com/alphabot/alphabot-client/internal/model"
	"github.com/alphabot/alphabot-client/internal/service"
	"github.com/alphabot/alphabot-client/pkg/logger"
)

// RoomHandler handles the sidebar and trash endpoints.
type RoomHandler struct {
	rooms  *service.RoomService
	logger *logger.Logger
}

// NewRoomHandler creates a new room handler.
func NewRoomHandler(rooms *service.RoomService, log *logger.Logger) *RoomHandler {
	return &RoomHandler{
		rooms:  rooms,
		logger: log,
	}
}

type createRoomRequest struct {
	StockCode string `json:"stock_code"`
	Title     string `json:"title"`
}

type renameRoomRequest struct {
	Title string `json:"title"`
}

// List handles GET /api/rooms
// ?cached=true returns the last listing without a backend call.
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("cached") == "true" {
		writeJSON(w, http.StatusOK, map[string]any{"rooms": h.rooms.Cached()})
		return
	}
	rooms, err := h.rooms.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

// Create handles POST /api/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := middleware.ValidateTitle(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	room, err := h.rooms.Create(r.Context(), req.StockCode, req.Title)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

// Rename handles PATCH /api/rooms/{id}
func (h *RoomHandler) Rename(w http.ResponseWriter, r *http.Request) {
	roomID, ok := idParam(w, r)
	if !ok {
		return
	}
	var req renameRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := middleware.ValidateTitle(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	room, err := h.rooms.Rename(r.Context(), roomID, req.Title)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// Trash handles POST /api/rooms/{id}/trash
func (h *RoomHandler) Trash(w http.ResponseWriter, r *http.Request) {
	h.setTrash(w, r, h.rooms.Trash)
}

// Restore handles POST /api/rooms/{id}/restore
func (h *RoomHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.setTrash(w, r, h.rooms.Restore)
}

// ListTrash handles GET /api/trash
func (h *RoomHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.ListTrash(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (h *RoomHandler) setTrash(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) (*model.Room, error)) {
	roomID, ok := idParam(w, r)
	if !ok {
		return
	}
	room, err := op(r.Context(), roomID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}
