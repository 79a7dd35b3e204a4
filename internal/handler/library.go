package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/alphabot/alphabot-client/internal/middleware"
	"github.com/alphabot/alphabot-client/internal/model"
	"github.com/alphabot/alphabot-client/internal/service"
	"github.com/alphabot/alphabot-client/pkg/logger"
)

// LibraryHandler handles bookmark and category endpoints.
type LibraryHandler struct {
	library *service.LibraryService
	logger  *logger.Logger
}

// NewLibraryHandler creates a new library handler.
func NewLibraryHandler(library *service.LibraryService, log *logger.Logger) *LibraryHandler {
	return &LibraryHandler{
		library: library,
		logger:  log,
	}
}

// saveBookmarkRequest carries the message as rendered by the session, so a
// still-provisional message is recognised and refused.
type saveBookmarkRequest struct {
	Message    model.Message `json:"message"`
	CategoryID *int64        `json:"category_id"`
}

type moveBookmarkRequest struct {
	CategoryID *int64 `json:"category_id"`
}

// ListCategories handles GET /api/categories
func (h *LibraryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	page, err := h.library.ListCategories(r.Context(), model.CategoryQuery{
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "page_size"),
		Search:   r.URL.Query().Get("search"),
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetCategory handles GET /api/categories/{id}
func (h *LibraryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	cat, err := h.library.GetCategory(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// CreateCategory handles POST /api/categories
func (h *LibraryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req model.CategoryInput
	if !decodeJSON(w, r, &req) {
		return
	}
	cat, err := h.library.CreateCategory(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

// UpdateCategory handles PUT /api/categories/{id}
func (h *LibraryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req model.CategoryInput
	if !decodeJSON(w, r, &req) {
		return
	}
	cat, err := h.library.UpdateCategory(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// DeleteCategory handles DELETE /api/categories/{id}
func (h *LibraryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.library.DeleteCategory(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBookmarks handles GET /api/bookmarks
func (h *LibraryHandler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	q := model.BookmarkQuery{
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "page_size"),
	}
	if c := r.URL.Query().Get("category_id"); c != "" {
		if parsed, err := strconv.ParseInt(c, 10, 64); err == nil {
			q.CategoryID = parsed
		}
	}
	page, err := h.library.ListBookmarks(r.Context(), q)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// SaveBookmark handles POST /api/bookmarks
func (h *LibraryHandler) SaveBookmark(w http.ResponseWriter, r *http.Request) {
	var req saveBookmarkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Message.Ref == nil {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	bm, err := h.library.SaveBookmark(r.Context(), req.Message, req.CategoryID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, bm)
}

// MoveBookmark handles PUT /api/bookmarks/{id}
func (h *LibraryHandler) MoveBookmark(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req moveBookmarkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	bm, err := h.library.MoveBookmark(r.Context(), id, req.CategoryID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, bm)
}

// DeleteBookmark handles DELETE /api/bookmarks/{id}
func (h *LibraryHandler) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.library.DeleteBookmark(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := middleware.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}
