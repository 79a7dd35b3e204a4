package handler

import (
	"net/http"

	"github.com/alphabot/alphabot-client/internal/model"
	"github.com/alphabot/alphabot-client/internal/service"
	"github.com/alphabot/alphabot-client/pkg/logger"
)

// AccountHandler handles sign-in and profile endpoints.
type AccountHandler struct {
	accounts *service.AccountService
	logger   *logger.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(accounts *service.AccountService, log *logger.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		logger:   log,
	}
}

type loginRequest struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.accounts.Login(r.Context(), req.LoginID, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Logout handles POST /api/auth/logout
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Logout(r.Context()); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Signup handles POST /api/auth/signup
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.accounts.Signup(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Me handles GET /api/me
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Me(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PATCH /api/me
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req model.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.accounts.UpdateProfile(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ChangePassword handles PUT /api/me/password
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req model.PasswordChange
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.accounts.ChangePassword(r.Context(), req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
