package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/alphabot/alphabot-client/internal/api"
	"github.com/alphabot/alphabot-client/internal/credentials"
	"github.com/alphabot/alphabot-client/internal/model"
	"github.com/alphabot/alphabot-client/pkg/logger"
)

// AccountBackend is the part of the backend API used for accounts.
type AccountBackend interface {
	Login(ctx context.Context, loginID, password string) (*model.Token, error)
	Signup(ctx context.Context, req model.SignupRequest) (*model.User, error)
	Me(ctx context.Context) (*model.User, error)
	UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.User, error)
	ChangePassword(ctx context.Context, change model.PasswordChange) error
}

// AccountService handles sign-in, sign-up and the profile page.
type AccountService struct {
	backend AccountBackend
	creds   credentials.Provider
	session *SessionController
	guard   *boundary
	hub     *Hub
	logger  *logger.Logger
}

// NewAccountService creates an account service.
func NewAccountService(backend AccountBackend, session *SessionController, creds credentials.Provider, hub *Hub, log *logger.Logger) *AccountService {
	return &AccountService{
		backend: backend,
		creds:   creds,
		session: session,
		guard:   newBoundary(creds, hub, log),
		hub:     hub,
		logger:  log,
	}
}

// Login signs in and stores the access token.
func (s *AccountService) Login(ctx context.Context, loginID, password string) (*model.User, error) {
	loginID = strings.TrimSpace(loginID)
	if loginID == "" {
		return nil, &FieldError{Field: "login_id", Message: "login id is required"}
	}
	if password == "" {
		return nil, &FieldError{Field: "password", Message: "password is required"}
	}

	tok, err := s.backend.Login(ctx, loginID, password)
	if err != nil {
		// A 401 here is a wrong password, not an expired session.
		if api.IsUnauthorized(err) {
			s.logger.Info("login rejected", zap.String("login_id", loginID))
			return nil, ErrInvalidCredentials
		}
		return nil, s.guard.classify(ctx, "login", ErrRequestFailed, "", err)
	}
	if err := s.creds.Set(ctx, tok.AccessToken); err != nil {
		s.logger.Error("failed to store access token", zap.Error(err))
		return nil, &Error{Op: "login", Kind: ErrRequestFailed, Detail: "could not store credentials"}
	}

	user, err := s.backend.Me(ctx)
	if err != nil {
		return nil, s.guard.classify(ctx, "get_me", ErrRequestFailed, "", err)
	}

	s.logger.Info("signed in", zap.Int64("user_id", user.ID))
	s.hub.Emit(model.SessionEvent{
		Type:     model.EventSignedIn,
		Metadata: map[string]any{"user_id": user.ID, "username": user.Username},
	})
	return user, nil
}

// Logout forgets the access token and closes the chat session.
func (s *AccountService) Logout(ctx context.Context) error {
	s.session.Close()
	if err := s.creds.Clear(ctx); err != nil {
		s.logger.Error("failed to clear access token", zap.Error(err))
		return &Error{Op: "logout", Kind: ErrRequestFailed, Detail: "could not clear credentials"}
	}
	return nil
}

// Signup creates an account. It does not sign in.
func (s *AccountService) Signup(ctx context.Context, req model.SignupRequest) (*model.User, error) {
	req.LoginID = strings.TrimSpace(req.LoginID)
	req.Username = strings.TrimSpace(req.Username)
	if err := checkLength("login_id", req.LoginID, 4, 50); err != nil {
		return nil, err
	}
	if err := checkLength("username", req.Username, 2, 50); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(req.Password) < 8 {
		return nil, &FieldError{Field: "password", Message: "must be at least 8 characters"}
	}

	user, err := s.backend.Signup(ctx, req)
	if err != nil {
		return nil, s.guard.classify(ctx, "signup", ErrRequestFailed, "login_id", err)
	}
	return user, nil
}

// Me returns the signed-in user.
func (s *AccountService) Me(ctx context.Context) (*model.User, error) {
	user, err := s.backend.Me(ctx)
	if err != nil {
		return nil, s.guard.classify(ctx, "get_me", ErrRequestFailed, "", err)
	}
	return user, nil
}

// UpdateProfile changes the display name.
func (s *AccountService) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.User, error) {
	upd.Username = strings.TrimSpace(upd.Username)
	if err := checkLength("username", upd.Username, 2, 50); err != nil {
		return nil, err
	}
	user, err := s.backend.UpdateProfile(ctx, upd)
	if err != nil {
		return nil, s.guard.classify(ctx, "update_profile", ErrRequestFailed, "username", err)
	}
	return user, nil
}

// ChangePassword replaces the password after checking the confirmation.
func (s *AccountService) ChangePassword(ctx context.Context, change model.PasswordChange) error {
	if change.CurrentPassword == "" {
		return &FieldError{Field: "current_password", Message: "current password is required"}
	}
	if utf8.RuneCountInString(change.NewPassword) < 8 {
		return &FieldError{Field: "new_password", Message: "must be at least 8 characters"}
	}
	if change.NewPassword != change.NewPasswordConfirm {
		return ErrPasswordMismatch
	}
	if err := s.backend.ChangePassword(ctx, change); err != nil {
		return s.guard.classify(ctx, "change_password", ErrRequestFailed, "current_password", err)
	}
	return nil
}

func checkLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	switch {
	case n == 0:
		return &FieldError{Field: field, Message: "is required"}
	case n < min:
		return &FieldError{Field: field, Message: "is too short"}
	case n > max:
		return &FieldError{Field: field, Message: "is too long"}
	}
	return nil
}
