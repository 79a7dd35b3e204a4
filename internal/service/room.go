package service

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/alphabot/alphabot-client/internal/credentials"
	"github.com/alphabot/alphabot-client/internal/model"
	"github.com/alphabot/alphabot-client/pkg/logger"
)

// MaxRoomTitleLength is the longest room title the backend accepts.
const MaxRoomTitleLength = 100

// RoomBackend is the part of the backend API used by the sidebar.
type RoomBackend interface {
	ListRooms(ctx context.Context) ([]model.Room, error)
	UpdateRoom(ctx context.Context, roomID int64, upd model.UpdateRoomRequest) (*model.Room, error)
}

// RoomService serves the room sidebar and the trash view. Room creation goes
// through the session controller so a ticker never maps to two rooms.
type RoomService struct {
	backend RoomBackend
	session *SessionController
	guard   *boundary
	hub     *Hub
	logger  *logger.Logger

	mu     sync.RWMutex
	cached []model.Room
}

// NewRoomService creates a room service.
func NewRoomService(backend RoomBackend, session *SessionController, creds credentials.Provider, hub *Hub, log *logger.Logger) *RoomService {
	return &RoomService{
		backend: backend,
		session: session,
		guard:   newBoundary(creds, hub, log),
		hub:     hub,
		logger:  log,
	}
}

// List fetches the sidebar listing in server order. Trashed rooms without a
// ticker are left out.
func (s *RoomService) List(ctx context.Context) ([]model.Room, error) {
	rooms, err := s.backend.ListRooms(ctx)
	if err != nil {
		return nil, s.guard.classify(ctx, "list_rooms", ErrRequestFailed, "", err)
	}

	visible := make([]model.Room, 0, len(rooms))
	for _, r := range rooms {
		if r.Trashed() && r.StockCode == "" {
			continue
		}
		visible = append(visible, r)
	}

	s.mu.Lock()
	s.cached = visible
	s.mu.Unlock()

	s.hub.Emit(model.SessionEvent{
		Type:     model.EventRoomsListed,
		Metadata: map[string]any{"count": len(visible)},
	})
	return cloneRooms(visible), nil
}

// Cached returns the last listing fetched by List.
func (s *RoomService) Cached() []model.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRooms(s.cached)
}

// ListTrash returns the trashed rooms.
func (s *RoomService) ListTrash(ctx context.Context) ([]model.Room, error) {
	rooms, err := s.backend.ListRooms(ctx)
	if err != nil {
		return nil, s.guard.classify(ctx, "list_trash", ErrRequestFailed, "", err)
	}
	trashed := make([]model.Room, 0)
	for _, r := range rooms {
		if r.Trashed() {
			trashed = append(trashed, r)
		}
	}
	return trashed, nil
}

// Create opens the ticker's room through the session controller.
func (s *RoomService) Create(ctx context.Context, ticker, title string) (*model.Room, error) {
	room, _, err := s.session.OpenTicker(ctx, ticker, title)
	if err != nil {
		return room, err
	}
	s.upsertCached(*room)
	return room, nil
}

// Rename changes a room's title.
func (s *RoomService) Rename(ctx context.Context, roomID int64, title string) (*model.Room, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > MaxRoomTitleLength {
		return nil, ErrTitleTooLong
	}

	room, err := s.backend.UpdateRoom(ctx, roomID, model.UpdateRoomRequest{Title: &title})
	if err != nil {
		return nil, s.guard.classify(ctx, "rename_room", ErrRequestFailed, "title", err)
	}

	s.logger.Info("chat room renamed", zap.Int64("room_id", roomID))
	s.upsertCached(*room)
	s.session.applyRoom(*room)
	return room, nil
}

// Trash moves a room to the trash. Trashing the open room closes the session.
func (s *RoomService) Trash(ctx context.Context, roomID int64) (*model.Room, error) {
	return s.setTrash(ctx, "trash_room", roomID, model.TrashTrashed)
}

// Restore brings a room back from the trash.
func (s *RoomService) Restore(ctx context.Context, roomID int64) (*model.Room, error) {
	return s.setTrash(ctx, "restore_room", roomID, model.TrashActive)
}

func (s *RoomService) setTrash(ctx context.Context, op string, roomID int64, state model.TrashState) (*model.Room, error) {
	room, err := s.backend.UpdateRoom(ctx, roomID, model.UpdateRoomRequest{Trash: &state})
	if err != nil {
		return nil, s.guard.classify(ctx, op, ErrRequestFailed, "", err)
	}

	if state == model.TrashTrashed && s.session.CurrentRoomID() == roomID {
		s.session.Close()
	}
	s.upsertCached(*room)

	out := *room
	s.hub.Emit(model.SessionEvent{
		Type:   model.EventRoomUpdated,
		RoomID: roomID,
		Room:   &out,
		Reason: op,
	})
	return room, nil
}

func (s *RoomService) upsertCached(room model.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cached {
		if s.cached[i].ID == room.ID {
			if room.Trashed() && room.StockCode == "" {
				s.cached = append(s.cached[:i], s.cached[i+1:]...)
			} else {
				s.cached[i] = room
			}
			return
		}
	}
	if !room.Trashed() {
		s.cached = append([]model.Room{room}, s.cached...)
	}
}

func cloneRooms(rooms []model.Room) []model.Room {
	out := make([]model.Room, len(rooms))
	copy(out, rooms)
	return out
}
