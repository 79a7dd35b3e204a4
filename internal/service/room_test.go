package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/alphabot/alphabot-client/internal/api"
	"github.com/alphabot/alphabot-client/internal/model"
	"github.com/alphabot/alphabot-client/pkg/logger"
)

type fakeRooms struct {
	rooms     []model.Room
	updates   []model.UpdateRoomRequest
	updateErr error
}

func (f *fakeRooms) ListRooms(ctx context.Context) ([]model.Room, error) {
	return append([]model.Room(nil), f.rooms...), nil
}

func (f *fakeRooms) UpdateRoom(ctx context.Context, roomID int64, upd model.UpdateRoomRequest) (*model.Room, error) {
	f.updates = append(f.updates, upd)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i := range f.rooms {
		if f.rooms[i].ID != roomID {
			continue
		}
		if upd.Title != nil {
			f.rooms[i].Title = *upd.Title
		}
		if upd.Trash != nil {
			f.rooms[i].Trash = *upd.Trash
		}
		room := f.rooms[i]
		return &room, nil
	}
	return nil, &api.StatusError{Op: "update_room", Status: http.StatusNotFound}
}

func newTestRoomService(t *testing.T, rooms *fakeRooms) (*RoomService, *SessionController, *fakeChat) {
	t.Helper()
	chat := newFakeChat()
	c, creds, hub := newTestController(t, chat)
	return NewRoomService(rooms, c, creds, hub, logger.NewNop()), c, chat
}

func TestRoomService_ListFiltersTrashedWithoutTicker(t *testing.T) {
	rooms := &fakeRooms{rooms: []model.Room{
		{ID: 3, Title: "Tesla", StockCode: "TSLA", Trash: model.TrashActive},
		{ID: 2, Title: "scratch", Trash: model.TrashTrashed},
		{ID: 1, Title: "Apple", StockCode: "AAPL", Trash: model.TrashTrashed},
		{ID: 4, Title: "general", Trash: model.TrashActive},
	}}
	s, _, _ := newTestRoomService(t, rooms)

	got, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var ids []int64
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	if len(ids) != 3 || ids[0] != 3 || ids[1] != 1 || ids[2] != 4 {
		t.Errorf("List() ids = %v, want [3 1 4] in server order", ids)
	}
	if cached := s.Cached(); len(cached) != 3 {
		t.Errorf("Cached() = %d rooms, want 3", len(cached))
	}
}

func TestRoomService_Rename(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr error
	}{
		{name: "empty", title: "   ", wantErr: ErrEmptyTitle},
		{name: "too long", title: strings.Repeat("a", MaxRoomTitleLength+1), wantErr: ErrTitleTooLong},
		{name: "valid", title: "  Tesla deep dive  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms := &fakeRooms{rooms: []model.Room{{ID: 1, Title: "TSLA", StockCode: "TSLA"}}}
			s, _, _ := newTestRoomService(t, rooms)

			room, err := s.Rename(context.Background(), 1, tt.title)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Rename() error = %v, want %v", err, tt.wantErr)
				}
				if len(rooms.updates) != 0 {
					t.Error("invalid title reached the backend")
				}
				return
			}
			if err != nil {
				t.Fatalf("Rename() error = %v", err)
			}
			if room.Title != "Tesla deep dive" {
				t.Errorf("Title = %q, want trimmed title", room.Title)
			}
		})
	}
}

func TestRoomService_RenameValidationFromServer(t *testing.T) {
	rooms := &fakeRooms{
		rooms:     []model.Room{{ID: 1, Title: "TSLA"}},
		updateErr: &api.StatusError{Op: "update_room", Status: http.StatusConflict, Detail: "title already used"},
	}
	s, _, _ := newTestRoomService(t, rooms)

	_, err := s.Rename(context.Background(), 1, "dup")
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("Rename() error = %v, want *FieldError", err)
	}
	if fe.Field != "title" || fe.Message != "title already used" {
		t.Errorf("FieldError = %+v", fe)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("FieldError does not match ErrInvalidInput")
	}
}

func TestRoomService_RenameUpdatesOpenSession(t *testing.T) {
	rooms := &fakeRooms{}
	s, c, _ := newTestRoomService(t, rooms)

	room, err := s.Create(context.Background(), "tsla", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	rooms.rooms = append(rooms.rooms, *room)

	if _, err := s.Rename(context.Background(), room.ID, "Renamed"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if got := c.Snapshot().Room.Title; got != "Renamed" {
		t.Errorf("session room title = %q, want Renamed", got)
	}
}

func TestRoomService_CreateReusesResolution(t *testing.T) {
	s, c, chat := newTestRoomService(t, &fakeRooms{})
	ctx := context.Background()

	first, err := s.Create(ctx, "AAPL", "Apple")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second, err := c.ResolveRoom(ctx, "aapl", "")
	if err != nil {
		t.Fatalf("ResolveRoom() error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("sidebar room %d and session room %d differ", first.ID, second.ID)
	}
	if len(chat.rooms) != 1 {
		t.Errorf("backend holds %d rooms, want 1", len(chat.rooms))
	}
}

func TestRoomService_TrashAndRestore(t *testing.T) {
	rooms := &fakeRooms{}
	s, c, _ := newTestRoomService(t, rooms)
	ctx := context.Background()

	room, err := s.Create(ctx, "MSFT", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	rooms.rooms = append(rooms.rooms, *room)

	trashed, err := s.Trash(ctx, room.ID)
	if err != nil {
		t.Fatalf("Trash() error = %v", err)
	}
	if !trashed.Trashed() {
		t.Error("Trash() returned an active room")
	}
	if got := rooms.updates[len(rooms.updates)-1].Trash; got == nil || got.WireValue() != "in" {
		t.Errorf("trash update sent %v, want trash_can in", got)
	}
	if c.Snapshot().Room != nil {
		t.Error("trashing the open room left the session open")
	}

	trash, err := s.ListTrash(ctx)
	if err != nil || len(trash) != 1 {
		t.Fatalf("ListTrash() = %d rooms, %v", len(trash), err)
	}

	restored, err := s.Restore(ctx, room.ID)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if restored.Trashed() {
		t.Error("Restore() returned a trashed room")
	}
}
