package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alphabot/alphabot-client/internal/model"
	"github.com/alphabot/alphabot-client/internal/service"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		kind    CommandKind
		args    []string
		text    string
		wantErr bool
	}{
		{name: "plain message", line: "how is TSLA doing?", kind: CmdSend, text: "how is TSLA doing?"},
		{name: "escaped slash", line: "//etc/hosts", kind: CmdSend, text: "/etc/hosts"},
		{name: "ticker with title", line: "/ticker tsla Tesla notes", kind: CmdTicker, args: []string{"tsla", "Tesla", "notes"}, text: "tsla Tesla notes"},
		{name: "ticker alias", line: "/t AAPL", kind: CmdTicker, args: []string{"AAPL"}, text: "AAPL"},
		{name: "ticker without symbol", line: "/ticker", wantErr: true},
		{name: "rename", line: "/rename  Long term ", kind: CmdRename, args: []string{"Long", "term"}, text: "Long term"},
		{name: "login", line: "/login alice secret123", kind: CmdLogin, args: []string{"alice", "secret123"}, text: "alice secret123"},
		{name: "login missing password", line: "/login alice", wantErr: true},
		{name: "case insensitive", line: "/QUIT", kind: CmdQuit, args: []string{}},
		{name: "unknown", line: "/frobnicate", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", cmd)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Kind != tt.kind {
				t.Errorf("expected kind %d, got %d", tt.kind, cmd.Kind)
			}
			if tt.text != "" && cmd.Text != tt.text {
				t.Errorf("expected text %q, got %q", tt.text, cmd.Text)
			}
			if tt.args != nil && strings.Join(cmd.Args, "|") != strings.Join(tt.args, "|") {
				t.Errorf("expected args %v, got %v", tt.args, cmd.Args)
			}
		})
	}
}

func TestParseCommand_UsageError(t *testing.T) {
	_, err := ParseCommand("/rename")
	if !errors.Is(err, errUsage) {
		t.Errorf("expected usage error, got %v", err)
	}
}

func TestRenderTranscript(t *testing.T) {
	msgs := []model.Message{
		{Ref: model.ConfirmedID(10), Role: model.RoleUser, Text: "What about TSLA?"},
		{Ref: model.ConfirmedID(11), Role: model.RoleAssistant, Text: "Deliveries rose."},
		{Ref: model.ProvisionalID("tmp-1"), Role: model.RoleAssistant, Text: model.GeneratingText, Status: model.StatusGenerating},
	}
	rooms := []model.Room{
		{ID: 1, Title: "Tesla", StockCode: "TSLA"},
		{ID: 2, Title: "Old", StockCode: "GME", Trash: model.TrashTrashed},
	}

	out := renderTranscript(msgs, rooms, 0)

	for _, want := range []string{"you", "alpha bot", "What about TSLA?", "Deliveries rose.", model.GeneratingText, "TSLA", "(trash)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected transcript to contain %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "What about TSLA?") > strings.Index(out, "Deliveries rose.") {
		t.Error("expected messages in order")
	}
}

type fakeSession struct {
	events chan model.SessionEvent
	snap   model.SessionSnapshot
	sent   []string
	err    error
}

func newFakeSession() *fakeSession {
	return &fakeSession{events: make(chan model.SessionEvent, 8)}
}

func (f *fakeSession) OpenTicker(ctx context.Context, ticker, titleHint string) (*model.Room, []model.Message, error) {
	room := &model.Room{ID: 7, Title: titleHint, StockCode: ticker}
	f.snap.Room = room
	return room, nil, f.err
}

func (f *fakeSession) Send(ctx context.Context, text string) (*service.Exchange, error) {
	f.sent = append(f.sent, text)
	return &service.Exchange{}, f.err
}

func (f *fakeSession) Refresh(ctx context.Context) ([]model.Message, error) {
	return nil, f.err
}

func (f *fakeSession) Snapshot() model.SessionSnapshot { return f.snap }

func (f *fakeSession) Subscribe(buffer int) (<-chan model.SessionEvent, func()) {
	return f.events, func() {}
}

type fakeRooms struct{ renamed string }

func (f *fakeRooms) List(ctx context.Context) ([]model.Room, error) {
	return []model.Room{{ID: 7, Title: "Tesla", StockCode: "TSLA"}}, nil
}

func (f *fakeRooms) Rename(ctx context.Context, roomID int64, title string) (*model.Room, error) {
	f.renamed = title
	return &model.Room{ID: roomID, Title: title}, nil
}

func (f *fakeRooms) Trash(ctx context.Context, roomID int64) (*model.Room, error) {
	return &model.Room{ID: roomID, Trash: model.TrashTrashed}, nil
}

type fakeAccounts struct{}

func (fakeAccounts) Login(ctx context.Context, loginID, password string) (*model.User, error) {
	return &model.User{LoginID: loginID, Username: "Alice"}, nil
}

func (fakeAccounts) Logout(ctx context.Context) error { return nil }

func newTestModel(t *testing.T) (Model, *fakeSession, *fakeRooms) {
	t.Helper()
	session := newFakeSession()
	rooms := &fakeRooms{}
	m := New(context.Background(), session, rooms, fakeAccounts{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model), session, rooms
}

func enter(t *testing.T, m Model, line string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(line)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model), cmd
}

func withRoom(t *testing.T) (Model, *fakeSession) {
	t.Helper()
	m, session, _ := newTestModel(t)
	session.snap.Room = &model.Room{ID: 7, Title: "Tesla", StockCode: "TSLA"}
	m.snap = session.Snapshot()
	return m, session
}

func TestModel_SendClearsInputOnDispatch(t *testing.T) {
	m, session := withRoom(t)

	m, cmd := enter(t, m, "How are TSLA margins?")
	if cmd == nil {
		t.Fatal("expected a send command")
	}
	if m.input.Value() != "" {
		t.Errorf("expected input cleared once the send is dispatched, got %q", m.input.Value())
	}

	updated, _ := m.Update(cmd())
	m = updated.(Model)
	if len(session.sent) != 1 || session.sent[0] != "How are TSLA margins?" {
		t.Errorf("unexpected sends: %v", session.sent)
	}
	if m.err != nil || m.input.Value() != "" {
		t.Errorf("expected clean state after send, got err=%v input=%q", m.err, m.input.Value())
	}
}

func TestModel_SendWithoutRoomKeepsInput(t *testing.T) {
	m, session, _ := newTestModel(t)

	m, cmd := enter(t, m, "hello")
	if cmd != nil {
		t.Error("expected no send command without a room")
	}
	if !errors.Is(m.err, service.ErrNoRoom) {
		t.Errorf("expected ErrNoRoom, got %v", m.err)
	}
	if m.input.Value() != "hello" || len(session.sent) != 0 {
		t.Errorf("expected input kept and nothing sent, got %q, %v", m.input.Value(), session.sent)
	}
}

func TestModel_SendWhileSendingRejected(t *testing.T) {
	m, session := withRoom(t)
	session.snap.Phase = model.PhaseSending
	m.snap = session.Snapshot()

	m, cmd := enter(t, m, "again")
	if cmd != nil {
		t.Error("expected no send command while an exchange is pending")
	}
	if !errors.Is(m.err, service.ErrSendInFlight) || m.input.Value() != "again" {
		t.Errorf("got err=%v input=%q", m.err, m.input.Value())
	}
}

func TestModel_SendFailureRestoresInput(t *testing.T) {
	m, session := withRoom(t)
	session.err = service.ErrSendFailed

	m, cmd := enter(t, m, "hello")
	updated, _ := m.Update(cmd())
	m = updated.(Model)

	if !errors.Is(m.err, service.ErrSendFailed) {
		t.Errorf("expected send failure, got %v", m.err)
	}
	if !strings.Contains(m.View(), service.ErrSendFailed.Error()) {
		t.Error("expected error in view")
	}
	if m.input.Value() != "hello" {
		t.Errorf("expected input restored after failure, got %q", m.input.Value())
	}
}

func TestModel_TickerThenRename(t *testing.T) {
	m, _, rooms := newTestModel(t)

	m, cmd := enter(t, m, "/ticker TSLA Tesla")
	if m.input.Value() != "" {
		t.Errorf("expected input cleared for commands, got %q", m.input.Value())
	}
	updated, _ := m.Update(cmd())
	m = updated.(Model)
	if m.currentRoomID() != 7 {
		t.Fatalf("expected room 7, got %d", m.currentRoomID())
	}

	m, cmd = enter(t, m, "/rename Long term")
	updated, _ = m.Update(cmd())
	m = updated.(Model)
	if rooms.renamed != "Long term" {
		t.Errorf("expected rename, got %q", rooms.renamed)
	}
	if m.status != "renamed to Long term" {
		t.Errorf("unexpected status %q", m.status)
	}
}

func TestModel_RenameWithoutRoom(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, cmd := enter(t, m, "/rename X")
	updated, _ := m.Update(cmd())
	m = updated.(Model)

	if !errors.Is(m.err, service.ErrNoRoom) {
		t.Errorf("expected ErrNoRoom, got %v", m.err)
	}
}

func TestModel_AuthRequired(t *testing.T) {
	m, _, _ := newTestModel(t)

	updated, cmd := m.Update(eventMsg(model.SessionEvent{Type: model.EventAuthRequired}))
	m = updated.(Model)

	if cmd == nil {
		t.Error("expected to keep listening for events")
	}
	if !errors.Is(m.err, service.ErrUnauthorized) {
		t.Errorf("expected unauthorized, got %v", m.err)
	}
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newTestModel(t)

	_, cmd := enter(t, m, "/quit")
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
