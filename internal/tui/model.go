package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alphabot/alphabot-client/internal/model"
	"github.com/alphabot/alphabot-client/internal/service"
)

// Styles.
var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	pendingStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Session is the controller surface the UI drives.
type Session interface {
	OpenTicker(ctx context.Context, ticker, titleHint string) (*model.Room, []model.Message, error)
	Send(ctx context.Context, text string) (*service.Exchange, error)
	Refresh(ctx context.Context) ([]model.Message, error)
	Snapshot() model.SessionSnapshot
	Subscribe(buffer int) (<-chan model.SessionEvent, func())
}

// Rooms is the sidebar surface the UI drives.
type Rooms interface {
	List(ctx context.Context) ([]model.Room, error)
	Rename(ctx context.Context, roomID int64, title string) (*model.Room, error)
	Trash(ctx context.Context, roomID int64) (*model.Room, error)
}

// Accounts is the sign-in surface the UI drives.
type Accounts interface {
	Login(ctx context.Context, loginID, password string) (*model.User, error)
	Logout(ctx context.Context) error
}

// Messages.
type eventMsg model.SessionEvent
type eventsClosedMsg struct{}

type resultMsg struct {
	status string
	err    error
	// draft is the text of a send that did not go through.
	draft string
}

type roomsMsg struct {
	rooms []model.Room
	err   error
}

// Model is the bubbletea model of the chat screen.
type Model struct {
	ctx      context.Context
	session  Session
	rooms    Rooms
	accounts Accounts

	events      <-chan model.SessionEvent
	unsubscribe func()

	input    textinput.Model
	viewport viewport.Model
	ready    bool
	width    int

	snap    model.SessionSnapshot
	listing []model.Room
	status  string
	err     error

	initial string
}

// New creates the chat screen model.
func New(ctx context.Context, session Session, rooms Rooms, accounts Accounts) Model {
	in := textinput.New()
	in.Placeholder = "Ask about a stock, or /ticker SYMBOL"
	in.CharLimit = 4000
	in.Focus()

	events, unsubscribe := session.Subscribe(64)
	return Model{
		ctx:         ctx,
		session:     session,
		rooms:       rooms,
		accounts:    accounts,
		events:      events,
		unsubscribe: unsubscribe,
		input:       in,
		snap:        session.Snapshot(),
		status:      usage,
	}
}

// WithTicker opens the ticker's room on start.
func (m Model) WithTicker(ticker string) Model {
	m.initial = ticker
	return m
}

// Init starts listening for session events.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, waitForEvent(m.events)}
	if m.initial != "" {
		cmds = append(cmds, m.openTicker(m.initial, ""))
	}
	return tea.Batch(cmds...)
}

func waitForEvent(ch <-chan model.SessionEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

// Update handles input, window and session events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.unsubscribe()
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		vpHeight := msg.Height - 4
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.input.Width = msg.Width - 4
		m.refreshView()

	case eventMsg:
		m.applyEvent(model.SessionEvent(msg))
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		return m, nil

	case resultMsg:
		m.err = msg.err
		if msg.status != "" {
			m.status = msg.status
		}
		if msg.draft != "" && m.input.Value() == "" {
			m.input.SetValue(msg.draft)
			m.input.CursorEnd()
		}
		m.snap = m.session.Snapshot()
		m.refreshView()

	case roomsMsg:
		m.err = msg.err
		if msg.err == nil {
			m.listing = msg.rooms
			m.status = fmt.Sprintf("%d rooms", len(msg.rooms))
		}
		m.refreshView()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) applyEvent(ev model.SessionEvent) {
	m.snap = m.session.Snapshot()
	switch ev.Type {
	case model.EventExchangePending:
		m.err = nil
	case model.EventExchangeRolledBack:
		m.err = errors.New(ev.Reason)
	case model.EventAuthRequired:
		m.err = service.ErrUnauthorized
		m.status = "sign in with /login ID PASSWORD"
	case model.EventSignedIn:
		m.status = "signed in"
	case model.EventRoomResolved:
		if ev.Room != nil {
			m.status = "room: " + ev.Room.Title
		}
	}
	m.refreshView()
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := m.input.Value()
	if strings.TrimSpace(line) == "" {
		return m, nil
	}
	cmd, err := ParseCommand(line)
	if err != nil {
		if errors.Is(err, errUsage) {
			err = errors.New(usage)
		}
		m.err = err
		return m, nil
	}

	ctx := m.ctx
	if cmd.Kind != CmdSend {
		m.input.Reset()
	}

	switch cmd.Kind {
	case CmdSend:
		text := cmd.Text
		if m.snap.Room == nil {
			m.err = service.ErrNoRoom
			return m, nil
		}
		if m.snap.Phase == model.PhaseSending {
			m.err = service.ErrSendInFlight
			return m, nil
		}
		m.input.Reset()
		m.err = nil
		return m, func() tea.Msg {
			if _, err := m.session.Send(ctx, text); err != nil {
				return resultMsg{err: err, draft: text}
			}
			return resultMsg{}
		}
	case CmdTicker:
		ticker, title := cmd.Args[0], strings.Join(cmd.Args[1:], " ")
		m.status = "opening " + strings.ToUpper(ticker) + "..."
		return m, m.openTicker(ticker, title)
	case CmdRooms:
		return m, func() tea.Msg {
			rooms, err := m.rooms.List(ctx)
			return roomsMsg{rooms: rooms, err: err}
		}
	case CmdRename:
		roomID := m.currentRoomID()
		title := cmd.Text
		return m, func() tea.Msg {
			if roomID == 0 {
				return resultMsg{err: service.ErrNoRoom}
			}
			room, err := m.rooms.Rename(ctx, roomID, title)
			if err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{status: "renamed to " + room.Title}
		}
	case CmdTrash:
		roomID := m.currentRoomID()
		return m, func() tea.Msg {
			if roomID == 0 {
				return resultMsg{err: service.ErrNoRoom}
			}
			if _, err := m.rooms.Trash(ctx, roomID); err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{status: "room moved to trash"}
		}
	case CmdRefresh:
		return m, func() tea.Msg {
			added, err := m.session.Refresh(ctx)
			if err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{status: fmt.Sprintf("%d new messages", len(added))}
		}
	case CmdLogin:
		loginID, password := cmd.Args[0], cmd.Args[1]
		return m, func() tea.Msg {
			user, err := m.accounts.Login(ctx, loginID, password)
			if err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{status: "signed in as " + user.Username}
		}
	case CmdLogout:
		return m, func() tea.Msg {
			return resultMsg{status: "signed out", err: m.accounts.Logout(ctx)}
		}
	case CmdHelp:
		m.status = usage
		return m, nil
	case CmdQuit:
		m.unsubscribe()
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) openTicker(ticker, title string) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		room, msgs, err := session.OpenTicker(ctx, ticker, title)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{status: fmt.Sprintf("%s: %d messages", room.Title, len(msgs))}
	}
}

func (m *Model) currentRoomID() int64 {
	if m.snap.Room == nil {
		return 0
	}
	return m.snap.Room.ID
}

func (m *Model) refreshView() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(renderTranscript(m.snap.Messages, m.listing, m.width))
	m.viewport.GotoBottom()
}

// View renders the screen.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	title := "Alpha Bot"
	if m.snap.Room != nil {
		title = fmt.Sprintf("Alpha Bot  %s  %s", m.snap.Ticker, m.snap.Room.Title)
	}
	if m.snap.Phase == model.PhaseSending {
		title += "  (sending)"
	}
	if m.snap.Loading {
		title += "  (loading)"
	}

	status := dimStyle.Render(m.status)
	if m.err != nil {
		status = errStyle.Render(m.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Width(m.width).Render(title),
		m.viewport.View(),
		status,
		m.input.View(),
	)
}

// renderTranscript formats the message list, followed by the room listing
// when one was requested.
func renderTranscript(msgs []model.Message, rooms []model.Room, width int) string {
	var b strings.Builder
	wrap := lipgloss.NewStyle()
	if width > 2 {
		wrap = wrap.Width(width - 2)
	}

	for _, msg := range msgs {
		label := userStyle.Render("you")
		if msg.Role == model.RoleAssistant {
			label = assistantStyle.Render("alpha bot")
		}
		text := msg.Text
		if msg.Status == model.StatusGenerating {
			text = pendingStyle.Render(text)
		} else if _, pending := msg.Provisional(); pending {
			text = pendingStyle.Render(text)
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(wrap.Render(text))
		b.WriteString("\n\n")
	}

	if len(rooms) > 0 {
		b.WriteString(dimStyle.Render("rooms"))
		b.WriteString("\n")
		for _, r := range rooms {
			line := fmt.Sprintf("  %-8s %s", r.StockCode, r.Title)
			if r.Trashed() {
				line += dimStyle.Render("  (trash)")
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}
