// Package ui is the terminal client: a bubbletea program that renders the
// frames received from the host and sends key presses back as actions.
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amalg/go-bombman/internal/game"
	"github.com/amalg/go-bombman/internal/match"
	"github.com/amalg/go-bombman/internal/settings"
)

// DoublePressWindow is how quickly the bomb key must be pressed twice to
// produce a bomb double action.
const DoublePressWindow = 200 * time.Millisecond

// Connection is the link to the host as seen by the client.
type Connection interface {
	PlayerNumber() int
	FrameChan() <-chan match.Frame
	ErrorChan() <-chan string
	SendAction(a game.Action) error
	SendStart() error
	SendTeam(team int) error
}

// frameMsg carries a new frame from the network client.
type frameMsg match.Frame

// serverErrMsg carries an error message sent by the host.
type serverErrMsg string

// errMsg carries an error.
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// Model is the Bubbletea model for the game client.
type Model struct {
	conn     Connection
	settings settings.Settings
	keys     settings.KeyMap
	me       int
	frame    *match.Frame
	events   *EventLog
	notice   string
	err      error
	quitting bool
	lastBomb time.Time
	now      func() time.Time
}

// NewModel creates a new TUI model connected to the given host. The first
// key map of the settings controls the local player.
func NewModel(conn Connection, s settings.Settings) Model {
	keys, ok := s.KeyMapFor(0)
	if !ok {
		keys = settings.DefaultKeyMaps()[0]
	}
	return Model{
		conn:     conn,
		settings: s,
		keys:     keys,
		me:       conn.PlayerNumber(),
		events:   NewEventLog(6),
		now:      time.Now,
	}
}

// Init starts listening for frames and errors from the host.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForFrame(m.conn), waitForError(m.conn))
}

// Update handles incoming messages (key presses, frames).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case frameMsg:
		frame := match.Frame(msg)
		var prev *game.Snapshot
		if m.frame != nil {
			prev = m.frame.Snapshot
		}
		m.events.Observe(prev, frame.Snapshot)
		m.frame = &frame
		return m, waitForFrame(m.conn)

	case serverErrMsg:
		m.notice = string(msg)
		return m, waitForError(m.conn)

	case errMsg:
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the current frame.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye! 👋\n"
	}

	if m.err != nil {
		return alertStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	var snap *game.Snapshot
	if m.frame != nil {
		snap = m.frame.Snapshot
	}
	board := RenderBoard(snap, m.me)
	hud := RenderHUD(m.frame, m.me, m.events.Lines())
	if m.notice != "" {
		hud += "\n" + alertStyle.Render(m.notice)
	}

	// Layout: board on the left, HUD on the right
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		board,
		"  ",
		hud,
	) + "\n"
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "q" || key == "ctrl+c" || m.settings.IsMenuKey(key) {
		m.quitting = true
		return m, tea.Quit
	}

	if m.inLobby() {
		switch key {
		case "enter":
			m.conn.SendStart()
			return m, nil
		case "t":
			m.conn.SendTeam((m.myTeam() + 1) % game.MaxPlayers)
			return m, nil
		}
	}

	action, ok := m.keys.Action(key)
	if !ok {
		return m, nil
	}
	m.conn.SendAction(action)

	if action == game.ActionBomb {
		now := m.now()
		if !m.lastBomb.IsZero() && now.Sub(m.lastBomb) < DoublePressWindow {
			m.conn.SendAction(game.ActionBombDouble)
		}
		m.lastBomb = now
	}
	return m, nil
}

func (m Model) inLobby() bool {
	return m.frame == nil || m.frame.Status == match.StatusLobby
}

func (m Model) myTeam() int {
	if m.frame != nil {
		for _, p := range m.frame.Players {
			if p.Number == m.me {
				return p.Team
			}
		}
	}
	return m.me
}

// waitForFrame returns a Cmd that waits for the next frame from the host.
func waitForFrame(conn Connection) tea.Cmd {
	return func() tea.Msg {
		frame, ok := <-conn.FrameChan()
		if !ok {
			return errMsg{err: fmt.Errorf("server connection closed")}
		}
		return frameMsg(frame)
	}
}

// waitForError returns a Cmd that waits for the next host error message.
func waitForError(conn Connection) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-conn.ErrorChan()
		if !ok {
			return nil
		}
		return serverErrMsg(msg)
	}
}

// Run takes over the terminal until the player quits or the host goes away.
func Run(conn Connection, s settings.Settings) error {
	p := tea.NewProgram(NewModel(conn, s), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
