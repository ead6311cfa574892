package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/reaction-duel/internal/duel"
	"github.com/vovakirdan/reaction-duel/internal/reaction"
	"github.com/vovakirdan/reaction-duel/internal/storage"
)

// pressBuffer is how many key presses may queue ahead of the match loop.
const pressBuffer = 16

// sessionScreen is the screen a SessionModel is showing.
type sessionScreen int

const (
	screenMenu sessionScreen = iota
	screenLobby
	screenDuel
	screenHistory
)

// lobbyEventMsg wraps an event from the coordinator.
type lobbyEventMsg struct {
	evt duel.LobbyEvent
}

// matchDoneMsg is sent when a match started by the session returns.
type matchDoneMsg struct {
	id     duel.MatchID
	result duel.Result
	err    error
}

// SessionDeps are the shared services a SessionModel talks to.
type SessionDeps struct {
	Ctx         context.Context
	Session     *duel.ChannelSession
	Coordinator *duel.Coordinator
	Store       *storage.Store // nil disables history
	Options     duel.Options
	Logger      *log.Logger
}

// SessionModel manages one SSH player's flow: menu -> lobby -> duel -> menu.
// This is the top-level model used for SSH sessions.
type SessionModel struct {
	deps   SessionDeps
	player string
	width  int
	height int

	screen  sessionScreen
	menu    MenuModel
	lobby   LobbyModel
	duel    DuelModel
	history HistoryModel

	matchID     duel.MatchID
	cancelMatch context.CancelFunc
	quitting    bool
}

// NewSessionModel creates a new session model.
func NewSessionModel(deps SessionDeps, width, height int) SessionModel {
	if deps.Ctx == nil {
		deps.Ctx = context.Background()
	}
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	player := deps.Session.Name()

	return SessionModel{
		deps:   deps,
		player: player,
		width:  width,
		height: height,
		menu:   NewMenuModel(player, width, height),
	}
}

// waitForLobbyEvent returns a command that waits for the next coordinator
// event. Exactly one is outstanding for the life of the session.
func waitForLobbyEvent(s *duel.ChannelSession) tea.Cmd {
	return func() tea.Msg {
		select {
		case evt := <-s.Events():
			return lobbyEventMsg{evt: evt}
		case <-s.Done():
			return nil
		}
	}
}

// runMatch plays a match to completion off the UI goroutine.
func runMatch(ctx context.Context, match *duel.Match) tea.Cmd {
	return func() tea.Msg {
		res, err := match.Run(ctx)
		return matchDoneMsg{id: match.ID(), result: res, err: err}
	}
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return tea.Batch(m.menu.Init(), waitForLobbyEvent(m.deps.Session))
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}

	case lobbyEventMsg:
		next, cmd := m.handleLobbyEvent(msg.evt)
		return next, tea.Batch(cmd, waitForLobbyEvent(m.deps.Session))

	case matchDoneMsg:
		m.deps.Coordinator.Send(duel.MatchFinishedMsg{
			SessionID: m.deps.Session.ID(),
			MatchID:   msg.id,
		})
		if msg.err != nil {
			m.deps.Logger.Debug("match interrupted", "match", msg.id, "error", msg.err)
		}
		return m, nil
	}

	switch m.screen {
	case screenLobby:
		return m.updateLobby(msg)
	case screenDuel:
		return m.updateDuel(msg)
	case screenHistory:
		return m.updateHistory(msg)
	default:
		return m.updateMenu(msg)
	}
}

// handleLobbyEvent routes coordinator events. Events that arrive after the
// player left the lobby screen are cleaned up instead of shown.
func (m SessionModel) handleLobbyEvent(evt duel.LobbyEvent) (SessionModel, tea.Cmd) {
	if m.screen == screenLobby {
		next, _ := m.lobby.Update(evt)
		if lobby, ok := next.(LobbyModel); ok {
			m.lobby = lobby
		}
		if paired, ok := m.lobby.Paired(); ok {
			return m.startDuel(paired)
		}
		if m.lobby.Cancelled() {
			m.screen = screenMenu
		}
		return m, nil
	}

	switch e := evt.(type) {
	case duel.LobbyCreatedEvent:
		// Cancelled before the code arrived
		m.deps.Coordinator.Send(duel.CancelLobbyMsg{SessionID: m.deps.Session.ID(), Code: e.Code})
	case duel.PairedEvent:
		m.deps.Logger.Info("dropping late pairing", "match", e.MatchID)
		_ = e.Transport.Close() //nolint:errcheck // peer sees end-of-stream either way
		m.deps.Coordinator.Send(duel.MatchFinishedMsg{SessionID: m.deps.Session.ID(), MatchID: e.MatchID})
	}
	return m, nil
}

// startDuel creates the local match for a pairing and switches to the board.
func (m SessionModel) startDuel(p duel.PairedEvent) (SessionModel, tea.Cmd) {
	ctx, cancel := context.WithCancel(m.deps.Ctx)
	presses := make(chan reaction.PressEvent, pressBuffer)

	match := duel.NewMatch(p.MatchID, m.player, p.Opponent, p.Transport, presses, m.deps.Options, m.deps.Logger)
	if m.deps.Store != nil {
		match.SetResultSaver(m.deps.Store)
	}

	m.deps.Logger.Info("duel starting", "match", p.MatchID, "opponent", p.Opponent, "host", p.Host)

	m.duel = NewDuelModel(match.Events(), presses, m.player, p.Opponent, m.width, m.height)
	m.screen = screenDuel
	m.matchID = p.MatchID
	m.cancelMatch = cancel

	return m, tea.Batch(m.duel.Init(), runMatch(ctx, match))
}

func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.menu.Update(msg)
	if menu, ok := next.(MenuModel); ok {
		m.menu = menu
	}

	choice := m.menu.Selected()
	if choice == ChoiceNone {
		return m, cmd
	}
	m.menu = NewMenuModel(m.player, m.width, m.height)

	switch choice {
	case ChoiceHost:
		m.lobby = NewLobbyModel(m.deps.Session.ID(), m.deps.Coordinator, m.width, m.height).Host()
		m.screen = screenLobby
	case ChoiceJoin:
		m.lobby = NewLobbyModel(m.deps.Session.ID(), m.deps.Coordinator, m.width, m.height).Join()
		m.screen = screenLobby
	case ChoiceHistory:
		m.history = NewHistoryModel(m.deps.Store, m.player, m.width, m.height)
		m.screen = screenHistory
	case ChoiceQuit:
		return m.quit()
	}
	return m, nil
}

func (m SessionModel) updateLobby(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.lobby.Update(msg)
	if lobby, ok := next.(LobbyModel); ok {
		m.lobby = lobby
	}
	if m.lobby.Cancelled() {
		m.screen = screenMenu
	}
	return m, cmd
}

func (m SessionModel) updateDuel(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.duel.Update(msg)
	if d, ok := next.(DuelModel); ok {
		m.duel = d
	}

	if m.duel.IsQuitting() {
		return m.quit()
	}
	if m.duel.Closed() {
		m.endMatch()
		m.screen = screenMenu
		return m, nil
	}
	return m, cmd
}

func (m SessionModel) updateHistory(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.history.Update(msg)
	if h, ok := next.(HistoryModel); ok {
		m.history = h
	}

	if m.history.IsQuitting() {
		return m.quit()
	}
	if m.history.IsGoingBack() {
		m.screen = screenMenu
		return m, nil
	}
	return m, cmd
}

// endMatch cancels the running match, if any. The match reports back
// through matchDoneMsg.
func (m *SessionModel) endMatch() {
	if m.cancelMatch != nil {
		m.cancelMatch()
		m.cancelMatch = nil
	}
}

func (m SessionModel) quit() (tea.Model, tea.Cmd) {
	m.endMatch()
	if m.screen == screenLobby && m.lobby.LobbyCode() != "" && m.lobby.State() == OnlineStateHostWaiting {
		m.deps.Coordinator.Send(duel.CancelLobbyMsg{SessionID: m.deps.Session.ID(), Code: m.lobby.LobbyCode()})
	}
	m.quitting = true
	return m, tea.Quit
}

// View renders the current view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.screen {
	case screenLobby:
		return m.lobby.View()
	case screenDuel:
		return m.duel.View()
	case screenHistory:
		return m.history.View()
	default:
		return m.menu.View()
	}
}
