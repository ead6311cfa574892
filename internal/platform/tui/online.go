package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/reaction-duel/internal/duel"
)

// OnlineState represents the current state of the pairing flow.
type OnlineState int

const (
	OnlineStateIdle          OnlineState = iota // Nothing requested yet
	OnlineStateHostWaiting                      // Hosting, waiting for joiner
	OnlineStateJoinEnterCode                    // Entering join code
	OnlineStateJoinWaiting                      // Waiting for the coordinator
	OnlineStatePaired                           // Paired, match can start
	OnlineStateCancelled                        // Left the lobby
)

// joinCodeLength matches the coordinator's code length.
const joinCodeLength = 6

// LobbyModel handles hosting or joining a duel through the coordinator.
//
// It does not read the session's event channel itself; the owner delivers
// duel.LobbyEvent values through Update.
type LobbyModel struct {
	state       OnlineState
	width       int
	height      int
	sessionID   duel.SessionID
	coordinator *duel.Coordinator

	// Host state
	lobbyCode string

	// Join state
	joinCodeInput string
	joinError     string

	paired *duel.PairedEvent
}

// NewLobbyModel creates a lobby model in the idle state.
func NewLobbyModel(sessionID duel.SessionID, coordinator *duel.Coordinator, width, height int) LobbyModel {
	return LobbyModel{
		state:       OnlineStateIdle,
		width:       width,
		height:      height,
		sessionID:   sessionID,
		coordinator: coordinator,
	}
}

// Host asks the coordinator for a new lobby.
func (m LobbyModel) Host() LobbyModel {
	m.coordinator.Send(duel.CreateLobbyMsg{SessionID: m.sessionID})
	m.state = OnlineStateHostWaiting
	m.lobbyCode = ""
	return m
}

// Join switches to code entry.
func (m LobbyModel) Join() LobbyModel {
	m.state = OnlineStateJoinEnterCode
	m.joinCodeInput = ""
	m.joinError = ""
	return m
}

// Init initializes the lobby model.
func (m LobbyModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m LobbyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case duel.LobbyCreatedEvent:
		m.lobbyCode = msg.Code
		m.state = OnlineStateHostWaiting
		return m, nil
	case duel.LobbyClosedEvent:
		m.state = OnlineStateCancelled
		return m, nil
	case duel.LobbyErrorEvent:
		m.joinError = lobbyErrorText(msg.Err)
		switch m.state {
		case OnlineStateJoinWaiting:
			m.state = OnlineStateJoinEnterCode
		case OnlineStateHostWaiting:
			if errors.Is(msg.Err, duel.ErrLobbyExpired) {
				m.lobbyCode = ""
			}
		}
		return m, nil
	case duel.PairedEvent:
		m.paired = &msg
		m.state = OnlineStatePaired
		return m, nil
	}
	return m, nil
}

func lobbyErrorText(err error) string {
	switch {
	case errors.Is(err, duel.ErrLobbyNotFound):
		return "no duel with that code"
	case errors.Is(err, duel.ErrOwnLobby):
		return "that's your own code"
	case errors.Is(err, duel.ErrLobbyExpired):
		return "code expired, host again"
	case err != nil:
		return err.Error()
	default:
		return ""
	}
}

func (m LobbyModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case OnlineStateHostWaiting:
		return m.handleHostWaitingKey(msg)
	case OnlineStateJoinEnterCode:
		return m.handleJoinCodeKey(msg)
	}

	// Joining is answered immediately; no keys while waiting
	return m, nil
}

func (m LobbyModel) handleHostWaitingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "b":
		if m.lobbyCode != "" {
			m.coordinator.Send(duel.CancelLobbyMsg{
				SessionID: m.sessionID,
				Code:      m.lobbyCode,
			})
		}
		m.state = OnlineStateCancelled
	case "r":
		// Expired codes can be renewed in place
		if m.lobbyCode == "" && m.joinError != "" {
			m.joinError = ""
			return m.Host(), nil
		}
	}

	return m, nil
}

func (m LobbyModel) handleJoinCodeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "esc":
		m.state = OnlineStateCancelled
		return m, nil
	case "enter":
		if len(m.joinCodeInput) == joinCodeLength {
			m.state = OnlineStateJoinWaiting
			m.joinError = ""
			m.coordinator.Send(duel.JoinLobbyMsg{
				SessionID: m.sessionID,
				Code:      m.joinCodeInput,
			})
		}
	case "backspace":
		if m.joinCodeInput != "" {
			m.joinCodeInput = m.joinCodeInput[:len(m.joinCodeInput)-1]
		}
	default:
		// Codes are base32: A-Z and 2-7
		if len(key) == 1 && len(m.joinCodeInput) < joinCodeLength {
			c := strings.ToUpper(key)
			if (c[0] >= 'A' && c[0] <= 'Z') || (c[0] >= '2' && c[0] <= '7') {
				m.joinCodeInput += c
			}
		}
	}

	return m, nil
}

// View renders the current state.
func (m LobbyModel) View() string {
	switch m.state {
	case OnlineStateHostWaiting:
		return m.viewHostWaiting()
	case OnlineStateJoinEnterCode:
		return m.viewJoinEnterCode()
	case OnlineStateJoinWaiting:
		return m.viewJoinWaiting()
	case OnlineStatePaired:
		return m.viewPaired()
	}
	return ""
}

func (m LobbyModel) viewHostWaiting() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(centerText("HOSTING DUEL", m.width)))
	b.WriteString("\n\n")

	switch {
	case m.lobbyCode != "":
		b.WriteString(centerText("Share this code with your opponent:", m.width))
		b.WriteString("\n\n")
		b.WriteString(titleStyle.Render(centerText(fmt.Sprintf("[ %s ]", m.lobbyCode), m.width)))
		b.WriteString("\n\n")
		b.WriteString(centerText("Waiting for player to join...", m.width))
	case m.joinError != "":
		b.WriteString(noticeStyle.Render(centerText(m.joinError, m.width)))
		b.WriteString("\n\n")
		b.WriteString(centerText("R: New code", m.width))
	default:
		b.WriteString(centerText("Creating lobby...", m.width))
	}

	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(centerText("Esc: Cancel", m.width)))

	return b.String()
}

func (m LobbyModel) viewJoinEnterCode() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(centerText("JOIN DUEL", m.width)))
	b.WriteString("\n\n")
	b.WriteString(centerText("Enter the duel code:", m.width))
	b.WriteString("\n\n")

	// Display code input with cursor
	codeDisplay := m.joinCodeInput
	if len(codeDisplay) < joinCodeLength {
		codeDisplay += "_"
		codeDisplay += strings.Repeat(" ", joinCodeLength-1-len(m.joinCodeInput))
	}
	b.WriteString(centerText(fmt.Sprintf("[ %s ]", codeDisplay), m.width))
	b.WriteString("\n")

	if m.joinError != "" {
		b.WriteString("\n")
		b.WriteString(noticeStyle.Render(centerText(fmt.Sprintf("Error: %s", m.joinError), m.width)))
	}

	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(centerText("Enter: Connect  |  Esc: Back", m.width)))

	return b.String()
}

func (m LobbyModel) viewJoinWaiting() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(centerText("CONNECTING", m.width)))
	b.WriteString("\n\n")
	b.WriteString(centerText(fmt.Sprintf("Joining duel: %s", m.joinCodeInput), m.width))
	b.WriteString("\n\n")
	b.WriteString(centerText("Please wait...", m.width))

	return b.String()
}

func (m LobbyModel) viewPaired() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(centerText("DUEL STARTING", m.width)))
	b.WriteString("\n\n")
	if m.paired != nil {
		b.WriteString(centerText(fmt.Sprintf("Opponent: %s", m.paired.Opponent), m.width))
	}
	b.WriteString("\n\n")
	b.WriteString(centerText("Get ready!", m.width))

	return b.String()
}

// State returns the current online state.
func (m LobbyModel) State() OnlineState {
	return m.state
}

// Paired returns the pairing once the coordinator has matched this session.
func (m LobbyModel) Paired() (duel.PairedEvent, bool) {
	if m.paired == nil {
		return duel.PairedEvent{}, false
	}
	return *m.paired, true
}

// Cancelled reports whether the player backed out.
func (m LobbyModel) Cancelled() bool {
	return m.state == OnlineStateCancelled
}

// LobbyCode returns the hosted lobby code.
func (m LobbyModel) LobbyCode() string {
	return m.lobbyCode
}
