package duel

import "errors"

// Lobby errors, reported to sessions through LobbyErrorEvent.
var (
	ErrAlreadyInLobby = errors.New("already in a lobby")
	ErrLobbyNotFound  = errors.New("lobby not found")
	ErrOwnLobby       = errors.New("cannot join your own lobby")
	ErrLobbyExpired   = errors.New("lobby expired")
)

// LobbyEvent is sent from the coordinator to a session.
type LobbyEvent interface {
	lobbyEvent()
}

// LobbyCreatedEvent is sent when a lobby is successfully created.
type LobbyCreatedEvent struct {
	Code string
}

func (LobbyCreatedEvent) lobbyEvent() {}

// LobbyErrorEvent is sent when a lobby operation fails.
type LobbyErrorEvent struct {
	Err error
}

func (LobbyErrorEvent) lobbyEvent() {}

// LobbyClosedEvent is sent to a waiting joiner when the host goes away.
type LobbyClosedEvent struct {
	Code string
}

func (LobbyClosedEvent) lobbyEvent() {}

// PairedEvent hands each side of a new match its end of the relay.
type PairedEvent struct {
	MatchID   MatchID
	Code      string
	Host      bool
	Opponent  string
	Transport Transport
}

func (PairedEvent) lobbyEvent() {}

// CoordinatorMessage is sent from a session to the coordinator.
type CoordinatorMessage interface {
	coordinatorMessage()
}

// CreateLobbyMsg requests creation of a new lobby.
type CreateLobbyMsg struct {
	SessionID SessionID
}

func (CreateLobbyMsg) coordinatorMessage() {}

// JoinLobbyMsg requests joining an existing lobby.
type JoinLobbyMsg struct {
	SessionID SessionID
	Code      string
}

func (JoinLobbyMsg) coordinatorMessage() {}

// CancelLobbyMsg requests cancellation of a hosted lobby.
type CancelLobbyMsg struct {
	SessionID SessionID
	Code      string
}

func (CancelLobbyMsg) coordinatorMessage() {}

// MatchFinishedMsg reports that a session's match has ended.
type MatchFinishedMsg struct {
	SessionID SessionID
	MatchID   MatchID
}

func (MatchFinishedMsg) coordinatorMessage() {}

// SessionDisconnectedMsg is sent when a session disconnects.
type SessionDisconnectedMsg struct {
	SessionID SessionID
}

func (SessionDisconnectedMsg) coordinatorMessage() {}
