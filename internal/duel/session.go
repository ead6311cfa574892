package duel

import "sync"

// SessionHandle is how the coordinator reaches a connected player.
type SessionHandle interface {
	ID() SessionID
	Name() string

	// Send must not block.
	Send(evt LobbyEvent)

	Done() <-chan struct{}
}

// ChannelSession hands lobby events to a screen through a buffered channel.
// A full buffer loses its oldest event.
type ChannelSession struct {
	id     SessionID
	name   string
	events chan LobbyEvent
	done   chan struct{}
	once   sync.Once
}

// NewChannelSession creates a session for player name.
func NewChannelSession(id SessionID, name string, buffer int) *ChannelSession {
	if buffer < 1 {
		buffer = 16
	}
	return &ChannelSession{
		id:     id,
		name:   name,
		events: make(chan LobbyEvent, buffer),
		done:   make(chan struct{}),
	}
}

func (s *ChannelSession) ID() SessionID { return s.id }

func (s *ChannelSession) Name() string { return s.name }

// Events is the stream a screen reads lobby events from.
func (s *ChannelSession) Events() <-chan LobbyEvent { return s.events }

// Done is closed by Close.
func (s *ChannelSession) Done() <-chan struct{} { return s.done }

// Send queues evt unless the session has ended.
func (s *ChannelSession) Send(evt LobbyEvent) {
	select {
	case <-s.done:
	default:
		pushDropOldest(s.events, evt)
	}
}

// Close ends the session; later calls do nothing.
func (s *ChannelSession) Close() {
	s.once.Do(func() { close(s.done) })
}

// SessionRegistry maps session IDs to connected players.
type SessionRegistry struct {
	mu   sync.RWMutex
	byID map[SessionID]SessionHandle
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{byID: make(map[SessionID]SessionHandle)}
}

func (r *SessionRegistry) Register(s SessionHandle) {
	r.mu.Lock()
	r.byID[s.ID()] = s
	r.mu.Unlock()
}

func (r *SessionRegistry) Unregister(id SessionID) {
	r.mu.Lock()
	delete(r.byID, id)
	r.mu.Unlock()
}

// Get looks up a connected player.
func (r *SessionRegistry) Get(id SessionID) (SessionHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// Len returns the number of connected players.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
