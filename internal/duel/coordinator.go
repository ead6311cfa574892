package duel

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Lobby is a hosted code waiting for an opponent.
type Lobby struct {
	Code      string
	Host      SessionHandle
	CreatedAt time.Time
}

// CoordinatorConfig holds configuration for the coordinator.
type CoordinatorConfig struct {
	LobbyTimeout  time.Duration // How long before an unjoined lobby expires
	CleanupPeriod time.Duration // How often to clean up expired lobbies
	PipeBuffer    int           // Per-direction relay buffer
}

// DefaultCoordinatorConfig returns sensible defaults.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		LobbyTimeout:  2 * time.Minute,
		CleanupPeriod: 30 * time.Second,
		PipeBuffer:    DefaultPipeBuffer,
	}
}

// relay is a paired match: one pipe end per session.
type relay struct {
	id   MatchID
	ends map[SessionID]*PipeEnd
}

// Coordinator pairs sessions through join codes.
//
// It does not run matches. Once two sessions pair, each gets one end of an
// in-memory Pipe and runs its own Match, exactly as two remote peers would.
type Coordinator struct {
	config   CoordinatorConfig
	sessions *SessionRegistry
	logger   *log.Logger

	mu      sync.RWMutex
	lobbies map[string]*Lobby  // code -> lobby
	relays  map[MatchID]*relay // matchID -> relay

	// Track which session is in which lobby/match
	sessionLobby map[SessionID]string  // sessionID -> lobby code
	sessionMatch map[SessionID]MatchID // sessionID -> matchID

	msgChan  chan CoordinatorMessage
	done     chan struct{}
	stopOnce sync.Once
}

// NewCoordinator creates a new coordinator.
func NewCoordinator(cfg CoordinatorConfig, sessions *SessionRegistry, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Coordinator{
		config:       cfg,
		sessions:     sessions,
		logger:       logger,
		lobbies:      make(map[string]*Lobby),
		relays:       make(map[MatchID]*relay),
		sessionLobby: make(map[SessionID]string),
		sessionMatch: make(map[SessionID]MatchID),
		msgChan:      make(chan CoordinatorMessage, 256),
		done:         make(chan struct{}),
	}
}

// Start begins the coordinator's background processing.
func (c *Coordinator) Start() {
	go c.processMessages()
	if c.config.CleanupPeriod > 0 {
		go c.cleanupLoop()
	}
}

// Stop shuts down the coordinator. Safe to call multiple times.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
}

// Send sends a message to the coordinator for async processing.
func (c *Coordinator) Send(msg CoordinatorMessage) {
	select {
	case c.msgChan <- msg:
	case <-c.done:
	}
}

func (c *Coordinator) processMessages() {
	for {
		select {
		case msg := <-c.msgChan:
			c.handleMessage(msg)
		case <-c.done:
			return
		}
	}
}

func (c *Coordinator) handleMessage(msg CoordinatorMessage) {
	switch m := msg.(type) {
	case CreateLobbyMsg:
		c.handleCreateLobby(m)
	case JoinLobbyMsg:
		c.handleJoinLobby(m)
	case CancelLobbyMsg:
		c.handleCancelLobby(m)
	case MatchFinishedMsg:
		c.handleMatchFinished(m)
	case SessionDisconnectedMsg:
		c.handleSessionDisconnected(m)
	}
}

func (c *Coordinator) handleCreateLobby(msg CreateLobbyMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}

	c.mu.Lock()
	if c.busy(msg.SessionID) {
		c.mu.Unlock()
		session.Send(LobbyErrorEvent{Err: ErrAlreadyInLobby})
		return
	}

	code := c.generateUniqueCode()
	c.lobbies[code] = &Lobby{
		Code:      code,
		Host:      session,
		CreatedAt: time.Now(),
	}
	c.sessionLobby[msg.SessionID] = code
	c.mu.Unlock()

	c.logger.Info("lobby created", "code", code, "host", session.Name())
	session.Send(LobbyCreatedEvent{Code: code})
}

func (c *Coordinator) handleJoinLobby(msg JoinLobbyMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	code := strings.ToUpper(strings.TrimSpace(msg.Code))
	lobby, exists := c.lobbies[code]
	if !exists {
		session.Send(LobbyErrorEvent{Err: ErrLobbyNotFound})
		return
	}
	if lobby.Host.ID() == msg.SessionID {
		session.Send(LobbyErrorEvent{Err: ErrOwnLobby})
		return
	}
	if c.busy(msg.SessionID) {
		session.Send(LobbyErrorEvent{Err: ErrAlreadyInLobby})
		return
	}

	c.pair(lobby, session)
}

// pair turns a lobby into a relay. Must be called with lock held.
func (c *Coordinator) pair(lobby *Lobby, joiner SessionHandle) {
	matchID := NewMatchID()
	hostEnd, joinerEnd := Pipe(c.config.PipeBuffer)

	hostID := lobby.Host.ID()
	joinerID := joiner.ID()

	c.relays[matchID] = &relay{
		id: matchID,
		ends: map[SessionID]*PipeEnd{
			hostID:   hostEnd,
			joinerID: joinerEnd,
		},
	}
	delete(c.sessionLobby, hostID)
	delete(c.lobbies, lobby.Code)
	c.sessionMatch[hostID] = matchID
	c.sessionMatch[joinerID] = matchID

	c.logger.Info("match paired",
		"match", matchID,
		"code", lobby.Code,
		"host", lobby.Host.Name(),
		"joiner", joiner.Name(),
	)

	lobby.Host.Send(PairedEvent{
		MatchID:   matchID,
		Code:      lobby.Code,
		Host:      true,
		Opponent:  joiner.Name(),
		Transport: hostEnd,
	})
	joiner.Send(PairedEvent{
		MatchID:   matchID,
		Code:      lobby.Code,
		Host:      false,
		Opponent:  lobby.Host.Name(),
		Transport: joinerEnd,
	})
}

func (c *Coordinator) handleCancelLobby(msg CancelLobbyMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	code := strings.ToUpper(msg.Code)
	lobby, exists := c.lobbies[code]
	if !exists || lobby.Host.ID() != msg.SessionID {
		return
	}

	delete(c.lobbies, code)
	delete(c.sessionLobby, msg.SessionID)
	lobby.Host.Send(LobbyClosedEvent{Code: code})
}

func (c *Coordinator) handleMatchFinished(msg MatchFinishedMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionMatch[msg.SessionID] != msg.MatchID {
		return
	}
	c.releaseFromRelay(msg.SessionID, false)
}

func (c *Coordinator) handleSessionDisconnected(msg SessionDisconnectedMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if code, inLobby := c.sessionLobby[msg.SessionID]; inLobby {
		delete(c.lobbies, code)
		delete(c.sessionLobby, msg.SessionID)
		c.logger.Debug("lobby dropped", "code", code)
	}

	// The peer sees end-of-stream and resolves on its own
	c.releaseFromRelay(msg.SessionID, true)
}

// releaseFromRelay detaches a session from its relay, optionally closing
// its pipe end. Must be called with lock held.
func (c *Coordinator) releaseFromRelay(id SessionID, closeEnd bool) {
	matchID, inMatch := c.sessionMatch[id]
	if !inMatch {
		return
	}
	delete(c.sessionMatch, id)

	r, exists := c.relays[matchID]
	if !exists {
		return
	}
	if end, ok := r.ends[id]; ok {
		if closeEnd {
			_ = end.Close() //nolint:errcheck // pipe close never fails
		}
		delete(r.ends, id)
	}
	if len(r.ends) == 0 {
		delete(c.relays, matchID)
		c.logger.Debug("relay released", "match", matchID)
	}
}

// busy reports whether a session already hosts a lobby or plays a match.
// Must be called with lock held.
func (c *Coordinator) busy(id SessionID) bool {
	_, inLobby := c.sessionLobby[id]
	_, inMatch := c.sessionMatch[id]
	return inLobby || inMatch
}

func (c *Coordinator) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpiredLobbies(time.Now())
		case <-c.done:
			return
		}
	}
}

func (c *Coordinator) cleanupExpiredLobbies(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for code, lobby := range c.lobbies {
		if now.Sub(lobby.CreatedAt) > c.config.LobbyTimeout {
			lobby.Host.Send(LobbyErrorEvent{Err: ErrLobbyExpired})
			delete(c.sessionLobby, lobby.Host.ID())
			delete(c.lobbies, code)
		}
	}
}

func (c *Coordinator) generateUniqueCode() string {
	for {
		code := generateJoinCode()
		if _, exists := c.lobbies[code]; !exists {
			return code
		}
	}
}

// generateJoinCode creates a 6-character uppercase alphanumeric code.
func generateJoinCode() string {
	b := make([]byte, 4) // 4 bytes = 32 bits, base32 encodes to 8 chars, we take 6
	_, err := rand.Read(b)
	if err != nil {
		// Fallback to timestamp-based
		return fmt.Sprintf("%06X", time.Now().UnixNano()&0xFFFFFF)
	}
	return base32.StdEncoding.EncodeToString(b)[:6]
}

// GetLobby returns a lobby by code.
func (c *Coordinator) GetLobby(code string) (*Lobby, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.lobbies[strings.ToUpper(code)]
	return l, ok
}

// LobbyCount returns the number of open lobbies.
func (c *Coordinator) LobbyCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lobbies)
}

// MatchCount returns the number of paired matches still in play.
func (c *Coordinator) MatchCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.relays)
}
