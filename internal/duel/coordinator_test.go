package duel

import (
	"errors"
	"testing"
	"time"
)

func newTestCoordinator() (*Coordinator, *SessionRegistry) {
	reg := NewSessionRegistry()
	c := NewCoordinator(DefaultCoordinatorConfig(), reg, nil)
	return c, reg
}

func addSession(reg *SessionRegistry, id, name string) *ChannelSession {
	s := NewChannelSession(SessionID(id), name, 8)
	reg.Register(s)
	return s
}

func nextEvent(t *testing.T, s *ChannelSession) LobbyEvent {
	t.Helper()
	select {
	case evt := <-s.Events():
		return evt
	case <-time.After(time.Second):
		t.Fatalf("no event for session %s", s.ID())
		return nil
	}
}

func TestGenerateJoinCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code := generateJoinCode()
		if len(code) != 6 {
			t.Fatalf("generateJoinCode() = %q, expected 6 characters", code)
		}
		for _, r := range code {
			if (r < 'A' || r > 'Z') && (r < '2' || r > '7') {
				t.Fatalf("generateJoinCode() = %q has invalid character %q", code, r)
			}
		}
		seen[code] = true
	}
	if len(seen) < 45 {
		t.Errorf("only %d distinct codes in 50 draws", len(seen))
	}
}

func TestCoordinatorPairing(t *testing.T) {
	c, reg := newTestCoordinator()
	host := addSession(reg, "s1", "ann")
	joiner := addSession(reg, "s2", "bob")

	c.handleMessage(CreateLobbyMsg{SessionID: host.ID()})
	created, ok := nextEvent(t, host).(LobbyCreatedEvent)
	if !ok {
		t.Fatal("host did not get LobbyCreatedEvent")
	}
	if c.LobbyCount() != 1 {
		t.Errorf("LobbyCount() = %d, expected 1", c.LobbyCount())
	}
	if _, ok := c.GetLobby(created.Code); !ok {
		t.Errorf("GetLobby(%q) not found", created.Code)
	}

	// Codes are case-insensitive and tolerate whitespace
	c.handleMessage(JoinLobbyMsg{SessionID: joiner.ID(), Code: " " + toLower(created.Code) + " "})

	hp, ok := nextEvent(t, host).(PairedEvent)
	if !ok {
		t.Fatal("host did not get PairedEvent")
	}
	jp, ok := nextEvent(t, joiner).(PairedEvent)
	if !ok {
		t.Fatal("joiner did not get PairedEvent")
	}

	if hp.MatchID != jp.MatchID || hp.MatchID == "" {
		t.Errorf("match IDs %q / %q", hp.MatchID, jp.MatchID)
	}
	if !hp.Host || jp.Host {
		t.Errorf("Host flags = %v/%v, expected true/false", hp.Host, jp.Host)
	}
	if hp.Opponent != "bob" || jp.Opponent != "ann" {
		t.Errorf("opponents = %q/%q", hp.Opponent, jp.Opponent)
	}
	if c.LobbyCount() != 0 || c.MatchCount() != 1 {
		t.Errorf("LobbyCount/MatchCount = %d/%d, expected 0/1", c.LobbyCount(), c.MatchCount())
	}

	// The two transports are connected
	hp.Transport.Send(SeedMessage{Seed: 7})
	if msg := <-jp.Transport.Messages(); msg != (SeedMessage{Seed: 7}) {
		t.Errorf("joiner got %+v, expected seed 7", msg)
	}

	c.handleMessage(MatchFinishedMsg{SessionID: host.ID(), MatchID: hp.MatchID})
	if c.MatchCount() != 1 {
		t.Errorf("MatchCount() = %d after one side finished, expected 1", c.MatchCount())
	}
	c.handleMessage(MatchFinishedMsg{SessionID: joiner.ID(), MatchID: jp.MatchID})
	if c.MatchCount() != 0 {
		t.Errorf("MatchCount() = %d after both finished, expected 0", c.MatchCount())
	}
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func TestCoordinatorJoinErrors(t *testing.T) {
	c, reg := newTestCoordinator()
	host := addSession(reg, "s1", "ann")
	other := addSession(reg, "s2", "bob")

	c.handleMessage(JoinLobbyMsg{SessionID: other.ID(), Code: "ZZZZZZ"})
	if evt, ok := nextEvent(t, other).(LobbyErrorEvent); !ok || !errors.Is(evt.Err, ErrLobbyNotFound) {
		t.Errorf("join unknown code: got %+v, expected ErrLobbyNotFound", evt)
	}

	c.handleMessage(CreateLobbyMsg{SessionID: host.ID()})
	code := nextEvent(t, host).(LobbyCreatedEvent).Code

	c.handleMessage(JoinLobbyMsg{SessionID: host.ID(), Code: code})
	if evt, ok := nextEvent(t, host).(LobbyErrorEvent); !ok || !errors.Is(evt.Err, ErrOwnLobby) {
		t.Errorf("host joining own lobby: got %+v, expected ErrOwnLobby", evt)
	}

	c.handleMessage(CreateLobbyMsg{SessionID: host.ID()})
	if evt, ok := nextEvent(t, host).(LobbyErrorEvent); !ok || !errors.Is(evt.Err, ErrAlreadyInLobby) {
		t.Errorf("second lobby: got %+v, expected ErrAlreadyInLobby", evt)
	}
}

func TestCoordinatorCancelLobby(t *testing.T) {
	c, reg := newTestCoordinator()
	host := addSession(reg, "s1", "ann")
	other := addSession(reg, "s2", "bob")

	c.handleMessage(CreateLobbyMsg{SessionID: host.ID()})
	code := nextEvent(t, host).(LobbyCreatedEvent).Code

	// Only the host can cancel
	c.handleMessage(CancelLobbyMsg{SessionID: other.ID(), Code: code})
	if c.LobbyCount() != 1 {
		t.Fatal("non-host cancelled the lobby")
	}

	c.handleMessage(CancelLobbyMsg{SessionID: host.ID(), Code: code})
	if _, ok := nextEvent(t, host).(LobbyClosedEvent); !ok {
		t.Error("host did not get LobbyClosedEvent")
	}
	if c.LobbyCount() != 0 {
		t.Errorf("LobbyCount() = %d, expected 0", c.LobbyCount())
	}

	// Host is free to create again
	c.handleMessage(CreateLobbyMsg{SessionID: host.ID()})
	if _, ok := nextEvent(t, host).(LobbyCreatedEvent); !ok {
		t.Error("host could not create a new lobby after cancelling")
	}
}

func TestCoordinatorDisconnectClosesRelay(t *testing.T) {
	c, reg := newTestCoordinator()
	host := addSession(reg, "s1", "ann")
	joiner := addSession(reg, "s2", "bob")

	c.handleMessage(CreateLobbyMsg{SessionID: host.ID()})
	code := nextEvent(t, host).(LobbyCreatedEvent).Code
	c.handleMessage(JoinLobbyMsg{SessionID: joiner.ID(), Code: code})
	nextEvent(t, host)
	jp := nextEvent(t, joiner).(PairedEvent)

	c.handleMessage(SessionDisconnectedMsg{SessionID: host.ID()})

	select {
	case _, ok := <-jp.Transport.Messages():
		if ok {
			t.Error("joiner received a message instead of end-of-stream")
		}
	case <-time.After(time.Second):
		t.Fatal("joiner stream not closed after host disconnect")
	}

	c.handleMessage(MatchFinishedMsg{SessionID: joiner.ID(), MatchID: jp.MatchID})
	if c.MatchCount() != 0 {
		t.Errorf("MatchCount() = %d, expected 0", c.MatchCount())
	}
}

func TestCoordinatorDisconnectDropsLobby(t *testing.T) {
	c, reg := newTestCoordinator()
	host := addSession(reg, "s1", "ann")

	c.handleMessage(CreateLobbyMsg{SessionID: host.ID()})
	nextEvent(t, host)

	c.handleMessage(SessionDisconnectedMsg{SessionID: host.ID()})
	if c.LobbyCount() != 0 {
		t.Errorf("LobbyCount() = %d, expected 0", c.LobbyCount())
	}
}

func TestCoordinatorExpiresLobbies(t *testing.T) {
	c, reg := newTestCoordinator()
	host := addSession(reg, "s1", "ann")

	c.handleMessage(CreateLobbyMsg{SessionID: host.ID()})
	nextEvent(t, host)

	c.cleanupExpiredLobbies(time.Now())
	if c.LobbyCount() != 1 {
		t.Fatal("fresh lobby expired")
	}

	c.cleanupExpiredLobbies(time.Now().Add(c.config.LobbyTimeout + time.Second))
	if evt, ok := nextEvent(t, host).(LobbyErrorEvent); !ok || !errors.Is(evt.Err, ErrLobbyExpired) {
		t.Errorf("got %+v, expected ErrLobbyExpired", evt)
	}
	if c.LobbyCount() != 0 {
		t.Errorf("LobbyCount() = %d, expected 0", c.LobbyCount())
	}
}

func TestCoordinatorAsync(t *testing.T) {
	c, reg := newTestCoordinator()
	c.Start()
	defer c.Stop()

	host := addSession(reg, "s1", "ann")
	c.Send(CreateLobbyMsg{SessionID: host.ID()})

	if _, ok := nextEvent(t, host).(LobbyCreatedEvent); !ok {
		t.Error("host did not get LobbyCreatedEvent")
	}

	c.Stop()
	// Sending after stop must not block
	c.Send(CreateLobbyMsg{SessionID: host.ID()})
}

func TestChannelSessionDropsOldest(t *testing.T) {
	s := NewChannelSession("s", "ann", 2)
	s.Send(LobbyCreatedEvent{Code: "A"})
	s.Send(LobbyCreatedEvent{Code: "B"})
	s.Send(LobbyCreatedEvent{Code: "C"})

	first := (<-s.Events()).(LobbyCreatedEvent)
	second := (<-s.Events()).(LobbyCreatedEvent)
	if first.Code != "B" || second.Code != "C" {
		t.Errorf("got %s, %s; expected B, C", first.Code, second.Code)
	}

	s.Close()
	s.Close()
	s.Send(LobbyCreatedEvent{Code: "D"})
	select {
	case evt := <-s.Events():
		t.Errorf("closed session received %+v", evt)
	default:
	}
}
