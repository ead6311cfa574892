package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/reaction-duel/internal/duel"
	"github.com/vovakirdan/reaction-duel/internal/reaction"
)

func newTestDuel() (DuelModel, chan duel.Event, chan reaction.PressEvent) {
	events := make(chan duel.Event, 16)
	presses := make(chan reaction.PressEvent, 4)
	m := NewDuelModel(events, presses, "ann", "bob", 80, 24)
	return m, events, presses
}

func feed(t *testing.T, m DuelModel, msgs ...tea.Msg) DuelModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		d, ok := next.(DuelModel)
		if !ok {
			t.Fatalf("Update returned %T", next)
		}
		m = d
	}
	return m
}

func TestDuelModelPhases(t *testing.T) {
	m, events, _ := newTestDuel()
	ev := func(e duel.Event) tea.Msg { return matchEventMsg{stream: events, evt: e} }

	m = feed(t, m, ev(duel.WaitingForPeerEvent{LocalSeed: 7}))
	if m.Phase() != PhaseWaitingPeer {
		t.Fatalf("Phase() = %d, expected waiting for peer", m.Phase())
	}

	m = feed(t, m, ev(duel.RoundStartingEvent{SharedSeed: 12, Length: 10}))
	if m.Phase() != PhaseGetReady {
		t.Fatalf("Phase() = %d, expected get ready", m.Phase())
	}
	if !strings.Contains(m.View(), "seed 12") {
		t.Error("header should show the shared seed")
	}

	m = feed(t, m,
		ev(duel.StepEvent{Step: 0, Symbol: reaction.ButtonA, Lit: true}),
		ev(duel.ScoreEvent{Score: 1}),
	)
	if m.Phase() != PhasePlaying {
		t.Fatalf("Phase() = %d, expected playing", m.Phase())
	}
	if !m.lit()[reaction.ButtonA] {
		t.Error("presented symbol should be lit")
	}
	if !strings.Contains(m.View(), "Step 1/10") {
		t.Errorf("View() missing step counter:\n%s", m.View())
	}

	round := reaction.Outcome{Kind: reaction.Lost, Score: 3, Reason: reaction.ReasonMismatch}
	m = feed(t, m,
		ev(duel.RoundOverEvent{Outcome: round}),
		ev(duel.WaitingEvent{LocalScore: 3}),
	)
	if m.Phase() != PhaseWaitingResult {
		t.Fatalf("Phase() = %d, expected waiting for result", m.Phase())
	}
	if m.lit()[reaction.ButtonA] {
		t.Error("board should be dark after the round")
	}

	res := duel.Result{LocalScore: 3, RemoteScore: 5, RemoteKnown: true, Outcome: duel.MatchLost, Reason: duel.EndCompleted, Round: round}
	m = feed(t, m, ev(duel.MatchOverEvent{Result: res}))
	if m.Phase() != PhaseOver {
		t.Fatalf("Phase() = %d, expected over", m.Phase())
	}
	got, ok := m.Result()
	if !ok || got.Outcome != duel.MatchLost {
		t.Errorf("Result() = %+v, %v", got, ok)
	}
	view := m.View()
	if !strings.Contains(view, "You Lost!") || !strings.Contains(view, "You: 3") {
		t.Errorf("result screen missing scores:\n%s", view)
	}
}

func TestDuelModelIgnoresStaleStream(t *testing.T) {
	m, _, _ := newTestDuel()
	old := make(chan duel.Event)

	m = feed(t, m, matchEventMsg{stream: old, evt: duel.RoundStartingEvent{SharedSeed: 1}})
	if m.Phase() != PhaseWaitingPeer || m.sharedSeed != 0 {
		t.Error("events from another stream should be ignored")
	}

	m = feed(t, m, matchStreamClosedMsg{stream: old})
	if m.streamClosed {
		t.Error("closing another stream should not end this one")
	}
}

func TestDuelModelForwardsPresses(t *testing.T) {
	m, _, presses := newTestDuel()

	m = feed(t, m, runeKey('3'))
	select {
	case evt := <-presses:
		if evt.Button != int(reaction.ButtonA) || evt.Kind != reaction.Press {
			t.Errorf("forwarded %+v, expected press of A", evt)
		}
	default:
		t.Fatal("press was not forwarded")
	}

	m = feed(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	select {
	case evt := <-presses:
		if !evt.IsLeave() {
			t.Errorf("forwarded %+v, expected leave", evt)
		}
	default:
		t.Fatal("leave was not forwarded")
	}

	// A full queue drops presses instead of blocking
	for i := 0; i < cap(presses)+2; i++ {
		m = feed(t, m, runeKey('1'))
	}
	if len(presses) != cap(presses) {
		t.Errorf("len(presses) = %d, expected %d", len(presses), cap(presses))
	}
}

func TestDuelModelEndScreen(t *testing.T) {
	m, events, presses := newTestDuel()
	m = feed(t, m, matchEventMsg{stream: events, evt: duel.MatchOverEvent{Result: duel.Result{Outcome: duel.MatchWon}}})

	m = feed(t, m, runeKey('1'))
	if len(presses) != 0 {
		t.Error("presses after the match should not be forwarded")
	}
	if m.Closed() {
		t.Fatal("button press should not close the end screen")
	}

	m = feed(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Closed() {
		t.Error("enter should close the end screen")
	}
}

func TestDuelModelStandaloneQuits(t *testing.T) {
	m, events, _ := newTestDuel()
	m = m.Standalone()
	m = feed(t, m, matchEventMsg{stream: events, evt: duel.MatchOverEvent{Result: duel.Result{Outcome: duel.MatchDraw}}})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("closing a standalone end screen should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.Quit")
	}
}

func TestDuelModelQuit(t *testing.T) {
	m, _, _ := newTestDuel()
	m = feed(t, m, runeKey('q'))
	if !m.IsQuitting() {
		t.Error("q should quit")
	}
	if m.View() != "" {
		t.Error("quitting view should be empty")
	}
}
