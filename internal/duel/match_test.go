package duel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/reaction-duel/internal/config"
	"github.com/vovakirdan/reaction-duel/internal/reaction"
)

type memorySaver struct {
	mu      sync.Mutex
	results []Result
}

func (s *memorySaver) SaveMatchResult(r Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return nil
}

func (s *memorySaver) saved() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.results...)
}

func fastOptions() Options {
	opts := DefaultOptions()
	opts.Length = 10
	opts.Cadence = reaction.Cadence{
		HighlightBase:  2 * time.Millisecond,
		HighlightDecay: 1,
		PauseBase:      2 * time.Millisecond,
		PauseDecay:     1,
		PauseFloor:     time.Millisecond,
	}
	opts.AckDuration = time.Millisecond
	opts.SeedTimeout = 2 * time.Second
	opts.FinishTimeout = 2 * time.Second
	return opts
}

// autoPlay presses every symbol as soon as it lights up.
func autoPlay(m *Match, presses chan<- reaction.PressEvent) {
	for evt := range m.Events() {
		if s, ok := evt.(StepEvent); ok && s.Lit {
			presses <- reaction.PressEvent{Button: int(s.Symbol), Kind: reaction.Press}
		}
	}
}

type runResult struct {
	res Result
	err error
}

func runAsync(ctx context.Context, m *Match) <-chan runResult {
	done := make(chan runResult, 1)
	go func() {
		res, err := m.Run(ctx)
		done <- runResult{res, err}
	}()
	return done
}

func wait(t *testing.T, done <-chan runResult) runResult {
	t.Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("match did not finish")
		return runResult{}
	}
}

func TestMatchPerfectPlayerBeatsIdlePlayer(t *testing.T) {
	hostEnd, guestEnd := Pipe(0)
	opts := fastOptions()

	hostPresses := make(chan reaction.PressEvent, 64)
	host := NewMatch("m", "host", "guest", hostEnd, hostPresses, opts, nil)
	guest := NewMatch("m", "guest", "host", guestEnd, nil, opts, nil)

	hostSaver, guestSaver := &memorySaver{}, &memorySaver{}
	host.SetResultSaver(hostSaver)
	guest.SetResultSaver(guestSaver)

	go autoPlay(host, hostPresses)

	ctx := context.Background()
	hostDone := runAsync(ctx, host)
	guestDone := runAsync(ctx, guest)

	h := wait(t, hostDone)
	g := wait(t, guestDone)

	if h.err != nil || g.err != nil {
		t.Fatalf("Run() errors: host %v, guest %v", h.err, g.err)
	}
	if h.res.SharedSeed != g.res.SharedSeed {
		t.Errorf("shared seeds differ: %d vs %d", h.res.SharedSeed, g.res.SharedSeed)
	}

	if h.res.Round.Kind != reaction.Won || h.res.LocalScore != opts.Length+1 {
		t.Errorf("host round = %v, expected won(%d)", h.res.Round, opts.Length+1)
	}
	if g.res.Round.Kind != reaction.Lost || g.res.LocalScore != 0 {
		t.Errorf("guest round = %v, expected lost(0)", g.res.Round)
	}

	if h.res.Outcome != MatchWon || h.res.Reason != EndCompleted {
		t.Errorf("host outcome = %v (%v), expected won (completed)", h.res.Outcome, h.res.Reason)
	}
	if g.res.Outcome != MatchLost || g.res.Reason != EndCompleted {
		t.Errorf("guest outcome = %v (%v), expected lost (completed)", g.res.Outcome, g.res.Reason)
	}
	if !h.res.RemoteKnown || h.res.RemoteScore != 0 || g.res.RemoteScore != opts.Length+1 {
		t.Errorf("remote scores: host saw %d, guest saw %d", h.res.RemoteScore, g.res.RemoteScore)
	}

	if len(hostSaver.saved()) != 1 || len(guestSaver.saved()) != 1 {
		t.Errorf("saved results: host %d, guest %d; expected 1 each", len(hostSaver.saved()), len(guestSaver.saved()))
	}
}

func TestMatchBothIdleDraw(t *testing.T) {
	hostEnd, guestEnd := Pipe(0)
	opts := fastOptions()

	host := NewMatch("", "host", "guest", hostEnd, nil, opts, nil)
	guest := NewMatch("", "guest", "host", guestEnd, nil, opts, nil)

	hostDone := runAsync(context.Background(), host)
	guestDone := runAsync(context.Background(), guest)
	h := wait(t, hostDone)
	g := wait(t, guestDone)

	if h.res.Outcome != MatchDraw || g.res.Outcome != MatchDraw {
		t.Errorf("outcomes = %v/%v, expected draw/draw", h.res.Outcome, g.res.Outcome)
	}
}

// scriptedPeer drives the far end of a pipe by hand.
type scriptedPeer struct {
	t   *testing.T
	end *PipeEnd
}

func (p scriptedPeer) expect() Message {
	p.t.Helper()
	select {
	case msg, ok := <-p.end.Messages():
		if !ok {
			p.t.Fatal("stream closed")
		}
		return msg
	case <-time.After(5 * time.Second):
		p.t.Fatal("no message from match")
		return nil
	}
}

func TestMatchRemoteFinishesFirst(t *testing.T) {
	local, remote := Pipe(0)
	peer := scriptedPeer{t, remote}

	m := NewMatch("", "me", "them", local, nil, fastOptions(), nil)
	done := runAsync(context.Background(), m)

	seed, ok := peer.expect().(SeedMessage)
	if !ok {
		t.Fatal("first message is not a seed")
	}
	if seed.Seed < 10_000 || seed.Seed >= 100_000 {
		t.Errorf("local seed %d outside default range", seed.Seed)
	}

	remote.Send(SeedMessage{Seed: 58})
	remote.Send(FinishMessage{FinalScore: 80})

	finish, ok := peer.expect().(FinishMessage)
	if !ok {
		t.Fatal("second message is not a finish")
	}

	r := wait(t, done)
	if r.res.SharedSeed != seed.Seed+58 {
		t.Errorf("SharedSeed = %d, expected %d", r.res.SharedSeed, seed.Seed+58)
	}
	if int(finish.FinalScore) != r.res.LocalScore {
		t.Errorf("sent score %d, result local score %d", finish.FinalScore, r.res.LocalScore)
	}
	if r.res.Outcome != MatchLost || r.res.RemoteScore != 80 {
		t.Errorf("result = %v remote %d, expected lost to 80", r.res.Outcome, r.res.RemoteScore)
	}
}

func TestMatchIgnoresDuplicateMessages(t *testing.T) {
	local, remote := Pipe(0)
	peer := scriptedPeer{t, remote}

	m := NewMatch("", "me", "them", local, nil, fastOptions(), nil)
	done := runAsync(context.Background(), m)

	seed := peer.expect().(SeedMessage)
	remote.Send(SeedMessage{Seed: 1})
	remote.Send(SeedMessage{Seed: 999})

	peer.expect() // local finish
	remote.Send(FinishMessage{FinalScore: 0})
	remote.Send(FinishMessage{FinalScore: 50})

	r := wait(t, done)
	if r.res.SharedSeed != seed.Seed+1 {
		t.Errorf("SharedSeed = %d, expected first seed to win", r.res.SharedSeed)
	}
	if r.res.RemoteScore != 0 || r.res.Outcome != MatchDraw {
		t.Errorf("result = %v remote %d, expected draw with first finish", r.res.Outcome, r.res.RemoteScore)
	}
}

func TestMatchSeedTimeout(t *testing.T) {
	local, _ := Pipe(0)
	opts := fastOptions()
	opts.SeedTimeout = 20 * time.Millisecond

	saver := &memorySaver{}
	m := NewMatch("", "me", "them", local, nil, opts, nil)
	m.SetResultSaver(saver)

	r := wait(t, runAsync(context.Background(), m))
	if r.err != nil {
		t.Fatalf("Run() error: %v", r.err)
	}
	if r.res.Outcome != MatchUnavailable || r.res.Reason != EndSeedTimeout {
		t.Errorf("result = %v (%v), expected unavailable (seed timeout)", r.res.Outcome, r.res.Reason)
	}
	if r.res.Started {
		t.Error("round should not have started")
	}
	if n := len(saver.saved()); n != 0 {
		t.Errorf("saved %d results for a match that never started", n)
	}
}

func TestMatchFinishTimeout(t *testing.T) {
	local, remote := Pipe(0)
	peer := scriptedPeer{t, remote}
	opts := fastOptions()
	opts.FinishTimeout = 30 * time.Millisecond

	saver := &memorySaver{}
	m := NewMatch("", "me", "them", local, nil, opts, nil)
	m.SetResultSaver(saver)
	done := runAsync(context.Background(), m)

	peer.expect()
	remote.Send(SeedMessage{Seed: 5})

	r := wait(t, done)
	if r.res.Outcome != MatchUnavailable || r.res.Reason != EndFinishTimeout {
		t.Errorf("result = %v (%v), expected unavailable (finish timeout)", r.res.Outcome, r.res.Reason)
	}
	if r.res.RemoteKnown {
		t.Error("remote score should be unknown")
	}
	// The local score is still recorded
	if saved := saver.saved(); len(saved) != 1 || saved[0].Round.Kind != reaction.Lost {
		t.Errorf("saved = %+v, expected one lost round", saved)
	}
}

func TestMatchPeerClosedBeforeSeed(t *testing.T) {
	local, remote := Pipe(0)
	remote.Close()

	m := NewMatch("", "me", "them", local, nil, fastOptions(), nil)
	r := wait(t, runAsync(context.Background(), m))
	if r.res.Outcome != MatchUnavailable || r.res.Reason != EndPeerClosed {
		t.Errorf("result = %v (%v), expected unavailable (peer closed)", r.res.Outcome, r.res.Reason)
	}
}

func TestMatchPeerClosedDuringRound(t *testing.T) {
	local, remote := Pipe(0)
	peer := scriptedPeer{t, remote}
	opts := fastOptions()
	opts.Cadence.StartDelay = 20 * time.Millisecond

	m := NewMatch("", "me", "them", local, nil, opts, nil)
	done := runAsync(context.Background(), m)

	peer.expect()
	remote.Send(SeedMessage{Seed: 5})
	remote.Close()

	r := wait(t, done)
	if !r.res.Started || r.res.Round.Kind != reaction.Lost {
		t.Errorf("round = %v started=%v, expected local play to finish", r.res.Round, r.res.Started)
	}
	if r.res.Outcome != MatchUnavailable || r.res.Reason != EndPeerClosed {
		t.Errorf("result = %v (%v), expected unavailable (peer closed)", r.res.Outcome, r.res.Reason)
	}
}

func TestMatchLeaveAfterRound(t *testing.T) {
	local, remote := Pipe(0)
	peer := scriptedPeer{t, remote}
	opts := fastOptions()
	opts.FinishTimeout = 0

	presses := make(chan reaction.PressEvent, 4)
	m := NewMatch("", "me", "them", local, presses, opts, nil)
	done := runAsync(context.Background(), m)

	peer.expect()
	remote.Send(SeedMessage{Seed: 5})
	if _, ok := peer.expect().(FinishMessage); !ok {
		t.Fatal("expected local finish")
	}

	presses <- reaction.PressEvent{Button: int(reaction.ButtonB), Kind: reaction.LongPress}

	r := wait(t, done)
	if r.res.Outcome != MatchAbandoned || r.res.Reason != EndLeft {
		t.Errorf("result = %v (%v), expected abandoned (left)", r.res.Outcome, r.res.Reason)
	}

	// Leaving closes the session for the peer
	if _, ok := <-remote.Messages(); ok {
		t.Error("peer stream still open after leave")
	}
}

func TestMatchLeaveDuringRoundIgnored(t *testing.T) {
	local, remote := Pipe(0)
	peer := scriptedPeer{t, remote}
	opts := fastOptions()
	opts.Length = 300
	opts.MaxLag = 300
	opts.Cadence.HighlightBase = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	presses := make(chan reaction.PressEvent, 4)
	m := NewMatch("", "me", "them", local, presses, opts, nil)
	done := runAsync(ctx, m)

	notices := make(chan string, 4)
	go func() {
		for evt := range m.Events() {
			if n, ok := evt.(NoticeEvent); ok {
				notices <- n.Message
			}
		}
	}()

	peer.expect()
	remote.Send(SeedMessage{Seed: 5})
	// The idle round runs for a few seconds, so the leave lands mid-round
	time.Sleep(50 * time.Millisecond)
	presses <- reaction.PressEvent{Button: int(reaction.ButtonB), Kind: reaction.LongPress}

	select {
	case <-notices:
	case <-time.After(2 * time.Second):
		t.Fatal("no notice for a leave during the round")
	}

	select {
	case r := <-done:
		t.Fatalf("match ended on a mid-round leave: %+v", r.res)
	default:
	}

	cancel()
	if r := wait(t, done); r.res.Reason != EndCancelled {
		t.Errorf("Reason = %v, expected cancelled", r.res.Reason)
	}
}

func TestMatchCancelled(t *testing.T) {
	local, remote := Pipe(0)
	peer := scriptedPeer{t, remote}
	opts := fastOptions()
	opts.Cadence.StartDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	m := NewMatch("", "me", "them", local, nil, opts, nil)
	done := runAsync(ctx, m)

	peer.expect()
	remote.Send(SeedMessage{Seed: 5})
	time.Sleep(10 * time.Millisecond)
	cancel()

	r := wait(t, done)
	if !errors.Is(r.err, context.Canceled) {
		t.Errorf("Run() error = %v, expected context.Canceled", r.err)
	}
	if r.res.Outcome != MatchAbandoned || r.res.Reason != EndCancelled {
		t.Errorf("result = %v (%v), expected abandoned (cancelled)", r.res.Outcome, r.res.Reason)
	}

	var last Event
	for evt := range m.Events() {
		last = evt
	}
	if _, ok := last.(MatchOverEvent); !ok {
		t.Errorf("last event = %T, expected MatchOverEvent", last)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultReactionConfig()
	cfg.Sequence.Length = 42
	cfg.Timeouts.Finish = 0

	opts := OptionsFromConfig(&cfg)
	if opts.Length != 42 || opts.MaxLag != 5 {
		t.Errorf("Length/MaxLag = %d/%d", opts.Length, opts.MaxLag)
	}
	if opts.Cadence != reaction.DefaultCadence() {
		t.Errorf("Cadence = %+v, expected defaults", opts.Cadence)
	}
	if opts.Seeds != DefaultSeedRange() {
		t.Errorf("Seeds = %+v, expected defaults", opts.Seeds)
	}
	if opts.FinishTimeout != 0 || opts.SeedTimeout != 30*time.Second {
		t.Errorf("timeouts = %v/%v", opts.SeedTimeout, opts.FinishTimeout)
	}
}

func TestMatchAnnouncesRules(t *testing.T) {
	local, remote := Pipe(0)
	peer := scriptedPeer{t, remote}
	opts := fastOptions()
	opts.MaxLag = 4

	m := NewMatch("", "me", "them", local, nil, opts, nil)
	done := runAsync(context.Background(), m)

	seed := peer.expect().(SeedMessage)
	if seed.Length != 10 || seed.MaxLag != 4 {
		t.Errorf("seed rules = %d/%d, expected 10/4", seed.Length, seed.MaxLag)
	}

	remote.Send(SeedMessage{Seed: 5, Length: 10, MaxLag: 4})
	peer.expect()
	remote.Send(FinishMessage{FinalScore: 0})

	if r := wait(t, done); r.res.Reason != EndCompleted {
		t.Errorf("Reason = %v, expected completed", r.res.Reason)
	}
}

func TestMatchRulesMismatch(t *testing.T) {
	tests := []struct {
		name string
		seed SeedMessage
	}{
		{"length", SeedMessage{Seed: 5, Length: 11}},
		{"max lag", SeedMessage{Seed: 5, Length: 10, MaxLag: 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local, remote := Pipe(0)
			peer := scriptedPeer{t, remote}

			saver := &memorySaver{}
			m := NewMatch("", "me", "them", local, nil, fastOptions(), nil)
			m.SetResultSaver(saver)
			done := runAsync(context.Background(), m)

			peer.expect()
			remote.Send(tt.seed)

			r := wait(t, done)
			if r.res.Outcome != MatchUnavailable || r.res.Reason != EndRulesMismatch {
				t.Errorf("result = %v (%v), expected unavailable (rules mismatch)", r.res.Outcome, r.res.Reason)
			}
			if r.res.Started {
				t.Error("round should not start")
			}
			if saved := saver.saved(); len(saved) != 0 {
				t.Errorf("saved = %+v, expected nothing", saved)
			}
		})
	}
}
