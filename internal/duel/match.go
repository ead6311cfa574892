package duel

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/reaction-duel/internal/config"
	"github.com/vovakirdan/reaction-duel/internal/reaction"
)

// Options tunes a match. Both peers must use the same Length and MaxLag.
type Options struct {
	Length        int
	MaxLag        int
	Seeds         SeedRange
	Cadence       reaction.Cadence
	AckDuration   time.Duration
	SeedTimeout   time.Duration // 0 waits forever
	FinishTimeout time.Duration // 0 waits forever
	EventBuffer   int
}

// DefaultOptions returns the standard match settings.
func DefaultOptions() Options {
	return Options{
		Length:        reaction.DefaultLength,
		MaxLag:        reaction.DefaultMaxLag,
		Seeds:         DefaultSeedRange(),
		Cadence:       reaction.DefaultCadence(),
		AckDuration:   reaction.DefaultAckDuration,
		SeedTimeout:   30 * time.Second,
		FinishTimeout: 60 * time.Second,
		EventBuffer:   256,
	}
}

// OptionsFromConfig builds match options from the game configuration.
func OptionsFromConfig(cfg *config.ReactionConfig) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	opts.Length = cfg.Sequence.Length
	opts.MaxLag = cfg.Sequence.MaxLag
	opts.Seeds = SeedRange{Min: cfg.Seed.Min, Max: cfg.Seed.Max}
	opts.Cadence = reaction.Cadence{
		StartDelay:     cfg.Cadence.StartDelay,
		HighlightBase:  cfg.Cadence.HighlightBase,
		HighlightDecay: cfg.Cadence.HighlightDecay,
		PauseBase:      cfg.Cadence.PauseBase,
		PauseDecay:     cfg.Cadence.PauseDecay,
		PauseFloor:     cfg.Cadence.PauseFloor,
	}
	opts.AckDuration = cfg.Input.AckDuration
	opts.SeedTimeout = cfg.Timeouts.Seed
	opts.FinishTimeout = cfg.Timeouts.Finish
	return opts
}

// Match runs one duel against a peer reachable through a Transport.
//
// Run owns every piece of per-match state: the seed exchange, the round
// session and the finish negotiator. The presentation driver and input
// matcher run as child goroutines only while the round is in progress.
type Match struct {
	id        MatchID
	player    string
	peer      string
	transport Transport
	presses   <-chan reaction.PressEvent
	opts      Options
	logger    *log.Logger
	saver     ResultSaver
	events    *emitter
	closeOnce sync.Once

	// Owned by the Run goroutine
	inbox      <-chan Message
	peerClosed bool
	seeds      *SeedExchange
	negotiator *Negotiator
	started    time.Time
}

// NewMatch creates a match. presses delivers the local player's button
// events; it may be shared with nothing else while the match runs.
func NewMatch(
	id MatchID,
	player, peer string,
	transport Transport,
	presses <-chan reaction.PressEvent,
	opts Options,
	logger *log.Logger,
) *Match {
	def := DefaultOptions()
	if opts.Length <= 0 {
		opts.Length = def.Length
	}
	if opts.MaxLag <= 0 {
		opts.MaxLag = def.MaxLag
	}
	if opts.Seeds.Max <= opts.Seeds.Min {
		opts.Seeds = def.Seeds
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if id == "" {
		id = NewMatchID()
	}

	return &Match{
		id:         id,
		player:     player,
		peer:       peer,
		transport:  transport,
		presses:    presses,
		opts:       opts,
		logger:     logger,
		events:     newEmitter(opts.EventBuffer),
		negotiator: NewNegotiator(),
	}
}

// SetResultSaver sets the optional result saver.
func (m *Match) SetResultSaver(saver ResultSaver) {
	m.saver = saver
}

// ID returns the match identifier.
func (m *Match) ID() MatchID {
	return m.id
}

// Events returns the display event stream. It is closed when Run returns.
func (m *Match) Events() <-chan Event {
	return m.events.Events()
}

// Run plays the match to completion and closes the transport.
// The returned error is non-nil only when ctx was cancelled.
func (m *Match) Run(ctx context.Context) (Result, error) {
	m.started = time.Now()
	m.inbox = m.transport.Messages()
	defer m.teardown()

	res := Result{MatchID: m.id, Player: m.player, Peer: m.peer}

	m.seeds = NewSeedExchange(m.localSeed())
	hello := m.seeds.Message()
	hello.Length = uint32(m.opts.Length) //nolint:gosec // validated by config
	hello.MaxLag = uint32(m.opts.MaxLag) //nolint:gosec // validated by config
	m.transport.Send(hello)
	m.events.Send(WaitingForPeerEvent{LocalSeed: m.seeds.Local()})
	m.logger.Debug("seed sent", "match", m.id, "seed", m.seeds.Local())

	shared, reason, ok := m.awaitSeed(ctx)
	if !ok {
		m.logger.Info("seed exchange failed", "match", m.id, "reason", reason)
		return m.conclude(res, reason), ctx.Err()
	}
	res.SharedSeed = shared
	res.Started = true
	m.logger.Info("round starting", "match", m.id, "shared_seed", shared, "length", m.opts.Length)

	round, reason, ok := m.playRound(ctx, shared)
	res.Round = round
	res.LocalScore = round.Score
	if !ok {
		return m.conclude(res, reason), ctx.Err()
	}

	msg, resolved, err := m.negotiator.LocalFinished(uint32(round.Score)) //nolint:gosec // scores are non-negative
	if err != nil {
		m.logger.Warn("local finish rejected", "match", m.id, "error", err)
	}
	m.transport.Send(msg)
	m.events.Send(RoundOverEvent{Outcome: round})
	m.logger.Info("round over", "match", m.id, "outcome", round, "reason", round.Reason)

	if resolved {
		return m.conclude(res, EndCompleted), nil
	}
	if m.peerClosed {
		return m.conclude(res, EndPeerClosed), nil
	}

	m.events.Send(WaitingEvent{LocalScore: round.Score})
	reason = m.awaitFinish(ctx)
	return m.conclude(res, reason), ctx.Err()
}

// localSeed draws the local seed, falling back to the clock if the
// system random source fails.
func (m *Match) localSeed() uint32 {
	seed, err := m.opts.Seeds.NewSeed()
	if err != nil {
		m.logger.Warn("falling back to clock seed", "error", err)
		span := m.opts.Seeds.Max - m.opts.Seeds.Min
		seed = m.opts.Seeds.Min + uint32(time.Now().UnixNano())%span //nolint:gosec // truncation intended
	}
	return seed
}

func (m *Match) awaitSeed(ctx context.Context) (uint32, EndReason, bool) {
	timeout, stop := after(m.opts.SeedTimeout)
	defer stop()

	presses := m.presses
	for {
		select {
		case <-ctx.Done():
			return 0, EndCancelled, false

		case <-timeout:
			return 0, EndSeedTimeout, false

		case msg, ok := <-m.inbox:
			if !ok {
				m.markPeerClosed()
				return 0, EndPeerClosed, false
			}
			if seed, isSeed := msg.(SeedMessage); isSeed {
				if !m.rulesMatch(seed) {
					return 0, EndRulesMismatch, false
				}
				shared, _ := m.seeds.Receive(seed)
				return shared, EndCompleted, true
			}
			m.handleMessage(msg)

		case evt, ok := <-presses:
			if !ok {
				presses = nil
				continue
			}
			if evt.IsLeave() {
				return 0, EndLeft, false
			}
		}
	}
}

// rulesMatch reports whether the peer plays the same round as we do.
// Rules the peer left out are taken to agree.
func (m *Match) rulesMatch(seed SeedMessage) bool {
	lengthOK := seed.Length == 0 || int(seed.Length) == m.opts.Length
	lagOK := seed.MaxLag == 0 || int(seed.MaxLag) == m.opts.MaxLag
	if lengthOK && lagOK {
		return true
	}
	m.logger.Warn("peer rules differ",
		"match", m.id,
		"local_length", m.opts.Length,
		"peer_length", seed.Length,
		"local_max_lag", m.opts.MaxLag,
		"peer_max_lag", seed.MaxLag,
	)
	m.events.Send(NoticeEvent{Message: fmt.Sprintf(
		"Opponent plays length %d / max lag %d, we play %d / %d",
		seed.Length, seed.MaxLag, m.opts.Length, m.opts.MaxLag,
	)})
	return false
}

// playRound runs the driver and matcher until the local round ends.
func (m *Match) playRound(ctx context.Context, shared uint32) (reaction.Outcome, EndReason, bool) {
	session := reaction.NewSession(reaction.Generate(shared, m.opts.Length), m.opts.MaxLag)
	m.events.Send(RoundStartingEvent{
		SharedSeed: shared,
		Length:     session.Len(),
		StartDelay: m.opts.Cadence.StartDelay,
	})

	roundCtx, cancel := context.WithCancel(ctx)
	outcomes := make(chan reaction.Outcome, 2)

	driver := reaction.NewDriver(session, m.opts.Cadence, m.events)
	matcher := reaction.NewMatcher(session, m.presses, m.opts.AckDuration, m.events, func() {
		m.logger.Info("round in progress, can't leave", "match", m.id)
		m.events.Send(NoticeEvent{Message: "Round in progress, can't leave"})
	})

	var g errgroup.Group
	g.Go(func() error {
		if out := driver.Run(roundCtx); out.Terminal() {
			outcomes <- out
		}
		return nil
	})
	g.Go(func() error {
		if out := matcher.Run(roundCtx); out.Terminal() {
			outcomes <- out
		}
		return nil
	})

	stopRound := func() {
		cancel()
		_ = g.Wait() //nolint:errcheck // round tasks report through outcomes
		matcher.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			stopRound()
			return reaction.Outcome{Score: session.Score()}, EndCancelled, false

		case out := <-outcomes:
			stopRound()
			return out, EndCompleted, true

		case msg, ok := <-m.inbox:
			if !ok {
				m.markPeerClosed()
				m.logger.Info("peer stream ended, playing on", "match", m.id)
				continue
			}
			m.handleMessage(msg)
		}
	}
}

// awaitFinish waits for the peer's score after the local round ended.
func (m *Match) awaitFinish(ctx context.Context) EndReason {
	timeout, stop := after(m.opts.FinishTimeout)
	defer stop()

	presses := m.presses
	for {
		select {
		case <-ctx.Done():
			return EndCancelled

		case <-timeout:
			return EndFinishTimeout

		case msg, ok := <-m.inbox:
			if !ok {
				m.markPeerClosed()
				return EndPeerClosed
			}
			if m.handleMessage(msg) {
				return EndCompleted
			}

		case evt, ok := <-presses:
			if !ok {
				presses = nil
				continue
			}
			if evt.IsLeave() {
				return EndLeft
			}
		}
	}
}

// handleMessage applies an inbound message and reports whether it
// resolved the match.
func (m *Match) handleMessage(msg Message) bool {
	switch msg := msg.(type) {
	case SeedMessage:
		if _, first := m.seeds.Receive(msg); !first {
			m.logger.Debug("duplicate seed ignored", "match", m.id, "seed", msg.Seed)
		}
		return false

	case FinishMessage:
		known := m.negotiator.RemoteKnown()
		resolved := m.negotiator.RemoteFinished(msg.FinalScore)
		if known {
			m.logger.Debug("duplicate finish ignored", "match", m.id, "score", msg.FinalScore)
			return false
		}
		m.logger.Info("peer finished", "match", m.id, "score", msg.FinalScore, "state", m.negotiator.State())
		if !resolved {
			m.events.Send(RemoteFinishedEvent{Score: msg.FinalScore})
		}
		return resolved

	default:
		m.logger.Warn("unexpected message", "match", m.id, "type", msg)
		return false
	}
}

func (m *Match) markPeerClosed() {
	m.peerClosed = true
	m.inbox = nil
}

// conclude fills in the outcome, persists it and emits the final event.
func (m *Match) conclude(res Result, reason EndReason) Result {
	res.Reason = reason
	if m.negotiator.RemoteKnown() {
		_, remote := m.negotiator.Scores()
		res.RemoteKnown = true
		res.RemoteScore = int(remote)
	}

	switch reason {
	case EndCompleted:
		res.Outcome, _ = m.negotiator.Result()
	case EndLeft, EndCancelled:
		res.Outcome = MatchAbandoned
	default:
		res.Outcome = MatchUnavailable
	}
	res.Duration = time.Since(m.started)

	m.logger.Info("match over",
		"match", m.id,
		"outcome", res.Outcome,
		"reason", res.Reason,
		"local", res.LocalScore,
		"remote", res.RemoteScore,
	)

	if m.saver != nil && res.Started {
		if err := m.saver.SaveMatchResult(res); err != nil {
			m.logger.Warn("could not save match result", "match", m.id, "error", err)
		}
	}

	m.events.Send(MatchOverEvent{Result: res})
	return res
}

// teardown closes the transport exactly once and ends the event stream.
func (m *Match) teardown() {
	m.closeOnce.Do(func() {
		if err := m.transport.Close(); err != nil {
			m.logger.Warn("transport close failed", "match", m.id, "error", err)
		}
	})
	m.events.Close()
}

// after returns a channel that fires once d elapses. A non-positive d
// never fires.
func after(d time.Duration) (<-chan time.Time, func()) {
	if d <= 0 {
		return nil, func() {}
	}
	t := time.NewTimer(d)
	return t.C, func() { t.Stop() }
}
