package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/reaction-duel/internal/duel"
	"github.com/vovakirdan/reaction-duel/internal/reaction"
	"github.com/vovakirdan/reaction-duel/internal/storage"
)

// DuelPhase is what the duel screen is currently showing.
type DuelPhase int

const (
	PhaseWaitingPeer   DuelPhase = iota // Seed sent, opponent not heard from
	PhaseGetReady                       // Shared seed known, start delay running
	PhasePlaying                        // Symbols are being presented
	PhaseWaitingResult                  // Local round over, opponent still playing
	PhaseOver                           // Result known
)

// animationRate drives the waiting animation, in frames per second.
const animationRate = 4

// matchEventMsg wraps an event from a running match. The stream tags the
// message so a screen ignores events from an earlier match.
type matchEventMsg struct {
	stream <-chan duel.Event
	evt    duel.Event
}

// matchStreamClosedMsg is sent once a match event stream ends.
type matchStreamClosedMsg struct {
	stream <-chan duel.Event
}

// waitForMatchEvent returns a command that waits for the next match event.
func waitForMatchEvent(events <-chan duel.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-events
		if !ok {
			return matchStreamClosedMsg{stream: events}
		}
		return matchEventMsg{stream: events, evt: evt}
	}
}

// DuelModel renders a running duel and forwards key presses to it.
// The match itself runs elsewhere; this model only consumes its events.
type DuelModel struct {
	events    <-chan duel.Event
	presses   chan<- reaction.PressEvent
	keyMapper *KeyMapper
	help      help.Model

	player     string
	opponent   string
	width      int
	height     int
	standalone bool // Quit the program when the end screen closes

	phase      DuelPhase
	localSeed  uint32
	sharedSeed uint32
	length     int
	step       int
	stepLit    [reaction.AlphabetSize]bool
	ackLit     [reaction.AlphabetSize]bool
	score      int
	remoteDone bool
	remote     uint32
	round      reaction.Outcome
	notice     string
	result     *duel.Result
	frame      int

	streamClosed bool
	closed       bool
	quitting     bool
}

// NewDuelModel creates the duel screen for a match.
func NewDuelModel(
	events <-chan duel.Event,
	presses chan<- reaction.PressEvent,
	player, opponent string,
	width, height int,
) DuelModel {
	h := help.New()
	h.Width = width
	return DuelModel{
		events:    events,
		presses:   presses,
		keyMapper: NewKeyMapper(),
		help:      h,
		player:    player,
		opponent:  opponent,
		width:     width,
		height:    height,
	}
}

// Standalone makes the model quit the program when the end screen closes.
func (m DuelModel) Standalone() DuelModel {
	m.standalone = true
	return m
}

// Init starts listening for match events.
func (m DuelModel) Init() tea.Cmd {
	return tea.Batch(waitForMatchEvent(m.events), tickCmd(animationRate))
}

// Update handles messages and updates the model state.
func (m DuelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		m.frame++
		if m.streamClosed {
			return m, nil
		}
		return m, tickCmd(animationRate)

	case matchEventMsg:
		if msg.stream != m.events {
			return m, nil
		}
		m = m.applyEvent(msg.evt)
		return m, waitForMatchEvent(m.events)

	case matchStreamClosedMsg:
		if msg.stream == m.events {
			m.streamClosed = true
		}
		return m, nil
	}

	return m, nil
}

// applyEvent folds one match event into the screen state.
func (m DuelModel) applyEvent(evt duel.Event) DuelModel {
	switch e := evt.(type) {
	case duel.WaitingForPeerEvent:
		m.phase = PhaseWaitingPeer
		m.localSeed = e.LocalSeed

	case duel.RoundStartingEvent:
		m.phase = PhaseGetReady
		m.sharedSeed = e.SharedSeed
		m.length = e.Length

	case duel.StepEvent:
		m.phase = PhasePlaying
		if int(e.Symbol) < len(m.stepLit) {
			m.stepLit[e.Symbol] = e.Lit
		}
		if e.Lit {
			m.step = e.Step + 1
		}

	case duel.PressAckEvent:
		if int(e.Button) < len(m.ackLit) {
			m.ackLit[e.Button] = e.Lit
		}

	case duel.ScoreEvent:
		m.score = e.Score

	case duel.RemoteFinishedEvent:
		m.remoteDone = true
		m.remote = e.Score

	case duel.RoundOverEvent:
		m.round = e.Outcome
		m.score = e.Outcome.Score
		m.stepLit = [reaction.AlphabetSize]bool{}

	case duel.WaitingEvent:
		m.phase = PhaseWaitingResult
		m.score = e.LocalScore

	case duel.NoticeEvent:
		m.notice = e.Message

	case duel.MatchOverEvent:
		res := e.Result
		m.result = &res
		m.phase = PhaseOver
		m.notice = ""
		m.stepLit = [reaction.AlphabetSize]bool{}
		m.ackLit = [reaction.AlphabetSize]bool{}
	}
	return m
}

// handleKey processes keyboard input.
func (m DuelModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	evt, ok, isQuit := m.keyMapper.MapKey(msg)
	if isQuit {
		m.quitting = true
		return m, tea.Quit
	}

	if m.phase == PhaseOver {
		if (ok && evt.IsLeave()) || msg.String() == "enter" {
			m.closed = true
			if m.standalone {
				return m, tea.Quit
			}
		}
		return m, nil
	}

	if msg.String() == "?" {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if ok {
		// Never block the UI on a slow match loop
		select {
		case m.presses <- evt:
		default:
		}
	}
	return m, nil
}

// View renders the current state to a string for display.
func (m DuelModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(centerText(m.header(), m.width)))
	b.WriteString("\n\n")

	switch m.phase {
	case PhaseWaitingPeer:
		b.WriteString(centerText("Waiting for opponent"+m.dots(), m.width))
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render(centerText(fmt.Sprintf("seed %d", m.localSeed), m.width)))
		b.WriteString("\n\n")
		b.WriteString(centerBlock(RenderBoard(m.lit(), m.keyMapper), m.width))

	case PhaseGetReady:
		b.WriteString(centerText("Get ready!", m.width))
		b.WriteString("\n\n")
		b.WriteString(centerBlock(RenderBoard(m.lit(), m.keyMapper), m.width))

	case PhasePlaying:
		b.WriteString(centerText(fmt.Sprintf("Step %d/%d    Score %d", m.step, m.length, m.score), m.width))
		b.WriteString("\n\n")
		b.WriteString(centerBlock(RenderBoard(m.lit(), m.keyMapper), m.width))

	case PhaseWaitingResult:
		b.WriteString(centerText("Waiting"+m.dots(), m.width))
		b.WriteString("\n\n")
		b.WriteString(centerText(fmt.Sprintf("Your score: %d", m.score), m.width))
		if reason := m.round.Reason.String(); reason != "" {
			b.WriteString("\n")
			b.WriteString(dimStyle.Render(centerText(reason, m.width)))
		}
		b.WriteString("\n\n")
		b.WriteString(centerBlock(RenderBoard(m.lit(), m.keyMapper), m.width))

	case PhaseOver:
		b.WriteString(m.viewResult())
	}

	if m.remoteDone && m.phase != PhaseOver {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render(centerText(fmt.Sprintf("%s finished with %d", m.opponentName(), m.remote), m.width)))
	}

	if m.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(noticeStyle.Render(centerText(m.notice, m.width)))
	}

	b.WriteString("\n\n")
	if m.phase == PhaseOver {
		b.WriteString(dimStyle.Render(centerText("Enter/Esc: Close  |  Q: Quit", m.width)))
	} else {
		b.WriteString(centerText(m.help.View(m.keyMapper), m.width))
	}

	return b.String()
}

func (m DuelModel) viewResult() string {
	var b strings.Builder
	res := m.result

	headline := res.Outcome.Headline()
	switch res.Outcome {
	case duel.MatchWon:
		headline = winStyle.Render(headline)
	case duel.MatchLost:
		headline = loseStyle.Render(headline)
	default:
		headline = titleStyle.Render(headline)
	}
	b.WriteString(centerText(headline, m.width))
	b.WriteString("\n\n")

	remote := "?"
	if res.RemoteKnown {
		remote = fmt.Sprintf("%d", res.RemoteScore)
	}
	b.WriteString(centerText(fmt.Sprintf("You: %d    %s: %s", res.LocalScore, m.opponentName(), remote), m.width))

	if reason := res.Round.Reason.String(); reason != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(centerText(reason, m.width)))
	}
	if res.Reason != duel.EndCompleted {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(centerText(fmt.Sprintf("(%s)", res.Reason), m.width)))
	}

	return b.String()
}

func (m DuelModel) header() string {
	title := fmt.Sprintf("%s vs %s", m.playerName(), m.opponentName())
	if m.sharedSeed != 0 {
		title += fmt.Sprintf("  ·  seed %d", m.sharedSeed)
	}
	return title
}

func (m DuelModel) playerName() string {
	if m.player == "" {
		return "You"
	}
	return m.player
}

func (m DuelModel) opponentName() string {
	if m.opponent == "" {
		return "Opponent"
	}
	return m.opponent
}

// lit merges sequence and acknowledgement highlights.
func (m DuelModel) lit() [reaction.AlphabetSize]bool {
	var lit [reaction.AlphabetSize]bool
	for i := range lit {
		lit[i] = m.stepLit[i] || m.ackLit[i]
	}
	return lit
}

func (m DuelModel) dots() string {
	n := m.frame % 4
	return strings.Repeat(".", n) + strings.Repeat(" ", 3-n)
}

// Phase returns what the screen is showing.
func (m DuelModel) Phase() DuelPhase {
	return m.phase
}

// Result returns the final result once the match is over.
func (m DuelModel) Result() (duel.Result, bool) {
	if m.result == nil {
		return duel.Result{}, false
	}
	return *m.result, true
}

// Closed reports whether the player dismissed the end screen.
func (m DuelModel) Closed() bool {
	return m.closed
}

// IsQuitting returns true if user requested to quit entirely.
func (m DuelModel) IsQuitting() bool {
	return m.quitting
}

// DuelSetup describes a duel played directly from this terminal.
type DuelSetup struct {
	MatchID   duel.MatchID // Generated when empty
	Player    string
	Opponent  string
	Transport duel.Transport
	Options   duel.Options
	Store     *storage.Store // nil disables history
	Logger    *log.Logger
}

// RunDuel plays one match in the terminal and returns its result.
// The match is cancelled if the player quits before it ends.
func RunDuel(parent context.Context, setup DuelSetup) (duel.Result, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	presses := make(chan reaction.PressEvent, pressBuffer)
	match := duel.NewMatch(setup.MatchID, setup.Player, setup.Opponent, setup.Transport, presses, setup.Options, setup.Logger)
	if setup.Store != nil {
		match.SetResultSaver(setup.Store)
	}

	done := make(chan matchDoneMsg, 1)
	go func() {
		res, err := match.Run(ctx)
		done <- matchDoneMsg{id: match.ID(), result: res, err: err}
	}()

	model := NewDuelModel(match.Events(), presses, setup.Player, setup.Opponent, 0, 0).Standalone()
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, runErr := p.Run()
	cancel()
	out := <-done

	// A killed program after the caller's ctx ended is not an error
	if runErr != nil && parent.Err() == nil {
		return out.result, fmt.Errorf("tui: %w", runErr)
	}
	return out.result, nil
}
