package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/reaction-duel/internal/reaction"
)

// KeyMapper translates Bubble Tea key messages to button events.
// This centralizes key bindings and makes them testable.
//
// Terminals report no key-up events, so the held "leave" gesture on B is
// bound to its own keys instead of being timed.
type KeyMapper struct {
	Buttons [reaction.AlphabetSize]key.Binding
	Leave   key.Binding
	Quit    key.Binding
}

// NewKeyMapper creates a new key mapper with default bindings.
func NewKeyMapper() *KeyMapper {
	return &KeyMapper{
		Buttons: [reaction.AlphabetSize]key.Binding{
			reaction.ButtonStart: key.NewBinding(
				key.WithKeys("1", "a"),
				key.WithHelp("1/a", "start"),
			),
			reaction.ButtonSelect: key.NewBinding(
				key.WithKeys("2", "s"),
				key.WithHelp("2/s", "select"),
			),
			reaction.ButtonA: key.NewBinding(
				key.WithKeys("3", "d"),
				key.WithHelp("3/d", "A"),
			),
			reaction.ButtonB: key.NewBinding(
				key.WithKeys("4", "f"),
				key.WithHelp("4/f", "B"),
			),
		},
		Leave: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "hold B (leave)"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
	}
}

// MapKey translates a key message to a button event.
// ok is false for keys that are not bound to a button.
func (km *KeyMapper) MapKey(msg tea.KeyMsg) (evt reaction.PressEvent, ok bool, isQuit bool) {
	if key.Matches(msg, km.Quit) {
		return reaction.PressEvent{}, false, true
	}
	if key.Matches(msg, km.Leave) {
		return reaction.PressEvent{Button: int(reaction.ButtonB), Kind: reaction.LongPress}, true, false
	}
	for b, binding := range km.Buttons {
		if key.Matches(msg, binding) {
			return reaction.PressEvent{Button: b, Kind: reaction.Press}, true, false
		}
	}
	return reaction.PressEvent{}, false, false
}

// ShortHelp returns key bindings for the short help view.
func (km *KeyMapper) ShortHelp() []key.Binding {
	bindings := make([]key.Binding, 0, len(km.Buttons)+2)
	bindings = append(bindings, km.Buttons[:]...)
	return append(bindings, km.Leave, km.Quit)
}

// FullHelp returns key bindings for the full help view.
func (km *KeyMapper) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		km.Buttons[:],
		{km.Leave, km.Quit},
	}
}

// MenuAction represents a menu-specific action derived from input.
type MenuAction int

const (
	MenuActionNone MenuAction = iota
	MenuActionUp
	MenuActionDown
	MenuActionSelect
	MenuActionBack
	MenuActionQuit
)

// MapKeyToMenuAction translates a key to a menu action.
func (km *KeyMapper) MapKeyToMenuAction(msg tea.KeyMsg) MenuAction {
	switch msg.String() {
	case "ctrl+c", "q":
		return MenuActionQuit
	case "w", "up", "k": // vim-style k for up
		return MenuActionUp
	case "s", "down", "j": // vim-style j for down
		return MenuActionDown
	case "enter", " ":
		return MenuActionSelect
	case "b", "esc":
		return MenuActionBack
	}

	return MenuActionNone
}
