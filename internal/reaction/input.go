package reaction

// Button names the four physical game buttons.
// Button indices double as sequence symbols.
type Button = Symbol

const (
	ButtonStart  Button = iota // Green
	ButtonSelect               // Blue
	ButtonA                    // Yellow
	ButtonB                    // Red
)

// ButtonName returns a human-readable label for a button index.
func ButtonName(b Button) string {
	switch b {
	case ButtonStart:
		return "Start"
	case ButtonSelect:
		return "Select"
	case ButtonA:
		return "A"
	case ButtonB:
		return "B"
	default:
		return "Unknown"
	}
}

// PressKind distinguishes a short press from a held press.
type PressKind int

const (
	Press     PressKind = iota // Short press, drives the game
	LongPress                  // Held press, used for navigation
)

// String returns a human-readable name for the press kind.
func (k PressKind) String() string {
	switch k {
	case Press:
		return "press"
	case LongPress:
		return "long-press"
	default:
		return "unknown"
	}
}

// PressEvent is a single discrete button event from the input source.
// Button is an int because raw input may carry indices outside the alphabet.
type PressEvent struct {
	Button int
	Kind   PressKind
}

// Valid reports whether the event refers to one of the game buttons.
func (e PressEvent) Valid() bool {
	return e.Button >= 0 && e.Button < AlphabetSize
}

// IsLeave reports whether the event is the "leave" gesture (long-press B).
func (e PressEvent) IsLeave() bool {
	return e.Kind == LongPress && e.Button == int(ButtonB)
}
