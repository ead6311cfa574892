package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/reaction-duel/internal/reaction"
)

// buttonColors maps each button to its lamp color (dim, lit).
var buttonColors = [reaction.AlphabetSize][2]lipgloss.Color{
	reaction.ButtonStart:  {"22", "10"}, // Green
	reaction.ButtonSelect: {"18", "12"}, // Blue
	reaction.ButtonA:      {"58", "11"}, // Yellow
	reaction.ButtonB:      {"52", "9"},  // Red
}

const (
	padWidth  = 9
	padHeight = 3
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")).
			Italic(true)
	winStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10"))
	loseStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("9"))
)

// padStyle returns the style for one button pad.
func padStyle(b reaction.Button, lit bool) lipgloss.Style {
	colors := buttonColors[b]
	bg := colors[0]
	border := lipgloss.NormalBorder()
	if lit {
		bg = colors[1]
		border = lipgloss.ThickBorder()
	}
	return lipgloss.NewStyle().
		Width(padWidth).
		Height(padHeight).
		Align(lipgloss.Center, lipgloss.Center).
		Background(bg).
		Foreground(lipgloss.Color("0")).
		Border(border).
		BorderForeground(colors[1])
}

// RenderBoard draws the four button pads side by side. A pad is lit when
// either the sequence or a press acknowledgement lights it.
func RenderBoard(lit [reaction.AlphabetSize]bool, km *KeyMapper) string {
	pads := make([]string, 0, reaction.AlphabetSize*2)
	for i := range reaction.AlphabetSize {
		b := reaction.Button(i)
		label := reaction.ButtonName(b)
		if km != nil {
			label += "\n" + km.Buttons[i].Help().Key
		}
		if i > 0 {
			pads = append(pads, " ")
		}
		pads = append(pads, padStyle(b, lit[i]).Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, pads...)
}

// centerText centers text within given width.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	padding := (width - w) / 2
	return strings.Repeat(" ", padding) + text
}

// centerBlock centers a multi-line block within given width.
func centerBlock(block string, width int) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, block)
}
