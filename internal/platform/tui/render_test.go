package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/reaction-duel/internal/reaction"
)

func TestRenderBoardLabels(t *testing.T) {
	board := RenderBoard([reaction.AlphabetSize]bool{}, NewKeyMapper())
	for _, want := range []string{"Start", "Select", "A", "B", "1/a", "4/f"} {
		if !strings.Contains(board, want) {
			t.Errorf("board missing %q:\n%s", want, board)
		}
	}
}

func TestRenderBoardSizeStable(t *testing.T) {
	dark := RenderBoard([reaction.AlphabetSize]bool{}, nil)
	lit := RenderBoard([reaction.AlphabetSize]bool{true, false, true, false}, nil)
	if lipgloss.Width(dark) != lipgloss.Width(lit) || lipgloss.Height(dark) != lipgloss.Height(lit) {
		t.Error("lighting a pad should not change the board size")
	}
}

func TestCenterText(t *testing.T) {
	if got := centerText("ab", 6); got != "  ab" {
		t.Errorf("centerText() = %q, expected %q", got, "  ab")
	}
	if got := centerText("abcdef", 4); got != "abcdef" {
		t.Errorf("centerText() = %q, expected text unchanged", got)
	}
}
