package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Styles for the validation report and session summaries. Applied only
// when stdout is a terminal so piped output stays plain.
var (
	stylePass     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleFail     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleWarn     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleInfo     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	styleDim      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleEmphasis = lipgloss.NewStyle().Bold(true)
)

// stdoutIsTerminal is swapped out by tests.
var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// styled renders text with the style when stdout is a terminal.
func styled(s lipgloss.Style, text string) string {
	if !stdoutIsTerminal() {
		return text
	}
	return s.Render(text)
}
