package tui

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// NewRenderer returns a function that renders partner lines as markdown
// using glamour, auto-detecting the terminal background.
func NewRenderer() func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// FormatOption styles one selectable option line for the terminal.
func FormatOption(index int, label string) string {
	p := termenv.ColorProfile()
	num := termenv.String(fmt.Sprintf("[%d]", index)).Foreground(p.Color("6")).Bold()
	return fmt.Sprintf("  %s %s", num, label)
}

// FormatSpeaker styles a speaker name prefix.
func FormatSpeaker(name string) string {
	p := termenv.ColorProfile()
	return termenv.String(name + ":").Foreground(p.Color("5")).Bold().String()
}
