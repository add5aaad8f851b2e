package tui

import (
	"fmt"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// PrintBanner prints the player banner when stdout is a terminal.
func PrintBanner(version string) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return
	}
	p := termenv.ColorProfile()
	title := termenv.String("parley").Foreground(p.Color("5")).Bold()
	fmt.Printf("%s %s — pick options by number, ctrl+c to leave\n\n", title, version)
}
