// Package tui renders the live board of a repository run.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/plugtest/plugtest/tester"
)

// Options configure the live board.
type Options struct {
	// Title is shown above the rows, usually the manifest name.
	Title string
	Board *tester.Board
	// Done is closed once the batch finished.
	Done <-chan struct{}
	// Cancel stops the batch when the user quits early.
	Cancel context.CancelFunc
}

// Run shows the board until the batch finishes or the user quits.
func Run(options Options) error {
	b := newBubble(options)
	defer b.unsubscribe()

	_, err := tea.NewProgram(b).Run()
	return err
}
