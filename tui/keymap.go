package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keymap struct {
	quit, forceQuit, toggleLogs key.Binding
}

func newKeymap() *keymap {
	return &keymap{
		quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "stop"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "stop"),
		),
		toggleLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "last log line"),
		),
	}
}

func (k *keymap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggleLogs, k.quit}
}

func (k *keymap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
