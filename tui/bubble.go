package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/plugtest/plugtest/color"
	"github.com/plugtest/plugtest/style"
	"github.com/plugtest/plugtest/tester"
)

type (
	boardUpdateMsg struct{}
	batchDoneMsg   struct{}
)

type bubble struct {
	title       string
	board       *tester.Board
	updates     <-chan tester.Update
	unsubscribe func()
	done        <-chan struct{}
	cancel      context.CancelFunc

	spinner  spinner.Model
	keymap   *keymap
	help     help.Model
	rows     []tester.Result
	showLogs bool

	finished  bool
	cancelled bool
	width     int
	started   time.Time
}

func newBubble(options Options) *bubble {
	updates, unsubscribe := options.Board.Subscribe()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = style.New().Foreground(color.Running)

	cancel := options.Cancel
	if cancel == nil {
		cancel = func() {}
	}

	return &bubble{
		title:       options.Title,
		board:       options.Board,
		updates:     updates,
		unsubscribe: unsubscribe,
		done:        options.Done,
		cancel:      cancel,
		spinner:     s,
		keymap:      newKeymap(),
		help:        help.New(),
		rows:        options.Board.Snapshot(),
		showLogs:    true,
		width:       80,
		started:     time.Now(),
	}
}

func (b *bubble) Init() tea.Cmd {
	return tea.Batch(b.spinner.Tick, b.waitForUpdate(), b.waitForDone())
}

func (b *bubble) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-b.updates; !ok {
			return nil
		}
		return boardUpdateMsg{}
	}
}

func (b *bubble) waitForDone() tea.Cmd {
	return func() tea.Msg {
		if b.done != nil {
			<-b.done
		}
		return batchDoneMsg{}
	}
}

func (b *bubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.help.Width = msg.Width
		return b, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, b.keymap.quit), key.Matches(msg, b.keymap.forceQuit):
			b.cancelled = true
			b.cancel()
			return b, tea.Quit
		case key.Matches(msg, b.keymap.toggleLogs):
			b.showLogs = !b.showLogs
		}
		return b, nil

	case boardUpdateMsg:
		b.rows = b.board.Snapshot()
		return b, b.waitForUpdate()

	case batchDoneMsg:
		b.rows = b.board.Snapshot()
		b.finished = true
		return b, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinner, cmd = b.spinner.Update(msg)
		return b, cmd
	}

	return b, nil
}
