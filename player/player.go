// Package player hands a resolved stream to an external media player.
package player

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/plugtest/plugtest/key"
	"github.com/plugtest/plugtest/log"
	"github.com/plugtest/plugtest/stream"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

// Player builds the command line for a handoff and starts the player.
type Player interface {
	// Name of the player as used in the config.
	Name() string
	// Binary that must be in PATH.
	Binary() string
	// Command returns the binary and arguments that would play h.
	Command(h stream.Handoff) (string, []string, error)
}

var available = map[string]Player{
	"mpv":  MPV{},
	"iina": IINA{},
}

// Available returns the names of the supported players, sorted.
func Available() []string {
	names := lo.Keys(available)
	slices.Sort(names)
	return names
}

// Get returns the player registered under name.
func Get(name string) (Player, error) {
	p, ok := available[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown player %q, available: %s", name, strings.Join(Available(), ", "))
	}

	return p, nil
}

// Default returns the player configured by player.default.
func Default() (Player, error) {
	return Get(viper.GetString(key.Player))
}

// Session is a running player process.
type Session struct {
	cmd    *exec.Cmd
	exited chan struct{}
}

// Wait returns a channel that is closed when the player exits.
func (s *Session) Wait() <-chan struct{} {
	return s.exited
}

// Running reports whether the player process is still alive.
func (s *Session) Running() bool {
	select {
	case <-s.exited:
		return false
	default:
		return true
	}
}

// Close kills the player and its process group.
func (s *Session) Close() error {
	if !s.Running() {
		return nil
	}

	return killProcess(s.cmd)
}

// Launch starts p detached from the terminal and returns immediately.
func Launch(p Player, h stream.Handoff) (*Session, error) {
	name, args, err := p.Command(h)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(name, args...)

	// own process group so ctrl+c in the shell does not reach the player
	cmd.SysProcAttr = sysProcAttr()
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", p.Name(), err)
	}

	log.Infof("launched %s for %s", p.Name(), h.URL)

	s := &Session{cmd: cmd, exited: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(s.exited)
	}()

	return s, nil
}

// headerFields renders headers in the form mpv expects for
// --http-header-fields. Keys are sorted so the output is stable.
func headerFields(headers map[string]string) string {
	keys := lo.Keys(headers)
	slices.Sort(keys)

	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		// mpv splits the list on commas
		v := strings.ReplaceAll(headers[k], ",", "%2C")
		fields = append(fields, fmt.Sprintf("%s: %s", k, v))
	}

	return strings.Join(fields, ",")
}
