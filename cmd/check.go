package cmd

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/plugtest/plugtest/color"
	"github.com/plugtest/plugtest/icon"
	"github.com/plugtest/plugtest/player"
	"github.com/plugtest/plugtest/style"
)

// checkPlayer returns the configured player once its binary is known to be in PATH.
func checkPlayer() (player.Player, error) {
	p, err := player.Default()
	if err != nil {
		return nil, err
	}

	if _, err := exec.LookPath(p.Binary()); err != nil {
		printMissingDependencyError(p.Binary())
		return nil, fmt.Errorf("%s not found in PATH", p.Binary())
	}

	return p, nil
}

func printMissingDependencyError(dep string) {
	var installCmd string
	switch runtime.GOOS {
	case "darwin":
		installCmd = "brew install " + dep
	case "linux":
		installCmd = "sudo apt install " + dep
	case "windows":
		installCmd = "scoop install " + dep
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(color.HiRed).Render(fmt.Sprintf("%s Missing Dependency", icon.Get(icon.Fail)))
	body := fmt.Sprintf("The player '%s' was not found in your PATH.", dep)

	suggestion := ""
	if installCmd != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(color.Yellow).Bold(true).Render(installCmd))
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
