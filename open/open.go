// Package open hands files and URLs to the system's default handler.
package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/plugtest/plugtest/constant"
)

// Start opens input with the default handler without waiting for it.
func Start(input string) error {
	name, args, ok := command(runtime.GOOS, input)
	if !ok {
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}

	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("open %s: %w", input, err)
	}

	return nil
}

func command(goos, input string) (string, []string, bool) {
	switch goos {
	case constant.Windows:
		rundll := filepath.Join(os.Getenv("SYSTEMROOT"), "System32", "rundll32.exe")
		return rundll, []string{"url.dll,FileProtocolHandler", input}, true
	case constant.Darwin:
		return "open", []string{input}, true
	case constant.Linux:
		return "xdg-open", []string{input}, true
	default:
		return "", nil, false
	}
}
