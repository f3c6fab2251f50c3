package player

import (
	"fmt"
	"runtime"

	"github.com/plugtest/plugtest/stream"
)

// IINA plays streams through LaunchServices on macOS. IINA forwards
// --mpv-* options to its embedded mpv.
type IINA struct{}

func (IINA) Name() string   { return "iina" }
func (IINA) Binary() string { return "open" }

func (IINA) Command(h stream.Handoff) (string, []string, error) {
	if runtime.GOOS != "darwin" {
		return "", nil, fmt.Errorf("IINA is only supported on macOS")
	}

	return iinaCommand(h)
}

func iinaCommand(h stream.Handoff) (string, []string, error) {
	target, err := sanitizeMediaTarget(h.URL)
	if err != nil {
		return "", nil, fmt.Errorf("invalid media target: %w", err)
	}

	args := []string{"-a", "IINA", target, "--args"}

	if title := mediaTitle(h); title != "" {
		args = append(args, fmt.Sprintf("--mpv-force-media-title=%s", title))
	}

	if len(h.Headers) > 0 {
		args = append(args, fmt.Sprintf("--mpv-http-header-fields=%s", headerFields(h.Headers)))
	}

	return IINA{}.Binary(), args, nil
}
