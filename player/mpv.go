package player

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/plugtest/plugtest/stream"
)

// MPV plays streams with the mpv binary found in PATH.
type MPV struct{}

func (MPV) Name() string   { return "mpv" }
func (MPV) Binary() string { return "mpv" }

// Command does not pass --vo, --profile or --hwdec so the user's mpv.conf applies.
func (MPV) Command(h stream.Handoff) (string, []string, error) {
	target, err := sanitizeMediaTarget(h.URL)
	if err != nil {
		return "", nil, fmt.Errorf("invalid media target: %w", err)
	}

	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--force-window=yes",
	}

	if title := mediaTitle(h); title != "" {
		args = append(args,
			fmt.Sprintf("--force-media-title=%s", title),
			fmt.Sprintf("--title=%s", title),
		)
	}

	if len(h.Headers) > 0 {
		args = append(args, fmt.Sprintf("--http-header-fields=%s", headerFields(h.Headers)))
	}

	// end of options, the target can never be read as a flag
	args = append(args, "--", target)

	return MPV{}.Binary(), args, nil
}

// mediaTitle joins title and quality, e.g. "Movie [1080p]".
func mediaTitle(h stream.Handoff) string {
	title := sanitizeTitle(h.Title)
	quality := sanitizeTitle(h.Quality)

	switch {
	case title == "":
		return quality
	case quality == "":
		return title
	default:
		return fmt.Sprintf("%s [%s]", title, quality)
	}
}

// sanitizeMediaTarget rejects anything a plugin could use to inject player
// flags or point the player at a non-network resource.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r\t") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	u, err := url.Parse(l)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return "", fmt.Errorf("missing host in %q", l)
		}
		return l, nil
	case "":
		return "", fmt.Errorf("missing scheme in %q", l)
	default:
		return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
	}
}

func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
