// Package stream defines the playable stream objects returned by plugins.
package stream

import (
	"regexp"
	"strings"

	"github.com/cehbz/torrentname"
	"github.com/samber/lo"
)

// Stream represents one playable stream discovered by a plugin.
type Stream struct {
	// Direct URL to the stream.
	URL string `json:"url"`
	// Provider-facing label, e.g. "ServerA 1080p".
	Name string `json:"name,omitempty"`
	// Release title or description.
	Title string `json:"title,omitempty"`
	// Quality label reported by the plugin, if any.
	Quality string `json:"quality,omitempty"`
	// HTTP headers required to stream.
	Headers map[string]string `json:"headers,omitempty"`
}

// String returns the name, title or URL for display.
func (s *Stream) String() string {
	return lo.CoalesceOrEmpty(strings.TrimSpace(s.Name), strings.TrimSpace(s.Title), s.URL)
}

var qualityPattern = regexp.MustCompile(`(?i)(\d{3,4})p\b`)

// InferQuality returns the quality label for the stream: the explicit one when set,
// else the last "<digits>p" token found in the title or name, else whatever a release
// name parser can make of the title. Returns "" when nothing matches.
func (s *Stream) InferQuality() string {
	if q := strings.TrimSpace(s.Quality); q != "" {
		return q
	}

	for _, text := range []string{s.Title, s.Name} {
		if q := trailingQuality(text); q != "" {
			return q
		}
	}

	for _, text := range []string{s.Title, s.Name} {
		if text == "" {
			continue
		}
		if parsed := torrentname.Parse(text); parsed != nil && parsed.Resolution != "" && parsed.Resolution != "?" {
			return strings.ToLower(parsed.Resolution)
		}
	}

	return ""
}

func trailingQuality(text string) string {
	matches := qualityPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1][1] + "p"
}

// Handoff is what an external player needs to start a stream.
type Handoff struct {
	URL     string            `json:"url"`
	Title   string            `json:"title"`
	Quality string            `json:"quality,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Handoff builds the player handoff for this stream.
func (s *Stream) Handoff() Handoff {
	return Handoff{
		URL:     s.URL,
		Title:   s.String(),
		Quality: s.InferQuality(),
		Headers: lo.Assign(s.Headers),
	}
}
