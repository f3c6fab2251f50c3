// Package candidate turns loosely specified user input into ordered lists of absolute URLs
// to try, most likely correct first.
//
// Every list is de-duplicated on the un-busted URL, and each URL is immediately followed by its
// cache-busted twin so a stale intermediate cache gets a second chance before the next guess.
package candidate

import (
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/plugtest/plugtest/constant"
	"github.com/samber/lo"
)

// Overridable in tests.
var (
	now   = time.Now
	nonce = func() string { return strconv.FormatUint(rand.Uint64(), 36) }
)

// IsAbsolute reports whether s is an absolute http(s) URL.
func IsAbsolute(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Normalize trims spaces and assumes https for scheme-less input.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	return s
}

// Strip normalizes raw and removes its query string and fragment.
func Strip(raw string) string {
	s := Normalize(raw)
	if s == "" {
		return ""
	}

	u, err := url.Parse(s)
	if err != nil {
		if i := strings.IndexAny(s, "?#"); i >= 0 {
			s = s[:i]
		}
		return s
	}

	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// RepoBase returns the repository root of a manifest or repository URL: the stripped URL
// without a trailing /manifest.json and without trailing slashes.
func RepoBase(raw string) string {
	s := strings.TrimRight(Strip(raw), "/")
	s = strings.TrimSuffix(s, "/"+constant.ManifestFile)
	return strings.TrimRight(s, "/")
}

// Join appends rel to base with exactly one "/" between them. Absolute rel is returned as is.
func Join(base, rel string) string {
	rel = strings.TrimSpace(rel)
	if IsAbsolute(rel) {
		return rel
	}

	for strings.HasPrefix(rel, "./") {
		rel = strings.TrimPrefix(rel, "./")
	}
	rel = strings.TrimLeft(rel, "/")
	base = strings.TrimRight(strings.TrimSpace(base), "/")

	switch {
	case rel == "":
		return base
	case base == "":
		return rel
	default:
		return base + "/" + rel
	}
}

// CacheBust appends a timestamp and a random nonce as query parameters.
func CacheBust(u string) string {
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "t=" + strconv.FormatInt(now().UnixMilli(), 10) + "&v=" + nonce()
}

// expand de-duplicates plain URLs and interleaves each with its cache-busted twin.
func expand(plain ...string) []string {
	plain = lo.Uniq(lo.Compact(plain))

	out := make([]string, 0, len(plain)*2)
	for _, p := range plain {
		out = append(out, p, CacheBust(p))
	}
	return lo.Uniq(out)
}

// ManifestCandidates resolves a manifest or repository URL into at most four candidates:
// the input itself when it already names a manifest.json, then base/manifest.json, each
// plain and cache-busted. Empty input yields an empty list.
func ManifestCandidates(raw string) []string {
	stripped := Strip(raw)
	if stripped == "" {
		return nil
	}

	var plain []string
	if u, err := url.Parse(stripped); err == nil && strings.HasSuffix(u.Path, "/"+constant.ManifestFile) {
		plain = append(plain, stripped)
	}

	if base := RepoBase(stripped); base != "" {
		plain = append(plain, Join(base, constant.ManifestFile))
	}

	return expand(plain...)
}

// ScraperCandidates resolves a manifest entry's filename against the repository base.
// An absolute filename is used directly and never prefixed with the base.
func ScraperCandidates(base, filename string) []string {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil
	}

	if IsAbsolute(filename) {
		return expand(filename)
	}

	return expand(Join(base, filename))
}

// ScriptCandidates resolves a direct script URL for a single-script test.
func ScriptCandidates(raw string) []string {
	s := Normalize(raw)
	if s == "" {
		return nil
	}
	return expand(s)
}
