// Package manifest parses repository manifests: the JSON document listing a repository's
// scraper scripts and where to find them.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/plugtest/plugtest/candidate"
	"github.com/plugtest/plugtest/fetch"
	"github.com/samber/lo"
)

// ScraperDescriptor is one entry of a manifest's scrapers list.
type ScraperDescriptor struct {
	ID       string `json:"id" jsonschema:"description=Unique identifier within the manifest"`
	Name     string `json:"name,omitempty"`
	Filename string `json:"filename,omitempty" jsonschema:"description=Relative path or absolute URL of the script"`
	Enabled  *bool  `json:"enabled,omitempty"`

	// Extra holds fields this tool does not interpret.
	Extra map[string]json.RawMessage `json:"-"`
}

// IsEnabled reports whether the scraper should be tested. Absent means enabled.
func (d ScraperDescriptor) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// DisplayName is the scraper name, falling back to its id.
func (d ScraperDescriptor) DisplayName() string {
	if name := strings.TrimSpace(d.Name); name != "" {
		return name
	}
	return d.ID
}

func (d *ScraperDescriptor) UnmarshalJSON(data []byte) error {
	type plain ScraperDescriptor
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	for _, known := range []string{"id", "name", "filename", "enabled"} {
		delete(all, known)
	}

	if len(all) > 0 {
		p.Extra = all
	}

	*d = ScraperDescriptor(p)
	return nil
}

// Manifest is a parsed repository manifest.
type Manifest struct {
	Name     string              `json:"name,omitempty"`
	Scrapers []ScraperDescriptor `json:"scrapers"`

	// Warnings collects non-fatal problems found while parsing.
	Warnings []string `json:"-"`
}

// Parse decodes and validates a manifest. Scrapers without an id are an error; duplicate ids
// keep the first occurrence and are reported in Warnings.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "parse manifest")
	}

	seen := make(map[string]struct{}, len(m.Scrapers))
	scrapers := make([]ScraperDescriptor, 0, len(m.Scrapers))

	for i, s := range m.Scrapers {
		s.ID = strings.TrimSpace(s.ID)
		if s.ID == "" {
			return nil, fmt.Errorf("manifest scraper #%d has no id", i+1)
		}

		if _, dup := seen[s.ID]; dup {
			m.Warnings = append(m.Warnings, fmt.Sprintf("duplicate scraper id %q ignored", s.ID))
			continue
		}

		seen[s.ID] = struct{}{}
		scrapers = append(scrapers, s)
	}

	m.Scrapers = scrapers
	return &m, nil
}

// Get returns the scraper with the given id.
func (m *Manifest) Get(id string) (ScraperDescriptor, bool) {
	return lo.Find(m.Scrapers, func(s ScraperDescriptor) bool {
		return s.ID == id
	})
}

// IDs lists scraper ids in manifest order.
func (m *Manifest) IDs() []string {
	return lo.Map(m.Scrapers, func(s ScraperDescriptor, _ int) string {
		return s.ID
	})
}

// Loaded is a manifest together with where it was found.
type Loaded struct {
	Manifest *Manifest
	UsedURL  string
	// Base is the repository base of UsedURL, against which relative filenames resolve.
	Base string
}

// ScriptCandidates resolves a scraper's filename against the repository base.
func (l *Loaded) ScriptCandidates(d ScraperDescriptor) []string {
	return candidate.ScraperCandidates(l.Base, d.Filename)
}

// Load resolves raw into manifest candidates and fetches the first one that parses.
// A body that fails to parse is treated as a failed candidate.
func Load(ctx context.Context, fetcher *fetch.Fetcher, raw string) (*Loaded, error) {
	var parsed *Manifest

	resp, err := fetcher.Fetch(ctx, candidate.ManifestCandidates(raw), func(body []byte) error {
		m, err := Parse(body)
		if err != nil {
			return err
		}
		parsed = m
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "load manifest")
	}

	return &Loaded{
		Manifest: parsed,
		UsedURL:  resp.UsedURL,
		Base:     candidate.RepoBase(resp.UsedURL),
	}, nil
}
