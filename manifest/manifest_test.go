package manifest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/plugtest/plugtest/fetch"
	. "github.com/smartystreets/goconvey/convey"
)

// bustedOnlyDoer fails every request until one carries a cache-busting query.
type bustedOnlyDoer struct {
	mu    sync.Mutex
	body  string
	calls []string
}

func (d *bustedOnlyDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls = append(d.calls, req.URL.String())
	if req.URL.Query().Get("t") == "" {
		return nil, errors.New("stale edge cache")
	}

	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(d.body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func TestParse(t *testing.T) {
	Convey("Given a manifest with extra fields", t, func() {
		m, err := Parse([]byte(`{
			"name": "Demo",
			"scrapers": [
				{"id": "a", "name": "Alpha", "filename": "a.lua", "enabled": true, "version": "1.0"},
				{"id": "b", "filename": "b.lua", "enabled": false},
				{"id": "c"}
			]
		}`))

		Convey("Then it decodes every scraper in order", func() {
			So(err, ShouldBeNil)
			So(m.Name, ShouldEqual, "Demo")
			So(m.IDs(), ShouldResemble, []string{"a", "b", "c"})
		})

		Convey("Then unknown fields are kept aside", func() {
			a, ok := m.Get("a")
			So(ok, ShouldBeTrue)
			So(string(a.Extra["version"]), ShouldEqual, `"1.0"`)
		})

		Convey("Then enabled defaults to true", func() {
			b, _ := m.Get("b")
			c, _ := m.Get("c")
			So(b.IsEnabled(), ShouldBeFalse)
			So(c.IsEnabled(), ShouldBeTrue)
		})

		Convey("Then display names fall back to the id", func() {
			a, _ := m.Get("a")
			c, _ := m.Get("c")
			So(a.DisplayName(), ShouldEqual, "Alpha")
			So(c.DisplayName(), ShouldEqual, "c")
		})
	})

	Convey("Given a manifest with duplicate ids", t, func() {
		m, err := Parse([]byte(`{"scrapers":[{"id":"a","filename":"one.lua"},{"id":"a","filename":"two.lua"}]}`))

		Convey("Then the first one wins and a warning is recorded", func() {
			So(err, ShouldBeNil)
			So(len(m.Scrapers), ShouldEqual, 1)
			So(m.Scrapers[0].Filename, ShouldEqual, "one.lua")
			So(len(m.Warnings), ShouldEqual, 1)
		})
	})

	Convey("Given a scraper without an id", t, func() {
		_, err := Parse([]byte(`{"scrapers":[{"filename":"a.lua"}]}`))
		So(err, ShouldNotBeNil)
	})

	Convey("Given a manifest without scrapers", t, func() {
		m, err := Parse([]byte(`{"name":"empty"}`))
		So(err, ShouldBeNil)
		So(len(m.Scrapers), ShouldEqual, 0)
	})

	Convey("Given malformed JSON", t, func() {
		_, err := Parse([]byte(`<html>`))
		So(err, ShouldNotBeNil)
	})
}

func TestLoad(t *testing.T) {
	Convey("Given an edge cache that only answers cache-busted requests", t, func() {
		doer := &bustedOnlyDoer{body: `{"scrapers":[{"id":"a","filename":"a.lua"}]}`}
		f := fetch.New(fetch.WithClient(doer))

		loaded, err := Load(context.Background(), f, "https://example.com/repo/manifest.json")

		Convey("Then the busted variant is tried before giving up", func() {
			So(err, ShouldBeNil)
			So(doer.calls[0], ShouldEqual, "https://example.com/repo/manifest.json")
			So(loaded.UsedURL, ShouldStartWith, "https://example.com/repo/manifest.json?t=")
			So(loaded.UsedURL, ShouldContainSubstring, "&v=")
		})

		Convey("Then the base is derived from the used URL without its query", func() {
			So(loaded.Base, ShouldEqual, "https://example.com/repo")
		})

		Convey("Then scraper scripts resolve against the base", func() {
			a, _ := loaded.Manifest.Get("a")
			got := loaded.ScriptCandidates(a)
			So(len(got), ShouldEqual, 2)
			So(got[0], ShouldEqual, "https://example.com/repo/a.lua")
		})
	})

	Convey("Given a repository that never answers", t, func() {
		doer := &bustedOnlyDoer{body: `not json`}
		f := fetch.New(fetch.WithClient(doer))

		_, err := Load(context.Background(), f, "https://example.com/repo")

		Convey("Then the error names the last URL tried", func() {
			So(err, ShouldNotBeNil)
			So(fetch.TriedURL(err), ShouldStartWith, "https://example.com/repo/manifest.json?t=")
			So(len(doer.calls), ShouldEqual, 2)
		})
	})
}
