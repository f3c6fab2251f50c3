package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/plugtest/plugtest/plugin"
	"github.com/plugtest/plugtest/stream"
	"github.com/plugtest/plugtest/tester"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleResults() []tester.Result {
	return []tester.Result{
		{ID: "alpha", Status: tester.OK, StreamsCount: 1, Duration: 1200 * time.Millisecond,
			Streams: []*stream.Stream{{URL: "http://x/v.m3u8", Title: "Movie 1080p"}}},
		{ID: "beta", Status: tester.OKEmpty, Logs: []string{"nothing found"}},
		{ID: "gamma", Status: tester.Fail, Error: "boom", TriedURL: "https://r/gamma.lua?t=1&v=a",
			Logs: []string{"starting", "[ERROR] " + errors.New("bad").Error()}},
		{ID: "delta", Status: tester.Idle, Skipped: true},
	}
}

func TestSummarize(t *testing.T) {
	Convey("Given a mix of outcomes", t, func() {
		s := Summarize(sampleResults())

		So(s, ShouldResemble, Summary{Total: 4, OK: 1, Empty: 1, Fail: 1, Skipped: 1})
	})
}

func TestReport(t *testing.T) {
	Convey("Given a finished repo report", t, func() {
		r := New(KindRepo, "https://r/manifest.json", plugin.Movie("tt1"))
		r.Manifest = "Demo"
		r.Finish(sampleResults())

		Convey("Then it has a run id and a summary", func() {
			So(r.RunID.String(), ShouldHaveLength, 36)
			So(r.Failed(), ShouldBeTrue)
			So(r.Duration(), ShouldBeGreaterThanOrEqualTo, 0)
		})

		Convey("Then the JSON uses status names", func() {
			var buf bytes.Buffer
			So(r.WriteJSON(&buf), ShouldBeNil)

			var decoded map[string]any
			So(json.Unmarshal(buf.Bytes(), &decoded), ShouldBeNil)
			results := decoded["results"].([]any)
			So(results[1].(map[string]any)["status"], ShouldEqual, "ok-empty")
			So(decoded["kind"], ShouldEqual, KindRepo)
		})

		Convey("Then the text shows failures with their URL and logs", func() {
			var buf bytes.Buffer
			So(r.WriteText(&buf, TextOptions{Width: 80}), ShouldBeNil)
			out := buf.String()

			So(out, ShouldContainSubstring, "Demo")
			So(out, ShouldContainSubstring, "boom")
			So(out, ShouldContainSubstring, "tried: https://r/gamma.lua?t=1&v=a")
			So(out, ShouldContainSubstring, "[ERROR] bad")
			So(out, ShouldContainSubstring, "skipped")
			So(out, ShouldNotContainSubstring, "nothing found")
			So(out, ShouldContainSubstring, "4 scrapers, 1 ok, 1 empty, 1 failed, 1 skipped")
		})

		Convey("Then logs and streams can be requested for every scraper", func() {
			var buf bytes.Buffer
			So(r.WriteText(&buf, TextOptions{Width: 80, Logs: true, Streams: true}), ShouldBeNil)
			out := buf.String()

			So(out, ShouldContainSubstring, "nothing found")
			So(out, ShouldContainSubstring, "1080p http://x/v.m3u8")
		})
	})
}

func TestSchema(t *testing.T) {
	Convey("The schema describes run ids as strings", t, func() {
		data, err := json.Marshal(Schema())
		So(err, ShouldBeNil)
		So(string(data), ShouldContainSubstring, `"format":"uuid"`)
		So(strings.Contains(string(data), "ok-empty"), ShouldBeTrue)
	})
}
