package stream

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInferQuality(t *testing.T) {
	Convey("Given streams with different quality hints", t, func() {
		Convey("An explicit quality wins", func() {
			s := &Stream{URL: "http://x", Quality: "4K", Title: "Movie 720p"}
			So(s.InferQuality(), ShouldEqual, "4K")
		})

		Convey("A trailing digits-p token in the title is used", func() {
			s := &Stream{URL: "http://x", Title: "Movie 2019 1080p"}
			So(s.InferQuality(), ShouldEqual, "1080p")
		})

		Convey("The last token is preferred when several appear", func() {
			s := &Stream{URL: "http://x", Title: "Upscaled 720p to 2160p"}
			So(s.InferQuality(), ShouldEqual, "2160p")
		})

		Convey("The name is consulted when the title has no token", func() {
			s := &Stream{URL: "http://x", Title: "Direct", Name: "ServerA 480P"}
			So(s.InferQuality(), ShouldEqual, "480p")
		})

		Convey("Nothing recognisable yields an empty string", func() {
			s := &Stream{URL: "http://x", Title: "Direct link"}
			So(s.InferQuality(), ShouldBeEmpty)
		})
	})
}

func TestHandoff(t *testing.T) {
	Convey("Given a stream with headers", t, func() {
		s := &Stream{
			URL:     "https://cdn.example/v.m3u8",
			Name:    "Alpha 720p",
			Headers: map[string]string{"Referer": "https://example"},
		}

		h := s.Handoff()

		Convey("Then the handoff carries URL, quality and headers", func() {
			So(h.URL, ShouldEqual, s.URL)
			So(h.Title, ShouldEqual, "Alpha 720p")
			So(h.Quality, ShouldEqual, "720p")
			So(h.Headers["Referer"], ShouldEqual, "https://example")
		})

		Convey("Then headers are copied, not shared", func() {
			h.Headers["Referer"] = "changed"
			So(s.Headers["Referer"], ShouldEqual, "https://example")
		})
	})

	Convey("Given a stream without a name or title", t, func() {
		s := &Stream{URL: "https://cdn.example/v.mp4"}
		So(s.Handoff().Title, ShouldEqual, s.URL)
	})
}
