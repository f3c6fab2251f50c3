package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/plugtest/plugtest/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

// scriptedDoer answers requests from a table keyed by URL and records call order.
type scriptedDoer struct {
	mu        sync.Mutex
	responses map[string]int
	bodies    map[string]string
	calls     []string
	headers   []http.Header
}

func (d *scriptedDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	u := req.URL.String()
	d.calls = append(d.calls, u)
	d.headers = append(d.headers, req.Header.Clone())

	code, ok := d.responses[u]
	if !ok {
		return nil, errors.New("connection refused")
	}

	return &http.Response{
		StatusCode: code,
		Body:       io.NopCloser(strings.NewReader(d.bodies[u])),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func TestFetch(t *testing.T) {
	Convey("Given a fetcher backed by a scripted client", t, func() {
		doer := &scriptedDoer{
			responses: map[string]int{},
			bodies:    map[string]string{},
		}
		f := New(WithClient(doer), WithTimeout(time.Second))
		ctx := context.Background()

		Convey("When the first candidate fails and the second succeeds", func() {
			doer.responses["https://x.io/a.lua"] = http.StatusNotFound
			doer.responses["https://x.io/a.lua?t=1&v=z"] = http.StatusOK
			doer.bodies["https://x.io/a.lua?t=1&v=z"] = "return 1"

			resp, err := f.Text(ctx, []string{"https://x.io/a.lua", "https://x.io/a.lua?t=1&v=z"})

			Convey("Then the busted URL is reported as used", func() {
				So(err, ShouldBeNil)
				So(resp.UsedURL, ShouldEqual, "https://x.io/a.lua?t=1&v=z")
				So(string(resp.Body), ShouldEqual, "return 1")
				So(resp.Attempts, ShouldEqual, 2)
			})

			Convey("Then candidates are tried in order", func() {
				So(doer.calls, ShouldResemble, []string{"https://x.io/a.lua", "https://x.io/a.lua?t=1&v=z"})
			})
		})

		Convey("When the first candidate succeeds", func() {
			doer.responses["https://x.io/a"] = http.StatusOK
			doer.bodies["https://x.io/a"] = "ok"

			resp, err := f.Text(ctx, []string{"https://x.io/a", "https://x.io/b"})

			Convey("Then later candidates are never requested", func() {
				So(err, ShouldBeNil)
				So(resp.UsedURL, ShouldEqual, "https://x.io/a")
				So(len(doer.calls), ShouldEqual, 1)
			})
		})

		Convey("When every candidate fails", func() {
			doer.responses["https://x.io/a"] = http.StatusInternalServerError

			_, err := f.Text(ctx, []string{"https://x.io/a", "https://x.io/b"})

			Convey("Then the error names the last URL tried", func() {
				So(err, ShouldNotBeNil)
				So(TriedURL(err), ShouldEqual, "https://x.io/b")
				So(err.Error(), ShouldContainSubstring, "https://x.io/b")

				var exhausted *ExhaustedError
				So(errors.As(err, &exhausted), ShouldBeTrue)
				So(exhausted.Attempts, ShouldEqual, 2)
			})
		})

		Convey("When the candidate list is empty", func() {
			_, err := f.Text(ctx, nil)

			Convey("Then no request is made", func() {
				So(errors.Is(err, ErrNoCandidates), ShouldBeTrue)
				So(len(doer.calls), ShouldEqual, 0)
			})
		})

		Convey("When a non-2xx status is returned", func() {
			doer.responses["https://x.io/a"] = http.StatusForbidden

			_, err := f.Text(ctx, []string{"https://x.io/a"})

			Convey("Then the cause is a status error", func() {
				var status *StatusError
				So(errors.As(err, &status), ShouldBeTrue)
				So(status.Code, ShouldEqual, http.StatusForbidden)
			})
		})

		Convey("When the first body is larger than the limit", func() {
			doer.responses["https://x.io/big.lua"] = http.StatusOK
			doer.bodies["https://x.io/big.lua"] = strings.Repeat("-", MaxBodySize+1)
			doer.responses["https://x.io/small.lua"] = http.StatusOK
			doer.bodies["https://x.io/small.lua"] = "return 1"

			resp, err := f.Text(ctx, []string{"https://x.io/big.lua", "https://x.io/small.lua"})

			Convey("Then the oversized body is rejected and the next candidate used", func() {
				So(err, ShouldBeNil)
				So(resp.UsedURL, ShouldEqual, "https://x.io/small.lua")
				So(string(resp.Body), ShouldEqual, "return 1")
			})
		})

		Convey("When the only body is larger than the limit", func() {
			doer.responses["https://x.io/big.lua"] = http.StatusOK
			doer.bodies["https://x.io/big.lua"] = strings.Repeat("-", MaxBodySize+1)

			resp, err := f.Text(ctx, []string{"https://x.io/big.lua"})

			Convey("Then the fetch fails instead of returning a truncated body", func() {
				So(resp, ShouldBeNil)

				var tooLarge *TooLargeError
				So(errors.As(err, &tooLarge), ShouldBeTrue)
				So(tooLarge.Limit, ShouldEqual, int64(MaxBodySize))
				So(TriedURL(err), ShouldEqual, "https://x.io/big.lua")
			})
		})

		Convey("When a body is exactly at the limit", func() {
			doer.responses["https://x.io/edge.lua"] = http.StatusOK
			doer.bodies["https://x.io/edge.lua"] = strings.Repeat("-", MaxBodySize)

			resp, err := f.Text(ctx, []string{"https://x.io/edge.lua"})

			Convey("Then it is accepted whole", func() {
				So(err, ShouldBeNil)
				So(len(resp.Body), ShouldEqual, MaxBodySize)
			})
		})

		Convey("Requests ask intermediaries not to serve cached copies", func() {
			doer.responses["https://x.io/a"] = http.StatusOK
			_, err := f.Text(ctx, []string{"https://x.io/a"})
			So(err, ShouldBeNil)
			So(doer.headers[0].Get("Cache-Control"), ShouldEqual, "no-cache")
			So(doer.headers[0].Get("Pragma"), ShouldEqual, "no-cache")
			So(doer.headers[0].Get("User-Agent"), ShouldNotBeEmpty)
		})

		Convey("When the context is already cancelled", func() {
			doer.responses["https://x.io/a"] = http.StatusOK
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			_, err := f.Text(cctx, []string{"https://x.io/a"})

			Convey("Then nothing is requested and the cancellation is reported", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(len(doer.calls), ShouldEqual, 0)
			})
		})
	})
}

type manifestDoc struct {
	Name string `json:"name"`
}

func TestJSON(t *testing.T) {
	Convey("Given a server that returns garbage first and JSON second", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/broken.json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>not json</html>"))
		})
		mux.HandleFunc("/good.json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"name":"repo"}`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		f := New(WithClient(server.Client()), WithTimeout(2*time.Second))

		Convey("Then a malformed body falls through to the next candidate", func() {
			doc, resp, err := JSON[manifestDoc](context.Background(), f, []string{
				server.URL + "/broken.json",
				server.URL + "/good.json",
			})
			So(err, ShouldBeNil)
			So(doc.Name, ShouldEqual, "repo")
			So(resp.UsedURL, ShouldEqual, server.URL+"/good.json")
		})

		Convey("Then only malformed bodies exhaust the candidates", func() {
			_, _, err := JSON[manifestDoc](context.Background(), f, []string{server.URL + "/broken.json"})
			So(err, ShouldNotBeNil)
			So(TriedURL(err), ShouldEqual, server.URL+"/broken.json")
			So(err.Error(), ShouldContainSubstring, "decode json")
		})
	})
}

func TestTimeout(t *testing.T) {
	Convey("Given a server slower than the attempt timeout", t, func() {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		f := New(WithClient(server.Client()), WithTimeout(50*time.Millisecond))

		Convey("Then the attempt fails instead of hanging", func() {
			_, err := f.Text(context.Background(), []string{server.URL})
			So(err, ShouldNotBeNil)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})
	})
}

func TestLocalFile(t *testing.T) {
	Convey("Given a script on disk", t, func() {
		So(filesystem.API().WriteFile("/plugins/local.lua", []byte("-- hi"), 0o644), ShouldBeNil)

		Convey("Then file:// candidates are read without the network", func() {
			resp, err := New(WithClient(&scriptedDoer{})).Text(context.Background(), []string{"file:///plugins/local.lua"})
			So(err, ShouldBeNil)
			So(string(resp.Body), ShouldEqual, "-- hi")
		})
	})
}
