package plugin

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/plugtest/plugtest/constant"
	"github.com/plugtest/plugtest/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

type logCollector struct {
	mu    sync.Mutex
	lines []string
}

func (c *logCollector) add(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
}

func run(script string, params Params) (*Output, []string, error) {
	var c logCollector
	out, err := (&Lua{Timeout: 5 * time.Second}).Execute(context.Background(), script, params, c.add)
	return out, c.lines, err
}

func TestExecute(t *testing.T) {
	Convey("Given a script returning one stream", t, func() {
		script := `
function GetStreams(params)
	return {
		{ url = "http://x", name = "Alpha 1080p", headers = { Referer = "https://a" } },
	}
end`

		out, _, err := run(script, Movie("tt1"))

		Convey("Then the stream is converted", func() {
			So(err, ShouldBeNil)
			So(out.Streams, ShouldHaveLength, 1)
			So(out.Streams[0].URL, ShouldEqual, "http://x")
			So(out.Streams[0].Headers["Referer"], ShouldEqual, "https://a")
			So(out.Streams[0].InferQuality(), ShouldEqual, "1080p")
		})
	})

	Convey("Given a script returning a streams field", t, func() {
		out, _, err := run(`function GetStreams(p) return { streams = { { url = "http://y" } } } end`, Movie("tt1"))
		So(err, ShouldBeNil)
		So(out.Streams, ShouldHaveLength, 1)
	})

	Convey("Given a script returning no streams", t, func() {
		out, _, err := run(`function GetStreams(p) return {} end`, Movie("tt1"))

		Convey("Then the run succeeds with an empty list", func() {
			So(err, ShouldBeNil)
			So(out.Streams, ShouldBeEmpty)
		})
	})

	Convey("Given a script that raises", t, func() {
		_, _, err := run(`function GetStreams(p) error("boom") end`, Movie("tt1"))

		Convey("Then the message is kept without a traceback", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "boom")
			So(err.Error(), ShouldNotContainSubstring, "stack traceback")
		})
	})

	Convey("Given a script without an entry point", t, func() {
		_, _, err := run(`local x = 1`, Movie("tt1"))
		So(errors.Is(err, ErrNoEntryPoint), ShouldBeTrue)
	})

	Convey("Given a script that does not compile", t, func() {
		_, _, err := run(`function GetStreams(`, Movie("tt1"))
		So(err, ShouldNotBeNil)
	})

	Convey("Given a script returning a string", t, func() {
		_, _, err := run(`function GetStreams(p) return "nope" end`, Movie("tt1"))
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "expected table")
	})

	Convey("Given a script mixing valid and invalid entries", t, func() {
		out, lines, err := run(`function GetStreams(p) return { { name = "no url" }, { url = "http://ok" } } end`, Movie("tt1"))

		Convey("Then invalid entries are skipped with a warning", func() {
			So(err, ShouldBeNil)
			So(out.Streams, ShouldHaveLength, 1)
			So(lines, ShouldHaveLength, 1)
			So(lines[0], ShouldStartWith, PrefixWarn)
		})
	})

	Convey("Given a script returning only invalid entries", t, func() {
		_, _, err := run(`function GetStreams(p) return { { name = "no url" } } end`, Movie("tt1"))
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "must have url")
	})

	Convey("Given invalid params", t, func() {
		_, _, err := run(`function GetStreams(p) return {} end`, Params{ContentID: "tt1", MediaType: "tv"})
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "invalid params")
	})
}

func TestParamsTable(t *testing.T) {
	Convey("Given a script echoing its params", t, func() {
		script := `
function GetStreams(p)
	return { { url = "http://x", name = p.type .. ":" .. p.id .. ":" .. tostring(p.season) .. ":" .. tostring(p.episode) } }
end`

		Convey("Then tv params carry season and episode", func() {
			out, _, err := run(script, Episode("tt2", 2, 5))
			So(err, ShouldBeNil)
			So(out.Streams[0].Name, ShouldEqual, "tv:tt2:2:5")
		})

		Convey("Then movie params omit them", func() {
			out, _, err := run(script, Movie("tt3"))
			So(err, ShouldBeNil)
			So(out.Streams[0].Name, ShouldEqual, "movie:tt3:nil:nil")
		})
	})
}

func TestConsole(t *testing.T) {
	Convey("Given a script that logs through every channel", t, func() {
		script := `
print("starting", 1)
function GetStreams(p)
	console.log("log")
	console.info("info")
	console.warn("careful")
	console.error("bad", "thing")
	console.debug({ a = 1 })
	return {}
end`

		_, lines, err := run(script, Movie("tt1"))

		Convey("Then lines arrive in order with severity prefixes", func() {
			So(err, ShouldBeNil)
			So(lines, ShouldResemble, []string{
				"starting 1",
				"log",
				"info",
				"[WARN] careful",
				"[ERROR] bad thing",
				`[DEBUG] {"a":1}`,
			})
		})
	})
}

func TestTimeout(t *testing.T) {
	Convey("Given a script that never returns", t, func() {
		lua := &Lua{Timeout: 100 * time.Millisecond}
		start := time.Now()

		_, err := lua.Execute(context.Background(), `function GetStreams(p) while true do end end`, Movie("tt1"), nil)

		Convey("Then the run is stopped by the timeout", func() {
			So(err, ShouldNotBeNil)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			So(time.Since(start), ShouldBeLessThan, 5*time.Second)
		})
	})
}

func TestIsolation(t *testing.T) {
	Convey("Given a script that mutates globals", t, func() {
		script := `
counter = (counter or 0) + 1
function GetStreams(p) return { { url = "http://x/" .. counter } } end`

		first, _, err1 := run(script, Movie("tt1"))
		second, _, err2 := run(script, Movie("tt1"))

		Convey("Then every run starts from a clean state", func() {
			So(err1, ShouldBeNil)
			So(err2, ShouldBeNil)
			So(first.Streams[0].URL, ShouldEqual, "http://x/1")
			So(second.Streams[0].URL, ShouldEqual, "http://x/1")
		})
	})
}

func TestValidateAndCheck(t *testing.T) {
	Convey("Validate only compiles", t, func() {
		So(Validate(`local x = 1`), ShouldBeNil)
		So(Validate(`local x = `), ShouldNotBeNil)
	})

	Convey("Check requires the entry point", t, func() {
		So(Check(context.Background(), `function GetStreams(p) return {} end`, nil), ShouldBeNil)
		So(errors.Is(Check(context.Background(), `local x = 1`, nil), ErrNoEntryPoint), ShouldBeTrue)
	})
}

func TestCompileCache(t *testing.T) {
	Convey("Given the same source twice", t, func() {
		script := `function GetStreams(p) return {} end -- ` + strings.Repeat("x", 3)
		a, err := compile(script)
		So(err, ShouldBeNil)
		b, err := compile(script)
		So(err, ShouldBeNil)

		Convey("Then the prototype is reused", func() {
			So(a == b, ShouldBeTrue)
		})

		Convey("Then edited source is recompiled", func() {
			c, err := compile(script + "\n")
			So(err, ShouldBeNil)
			So(c == a, ShouldBeFalse)
		})
	})
}

func TestStart(t *testing.T) {
	Convey("Given an execution that logs several lines", t, func() {
		exec := ExecutorFunc(func(ctx context.Context, script string, params Params, onLog LogFunc) (*Output, error) {
			for _, line := range []string{"one", "two", "three"} {
				onLog(line)
			}
			return &Output{}, nil
		})

		e := Start(context.Background(), exec, "", Movie("tt1"))

		var got []string
		for line := range e.Logs() {
			got = append(got, line)
		}
		out, err := e.Wait()

		Convey("Then lines are delivered in order before the channel closes", func() {
			So(got, ShouldResemble, []string{"one", "two", "three"})
			So(err, ShouldBeNil)
			So(out, ShouldNotBeNil)
		})
	})

	Convey("Given an execution that fails", t, func() {
		exec := ExecutorFunc(func(ctx context.Context, script string, params Params, onLog LogFunc) (*Output, error) {
			return nil, errors.New("boom")
		})

		e := Start(context.Background(), exec, "", Movie("tt1"))

		Convey("Then Wait reports the error without draining logs", func() {
			_, err := e.Wait()
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldEqual, "boom")
		})
	})

	Convey("Given an executor that panics after logging", t, func() {
		exec := ExecutorFunc(func(ctx context.Context, script string, params Params, onLog LogFunc) (*Output, error) {
			onLog("before")
			panic("nil table")
		})

		e := Start(context.Background(), exec, "", Movie("tt1"))

		Convey("Then logs still close and Wait reports the panic", func() {
			var got []string
			closed := make(chan struct{})
			go func() {
				defer close(closed)
				for line := range e.Logs() {
					got = append(got, line)
				}
			}()

			select {
			case <-closed:
			case <-time.After(5 * time.Second):
				t.Fatal("log channel never closed")
			}

			out, err := e.Wait()
			So(got, ShouldResemble, []string{"before"})
			So(out, ShouldBeNil)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "nil table")
		})
	})
}

func TestParamsValidate(t *testing.T) {
	Convey("Params validation", t, func() {
		So(Movie("tt1").Validate(), ShouldBeNil)
		So(Episode("tt1", 1, 1).Validate(), ShouldBeNil)
		So(Movie("").Validate(), ShouldNotBeNil)
		So(Episode("tt1", 0, 1).Validate(), ShouldNotBeNil)
		So(Params{ContentID: "tt1", MediaType: "anime"}.Validate(), ShouldNotBeNil)
		So(Episode("tt1", 1, 2).String(), ShouldEqual, "tv tt1 S01E02")
	})
}

func TestRuntimeInfo(t *testing.T) {
	Convey("The runtime reports its Lua version and modules", t, func() {
		So(RuntimeVersion(), ShouldStartWith, "Lua 5.1")

		modules := Modules()
		So(modules, ShouldContain, constant.TLSLib)
		So(sort.StringsAreSorted(modules), ShouldBeTrue)
	})
}
