package style

import (
	"strings"
	"testing"

	"github.com/plugtest/plugtest/color"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStyle(t *testing.T) {
	Convey("Renderers keep the text they style", t, func() {
		So(Fg(color.OK)("ok"), ShouldContainSubstring, "ok")
		So(Bold("id"), ShouldContainSubstring, "id")
		So(Title("repo"), ShouldContainSubstring, "repo")
	})

	Convey("Pills pad the label on both sides", t, func() {
		So(Pill(color.Fail)("fail"), ShouldContainSubstring, " fail ")
	})

	Convey("Truncate limits the rendered width", t, func() {
		out := Truncate(4)("abcdefgh")
		So(strings.Contains(out, "abcdefgh"), ShouldBeFalse)
		So(out, ShouldContainSubstring, "abcd")
	})
}
