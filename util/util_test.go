package util

import (
	"testing"

	"github.com/plugtest/plugtest/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSanitizeFilename(t *testing.T) {
	Convey("SanitizeFilename", t, func() {
		Convey("Should replace invalid chars", func() {
			So(SanitizeFilename("my:plugin?.lua"), ShouldEqual, "my_plugin_.lua")
		})
		Convey("Should collapse underscores", func() {
			So(SanitizeFilename("my plugin"), ShouldEqual, "my_plugin")
		})
		Convey("Should trim separators", func() {
			So(SanitizeFilename("-plugin-"), ShouldEqual, "plugin")
		})
	})
}

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "stream", "streams"), ShouldEqual, "1 stream")
		So(Quantify(0, "stream", "streams"), ShouldEqual, "0 streams")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("history"), ShouldEqual, "History")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestFileStem(t *testing.T) {
	Convey("FileStem", t, func() {
		So(FileStem("plugins/alpha.lua"), ShouldEqual, "alpha")
		So(FileStem("alpha"), ShouldEqual, "alpha")
	})
}

func TestMaxMin(t *testing.T) {
	Convey("Max/Min", t, func() {
		So(Max(1, 5, 2), ShouldEqual, 5)
		So(Min(1, 5, 2), ShouldEqual, 1)
		So(Max[int](), ShouldEqual, 0)
	})
}

func TestDelete(t *testing.T) {
	Convey("Delete", t, func() {
		filesystem.SetMemMapFs()
		fs := filesystem.API()
		So(fs.WriteFile("/tmp/x/a.txt", []byte("a"), 0644), ShouldBeNil)

		So(Delete("/tmp/x"), ShouldBeNil)
		exists, _ := fs.Exists("/tmp/x/a.txt")
		So(exists, ShouldBeFalse)
		So(Delete("/tmp/missing"), ShouldNotBeNil)
	})
}
