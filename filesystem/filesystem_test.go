package filesystem

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestApi(t *testing.T) {
	Convey("Filesystem API", t, func() {
		Convey("Should default to OsFs", func() {
			SetOsFs()
			So(API().Name(), ShouldEqual, "OsFs")
		})

		Convey("Should switch to MemMapFs", func() {
			SetMemMapFs()
			So(API().Name(), ShouldEqual, "MemMapFS")
		})
	})
}

func TestIsFile(t *testing.T) {
	Convey("Given an in-memory filesystem", t, func() {
		SetMemMapFs()
		So(API().WriteFile("/plugins/a.lua", []byte("return 1"), 0644), ShouldBeNil)

		Convey("A written file is reported as a file", func() {
			So(IsFile("/plugins/a.lua"), ShouldBeTrue)
		})

		Convey("Directories and missing paths are not", func() {
			So(IsFile("/plugins"), ShouldBeFalse)
			So(IsFile("/plugins/missing.lua"), ShouldBeFalse)
		})
	})
}
