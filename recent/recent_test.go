package recent

import (
	"testing"

	"github.com/plugtest/plugtest/filesystem"
	"github.com/plugtest/plugtest/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestRecent(t *testing.T) {
	Convey("Given remembered sources", t, func() {
		viper.Set(key.SearchShowSuggestions, true)
		So(Clear(), ShouldBeNil)

		So(Remember("https://example.com/repo/manifest.json"), ShouldBeNil)
		So(Remember("https://other.org/script.lua"), ShouldBeNil)
		So(Remember("https://example.com/repo/manifest.json"), ShouldBeNil)
		So(Remember("   "), ShouldBeNil)

		Convey("Then an empty query lists everything by rank", func() {
			So(Suggest(""), ShouldResemble, []string{
				"https://example.com/repo/manifest.json",
				"https://other.org/script.lua",
			})
		})

		Convey("Then partial input matches fuzzily", func() {
			So(Suggest("othlua"), ShouldResemble, []string{"https://other.org/script.lua"})
			So(Suggest("EXAMPLE"), ShouldHaveLength, 1)
		})

		Convey("Then forgotten sources are not suggested", func() {
			So(Forget("https://other.org/script.lua"), ShouldBeNil)
			So(Suggest("other"), ShouldBeEmpty)
		})

		Convey("Then nothing is suggested when disabled", func() {
			viper.Set(key.SearchShowSuggestions, false)
			So(Suggest(""), ShouldBeEmpty)
		})
	})
}
