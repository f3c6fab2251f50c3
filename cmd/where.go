package cmd

import (
	"encoding/json"
	"os"

	"github.com/plugtest/plugtest/color"
	"github.com/plugtest/plugtest/filesystem"
	"github.com/plugtest/plugtest/style"
	"github.com/plugtest/plugtest/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

// location is a path the tester reads or writes, selectable by its own flag.
type location struct {
	name     string
	path     func() string
	flag     string
	short    mo.Option[string]
	internal bool
}

// locations are listed in this order. Internal ones are shown with --all.
var locations = []location{
	{"Config", where.Config, "config", mo.Some("c"), false},
	{"Plugins", where.Plugins, "plugins", mo.Some("p"), false},
	{"Logs", where.Logs, "logs", mo.Some("l"), false},
	{"History", where.HistoryDB, "history", mo.None[string](), false},
	{"Cache", where.Cache, "cache", mo.None[string](), true},
	{"HTTP cache", where.HTTPCache, "http-cache", mo.None[string](), true},
	{"Recent sources", where.Recent, "recent", mo.None[string](), true},
	{"Temp", where.Temp, "temp", mo.None[string](), true},
}

func visibleLocations(all bool) []location {
	return lo.Filter(locations, func(l location, _ int) bool {
		return all || !l.internal
	})
}

func init() {
	rootCmd.AddCommand(whereCmd)

	for _, l := range locations {
		if short, ok := l.short.Get(); ok {
			whereCmd.Flags().BoolP(l.flag, short, false, l.name+" path")
		} else {
			whereCmd.Flags().Bool(l.flag, false, l.name+" path")
		}

		if l.internal {
			lo.Must0(whereCmd.Flags().MarkHidden(l.flag))
		}
	}

	whereCmd.Flags().BoolP("all", "a", false, "Include cache, recent sources and temp paths")
	whereCmd.Flags().BoolP("json", "j", false, "Print a JSON object of name to path")

	whereCmd.MarkFlagsMutuallyExclusive(lo.Map(locations, func(l location, _ int) string {
		return l.flag
	})...)

	whereCmd.SetOut(os.Stdout)
}

// whereCmd displays where plugins, history and caches live on disk.
var whereCmd = &cobra.Command{
	Use:   "where",
	Short: "Display the filesystem paths used for config, plugins, history and caches",
	Run: func(cmd *cobra.Command, args []string) {
		for _, l := range locations {
			if lo.Must(cmd.Flags().GetBool(l.flag)) {
				cmd.Println(l.path())
				return
			}
		}

		shown := visibleLocations(lo.Must(cmd.Flags().GetBool("all")))

		if lo.Must(cmd.Flags().GetBool("json")) {
			paths := lo.SliceToMap(shown, func(l location) (string, string) {
				return l.flag, l.path()
			})

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(paths))
			return
		}

		header := style.New().Bold(true).Foreground(color.HiPurple).Render
		for i, l := range shown {
			path := l.path()

			cmd.Printf("%s %s\n", header(l.name+"?"), style.Fg(color.Yellow)("--"+l.flag))
			if exists, _ := filesystem.API().Exists(path); exists {
				cmd.Println(path)
			} else {
				cmd.Println(path, style.Faint("(not created yet)"))
			}

			if i < len(shown)-1 {
				cmd.Println()
			}
		}
	},
}
