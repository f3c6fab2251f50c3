package cmd

import (
	"encoding/json"
	"os"
	"runtime"
	"strings"
	"text/template"

	"github.com/muesli/reflow/wordwrap"
	"github.com/plugtest/plugtest/color"
	"github.com/plugtest/plugtest/constant"
	"github.com/plugtest/plugtest/plugin"
	"github.com/plugtest/plugtest/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.SetOut(os.Stdout)
	versionCmd.Flags().BoolP("short", "s", false, "Display only the version string without metadata")
	versionCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	versionCmd.MarkFlagsMutuallyExclusive("short", "json")
}

// buildInfo is what a bug report needs to reproduce a plugin run.
type buildInfo struct {
	App        string   `json:"app"`
	Version    string   `json:"version"`
	Revision   string   `json:"revision"`
	BuiltAt    string   `json:"built_at"`
	BuiltBy    string   `json:"built_by"`
	Go         string   `json:"go"`
	Platform   string   `json:"platform"`
	Lua        string   `json:"lua"`
	LuaModules []string `json:"lua_modules"`
}

func currentBuildInfo() buildInfo {
	return buildInfo{
		App:        constant.App,
		Version:    constant.Version,
		Revision:   constant.Revision,
		BuiltAt:    strings.TrimSpace(constant.BuiltAt),
		BuiltBy:    constant.BuiltBy,
		Go:         runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
		Lua:        plugin.RuntimeVersion(),
		LuaModules: plugin.Modules(),
	}
}

var versionTemplate = lo.Must(template.New("version").Funcs(template.FuncMap{
	"faint":   style.Faint,
	"bold":    style.Bold,
	"magenta": style.Fg(color.Purple),
	"wrap": func(names []string) string {
		return strings.ReplaceAll(wordwrap.String(strings.Join(names, ", "), 60), "\n", "\n                  ")
	},
}).Parse(`{{ magenta "▇▇▇" }} {{ magenta .App }}

  {{ faint "Version" }}         {{ bold .Version }}
  {{ faint "Git Commit" }}      {{ bold .Revision }}
  {{ faint "Build Date" }}      {{ bold .BuiltAt }}
  {{ faint "Built By" }}        {{ bold .BuiltBy }}
  {{ faint "Platform" }}        {{ bold .Platform }} ({{ .Go }})
  {{ faint "Lua" }}             {{ bold .Lua }}
  {{ faint "Modules" }}         {{ wrap .LuaModules }}
`))

// versionCmd displays build metadata and the Lua runtime plugins run against.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version, build metadata and the Lua runtime",
	Long:  "Display the current application version, build revision, platform, the Lua version plugins run against and the modules they can require.",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(constant.Version)
			return
		}

		info := currentBuildInfo()

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(info))
			return
		}

		handleErr(versionTemplate.Execute(cmd.OutOrStdout(), info))
	},
}
