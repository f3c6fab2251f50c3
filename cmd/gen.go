package cmd

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/plugtest/plugtest/constant"
	"github.com/plugtest/plugtest/filesystem"
	"github.com/plugtest/plugtest/open"
	"github.com/plugtest/plugtest/util"
	"github.com/plugtest/plugtest/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(genCmd)

	genCmd.Flags().StringP("name", "n", "", "Display name of the new plugin")
	genCmd.Flags().String("id", "", "Scraper id used in manifest.json (default derived from the name)")
	genCmd.Flags().StringP("output", "o", "", "Directory to write the plugin to (default the plugins directory)")
	genCmd.Flags().BoolP("edit", "e", false, "Open the new plugin with the default handler")

	lo.Must0(genCmd.MarkFlagRequired("name"))
	genCmd.SetOut(os.Stdout)
}

// genCmd scaffolds a Lua plugin from the built-in template.
var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Scaffold a new Lua plugin using a predefined template",
	Long:  `Generate a boilerplate Lua plugin with metadata and an empty GetStreams entry point.`,
	Run: func(cmd *cobra.Command, args []string) {
		var author string
		usr, err := user.Current()
		if err == nil {
			author = usr.Username
		} else {
			author = "Anonymous"
		}

		name := lo.Must(cmd.Flags().GetString("name"))
		id := lo.Must(cmd.Flags().GetString("id"))
		if id == "" {
			id = strings.ToLower(util.SanitizeFilename(name))
		}

		s := struct {
			ID           string
			Name         string
			Author       string
			GetStreamsFn string
		}{
			ID:           id,
			Name:         name,
			Author:       author,
			GetStreamsFn: constant.GetStreamsFn,
		}

		funcMap := template.FuncMap{
			"repeat": strings.Repeat,
			"plus":   func(a, b int) int { return a + b },
			"max":    util.Max[int],
		}

		tmpl, err := template.New("plugin").Funcs(funcMap).Parse(constant.PluginTemplate)
		handleErr(err)

		dir := lo.Must(cmd.Flags().GetString("output"))
		if dir == "" {
			dir = where.Plugins()
		} else {
			handleErr(filesystem.API().MkdirAll(dir, os.ModePerm))
		}

		target := filepath.Join(dir, id+constant.PluginExtension)
		f, err := filesystem.API().Create(target)
		handleErr(err)

		err = tmpl.Execute(f, s)
		util.Ignore(f.Close)
		handleErr(err)

		cmd.Println(target)

		if lo.Must(cmd.Flags().GetBool("edit")) {
			handleErr(open.Start(target))
		}
	},
}
