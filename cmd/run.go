package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/plugtest/plugtest/color"
	"github.com/plugtest/plugtest/filesystem"
	"github.com/plugtest/plugtest/icon"
	"github.com/plugtest/plugtest/plugin"
	"github.com/plugtest/plugtest/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)

	addParamsFlags(runCmd)
	runCmd.Flags().Bool("check", false, "Only compile the script and verify it defines GetStreams")
	runCmd.Flags().BoolP("json", "j", false, "Print the returned streams as JSON")

	runCmd.SetOut(os.Stdout)
}

// runCmd executes a local Lua file for development and debugging.
var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Execute a local Lua plugin file",
	Long: `Run a local Lua plugin in the same sandbox used by test and repo, streaming its console output.
With --check the script is only compiled and its top level run to look for GetStreams.`,
	Args:    cobra.ExactArgs(1),
	Example: "  plugtest run ./demo.lua --check",
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]

		script, err := filesystem.API().ReadFile(path)
		handleErr(err)

		ctx, cancel := interruptContext()
		defer cancel()

		printLine := func(line string) {
			_, _ = fmt.Fprintln(os.Stderr, style.Faint(line))
		}

		if lo.Must(cmd.Flags().GetBool("check")) {
			handleErr(plugin.Check(ctx, string(script), printLine))
			cmd.Printf("%s %s looks good\n", style.Fg(color.Green)(icon.Get(icon.Success)), path)
			return
		}

		params, err := paramsFromFlags(cmd)
		handleErr(err)

		execution := plugin.Start(ctx, plugin.NewLua(), string(script), params)
		for line := range execution.Logs() {
			printLine(line)
		}

		out, err := execution.Wait()
		handleErr(err)

		streams := lo.FromPtrOr(out, plugin.Output{}).Streams

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(streams))
			return
		}

		if len(streams) == 0 {
			cmd.Printf("%s no streams\n", style.Fg(color.Empty)(icon.Get(icon.Empty)))
			return
		}

		for _, s := range streams {
			cmd.Printf("%s %s\n", style.Fg(color.OK)(icon.Get(icon.OK)), style.Bold(s.String()))
			cmd.Println("  " + style.Faint(s.URL))
		}
	},
}
