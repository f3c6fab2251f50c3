package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/plugtest/plugtest/color"
	"github.com/plugtest/plugtest/history"
	"github.com/plugtest/plugtest/icon"
	"github.com/plugtest/plugtest/key"
	"github.com/plugtest/plugtest/style"
	"github.com/plugtest/plugtest/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func openHistory() *history.Store {
	store, err := history.Open("")
	handleErr(err)
	return store
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

// historyCmd is the parent of the commands that browse saved run reports.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse reports of previous runs",
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyListCmd.Flags().IntP("limit", "n", 10, "How many runs to show, 0 for all")
	historyListCmd.Flags().BoolP("json", "j", false, "Print the runs as JSON")

	historyListCmd.SetOut(os.Stdout)
}

// historyListCmd lists saved runs, newest first.
var historyListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved runs, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		store := openHistory()
		defer util.Ignore(store.Close)

		runs, err := store.List(lo.Must(cmd.Flags().GetInt("limit")))
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(runs))
			return
		}

		if len(runs) == 0 {
			cmd.Println(style.Faint("no runs saved yet"))
			return
		}

		for _, r := range runs {
			statusIcon := style.Fg(color.OK)(icon.Get(icon.OK))
			if r.Failed() {
				statusIcon = style.Fg(color.Fail)(icon.Get(icon.Fail))
			}

			cmd.Printf(
				"%s %s %s %s %s\n",
				statusIcon,
				style.Fg(color.Yellow)(r.RunID.String()[:8]),
				style.Faint(r.StartedAt.Local().Format("2006-01-02 15:04")),
				style.Bold(lo.CoalesceOrEmpty(r.Manifest, r.Source)),
				style.Faint(fmt.Sprintf("%d/%d ok", r.Summary.OK, r.Summary.Total)),
			)
		}
	},
}

func init() {
	historyCmd.AddCommand(historyShowCmd)
	addOutputFlags(historyShowCmd)

	historyShowCmd.SetOut(os.Stdout)
}

// historyShowCmd prints one saved run in full.
var historyShowCmd = &cobra.Command{
	Use:   "show [run id]",
	Short: "Show a saved run by its id or an unambiguous id prefix",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := openHistory()
		defer util.Ignore(store.Close)

		r, err := store.Get(args[0])
		handleErr(err)

		printReport(cmd, r)
	},
}

func init() {
	historyCmd.AddCommand(historyPruneCmd)
	historyPruneCmd.Flags().IntP("keep", "k", 0, "How many recent runs to keep (default history.keep)")
}

// historyPruneCmd drops all but the newest runs.
var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the most recent runs",
	Run: func(cmd *cobra.Command, args []string) {
		keep := viper.GetInt(key.HistoryKeep)
		if cmd.Flags().Changed("keep") {
			keep = lo.Must(cmd.Flags().GetInt("keep"))
		}

		store := openHistory()
		defer util.Ignore(store.Close)

		removed, err := store.Prune(keep)
		handleErr(err)

		fmt.Printf(
			"%s removed %s, kept at most %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			util.Quantify(removed, "run", "runs"),
			style.Fg(color.Yellow)(strconv.Itoa(keep)),
		)
	},
}

func init() {
	historyCmd.AddCommand(historyClearCmd)
}

// historyClearCmd removes every saved run.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved run",
	Run: func(cmd *cobra.Command, args []string) {
		store := openHistory()
		defer util.Ignore(store.Close)

		handleErr(store.Clear())
		fmt.Printf("%s history cleared\n", style.Fg(color.Green)(icon.Get(icon.Success)))
	},
}
