package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/plugtest/plugtest/history"
	"github.com/plugtest/plugtest/key"
	"github.com/plugtest/plugtest/log"
	"github.com/plugtest/plugtest/report"
	"github.com/plugtest/plugtest/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// interruptContext is cancelled on ctrl+c so running scripts stop at their next Lua instruction.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false, "Print the run report as JSON")
	cmd.Flags().BoolP("logs", "l", false, "Include every scraper's log lines, not only those of failures")
	cmd.Flags().Bool("streams", false, "List the stream URLs each scraper returned")
}

// printReport writes rep to stdout in the format chosen by the output flags.
func printReport(cmd *cobra.Command, rep *report.Report) {
	if lo.Must(cmd.Flags().GetBool("json")) {
		handleErr(rep.WriteJSON(cmd.OutOrStdout()))
		return
	}

	handleErr(rep.WriteText(cmd.OutOrStdout(), report.TextOptions{
		Logs:    lo.Must(cmd.Flags().GetBool("logs")),
		Streams: lo.Must(cmd.Flags().GetBool("streams")),
	}))
}

// saveHistory stores rep and trims old runs. Failures are logged, never fatal.
func saveHistory(rep *report.Report) {
	if !viper.GetBool(key.HistoryWrite) {
		return
	}

	store, err := history.Open("")
	if err != nil {
		log.Warnf("open history: %v", err)
		return
	}
	defer util.Ignore(store.Close)

	if err := store.Save(rep); err != nil {
		log.Warnf("save run %s: %v", rep.RunID, err)
		return
	}

	if keep := viper.GetInt(key.HistoryKeep); keep > 0 {
		pruned, err := store.Prune(keep)
		if err != nil {
			log.Warnf("prune history: %v", err)
		} else if pruned > 0 {
			log.Infof("pruned %d old runs from history", pruned)
		}
	}
}

// exitOnFailure ends the process with status 1 when any scraper failed.
func exitOnFailure(rep *report.Report) {
	if rep.Failed() {
		os.Exit(1)
	}
}
