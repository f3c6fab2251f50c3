package cmd

import (
	"fmt"
	"os"

	"github.com/plugtest/plugtest/fetch"
	"github.com/plugtest/plugtest/icon"
	"github.com/plugtest/plugtest/log"
	"github.com/plugtest/plugtest/plugin"
	"github.com/plugtest/plugtest/recent"
	"github.com/plugtest/plugtest/report"
	"github.com/plugtest/plugtest/tester"
	"github.com/plugtest/plugtest/tui"
	"github.com/plugtest/plugtest/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func completionRecent(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	return recent.Suggest(toComplete), cobra.ShellCompDirectiveDefault
}

func init() {
	rootCmd.AddCommand(repoCmd)

	addParamsFlags(repoCmd)
	addOutputFlags(repoCmd)
	repoCmd.Flags().StringSliceP("only", "o", []string{}, "Test only the scrapers with these ids")
	repoCmd.Flags().BoolP("include-disabled", "d", false, "Also test scrapers the manifest marks as disabled")
	repoCmd.Flags().IntP("concurrency", "c", 0, "How many scrapers run at once (default from runner.concurrency)")
	repoCmd.Flags().Bool("live", util.IsTerminal(), "Show a live board while scrapers run")

	repoCmd.SetOut(os.Stdout)
}

// repoCmd tests every scraper listed in a repository manifest.
var repoCmd = &cobra.Command{
	Use:   "repo [url]",
	Short: "Load a plugin repository manifest and test its scrapers",
	Long: `Load manifest.json from a plugin repository and run every enabled scraper with bounded concurrency.
The repository URL may point at the manifest itself or at the directory containing it.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionRecent,
	Example:           "  plugtest repo https://example.com/plugins --only demo,other",
	Run: func(cmd *cobra.Command, args []string) {
		source := args[0]

		params, err := paramsFromFlags(cmd)
		handleErr(err)

		ctx, cancel := interruptContext()
		defer cancel()

		repo := tester.NewRepo(fetch.New(), plugin.NewLua(), params)

		if cmd.Flags().Changed("concurrency") {
			repo.Limit = lo.Must(cmd.Flags().GetInt("concurrency"))
		}

		if cmd.Flags().Changed("include-disabled") {
			repo.IncludeDisabled = lo.Must(cmd.Flags().GetBool("include-disabled"))
		}

		erase := util.PrintErasable(fmt.Sprintf("%s Loading manifest from %s...", icon.Get(icon.Progress), source))
		loaded, err := repo.Load(ctx, source)
		erase()
		handleErr(err)

		if err := recent.Remember(source); err != nil {
			log.Warnf("remember %s: %v", source, err)
		}

		handleErr(repo.Only(lo.Must(cmd.Flags().GetStringSlice("only"))...))

		rep := report.New(report.KindRepo, source, params)
		rep.Manifest = loaded.Manifest.Name
		rep.UsedURL = loaded.UsedURL

		live := lo.Must(cmd.Flags().GetBool("live")) && !lo.Must(cmd.Flags().GetBool("json"))

		var results []tester.Result
		if live {
			results, err = runLive(cancel, func() ([]tester.Result, error) {
				return repo.TestAll(ctx)
			}, repo.Board, lo.CoalesceOrEmpty(loaded.Manifest.Name, loaded.UsedURL))
		} else {
			results, err = repo.TestAll(ctx)
		}
		handleErr(err)

		rep.Finish(results)
		saveHistory(rep)
		printReport(cmd, rep)
		exitOnFailure(rep)
	},
}

// runLive runs the batch in the background while the board is on screen.
func runLive(cancel func(), run func() ([]tester.Result, error), board *tester.Board, title string) ([]tester.Result, error) {
	var (
		results []tester.Result
		err     error
		done    = make(chan struct{})
	)

	go func() {
		defer close(done)
		results, err = run()
	}()

	if uiErr := tui.Run(tui.Options{
		Title:  title,
		Board:  board,
		Done:   done,
		Cancel: cancel,
	}); uiErr != nil {
		log.Warnf("live board: %v", uiErr)
		cancel()
	}

	<-done
	return results, err
}
