package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/plugtest/plugtest/color"
	"github.com/plugtest/plugtest/fetch"
	"github.com/plugtest/plugtest/icon"
	"github.com/plugtest/plugtest/log"
	"github.com/plugtest/plugtest/player"
	"github.com/plugtest/plugtest/plugin"
	"github.com/plugtest/plugtest/recent"
	"github.com/plugtest/plugtest/report"
	"github.com/plugtest/plugtest/stream"
	"github.com/plugtest/plugtest/style"
	"github.com/plugtest/plugtest/tester"
	"github.com/plugtest/plugtest/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(testCmd)

	addParamsFlags(testCmd)
	addOutputFlags(testCmd)
	testCmd.Flags().BoolP("follow", "f", false, "Print log lines while the script runs")
	testCmd.Flags().BoolP("play", "p", false, "Hand a returned stream to the configured player")
	testCmd.Flags().BoolP("wait", "w", false, "With --play, wait until the player exits")

	testCmd.SetOut(os.Stdout)
}

// testCmd runs a single script fetched from a URL or read from disk.
var testCmd = &cobra.Command{
	Use:               "test [url|path]",
	Short:             "Fetch a single plugin script and run it",
	Long:              `Fetch a single Lua plugin script, falling back to a cache-busted URL when the first request fails, and call its GetStreams entry point.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionRecent,
	Example:           "  plugtest test https://example.com/scrapers/demo.lua --type tv -s 1 -e 2",
	Run: func(cmd *cobra.Command, args []string) {
		source := args[0]

		params, err := paramsFromFlags(cmd)
		handleErr(err)

		ctx, cancel := interruptContext()
		defer cancel()

		single := tester.NewSingle(fetch.New(), plugin.NewLua())

		erase := util.PrintErasable(fmt.Sprintf("%s Fetching %s...", icon.Get(icon.Progress), source))
		_, err = single.Fetch(ctx, source)
		erase()
		handleErr(err)

		if err := recent.Remember(source); err != nil {
			log.Warnf("remember %s: %v", source, err)
		}

		var onLog plugin.LogFunc
		if lo.Must(cmd.Flags().GetBool("follow")) {
			onLog = func(line string) {
				_, _ = fmt.Fprintln(os.Stderr, style.Faint(line))
			}
		}

		rep := report.New(report.KindScript, source, params)
		rep.UsedURL = single.UsedURL()

		result, err := single.Run(ctx, params, onLog)
		handleErr(err)

		rep.Finish([]tester.Result{result})
		saveHistory(rep)
		printReport(cmd, rep)

		if lo.Must(cmd.Flags().GetBool("play")) {
			handleErr(play(ctx, result.Streams, lo.Must(cmd.Flags().GetBool("wait"))))
		}

		exitOnFailure(rep)
	},
}

// play asks which stream to open when there is more than one and launches the player.
// With wait set it blocks until the player exits, killing it if ctx is cancelled first.
func play(ctx context.Context, streams []*stream.Stream, wait bool) error {
	if len(streams) == 0 {
		return fmt.Errorf("no streams to play")
	}

	chosen := streams[0]
	if len(streams) > 1 {
		var index int
		prompt := &survey.Select{
			Message: "Pick a stream",
			Options: lo.Map(streams, func(s *stream.Stream, _ int) string {
				if q := s.InferQuality(); q != "" {
					return fmt.Sprintf("%s [%s]", s, q)
				}
				return s.String()
			}),
		}

		if err := survey.AskOne(prompt, &index); err != nil {
			return err
		}

		chosen = streams[index]
	}

	p, err := checkPlayer()
	if err != nil {
		return err
	}

	session, err := player.Launch(p, chosen.Handoff())
	if err != nil {
		return err
	}

	fmt.Printf("%s handed %s to %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), style.Fg(color.Yellow)(chosen.String()), p.Name())

	if !wait {
		return nil
	}

	select {
	case <-session.Wait():
		return nil
	case <-ctx.Done():
		return session.Close()
	}
}
