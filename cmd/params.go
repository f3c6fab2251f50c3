package cmd

import (
	"github.com/plugtest/plugtest/constant"
	"github.com/plugtest/plugtest/plugin"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

// addParamsFlags registers the flags that override the params.* defaults.
func addParamsFlags(cmd *cobra.Command) {
	cmd.Flags().String("id", "", "Content id passed to the plugin (default from params.content_id)")
	cmd.Flags().StringP("type", "t", "", "Media type passed to the plugin, movie or tv")
	cmd.Flags().IntP("season", "s", 0, "Season number for tv content")
	cmd.Flags().IntP("episode", "e", 0, "Episode number for tv content")

	lo.Must0(cmd.RegisterFlagCompletionFunc("type", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{constant.MediaMovie, constant.MediaTV}, cobra.ShellCompDirectiveNoFileComp
	}))
}

// paramsFromFlags starts from the configured params and applies any flags that were set.
func paramsFromFlags(cmd *cobra.Command) (plugin.Params, error) {
	var (
		flags  = cmd.Flags()
		params = plugin.DefaultParams()
	)

	if flags.Changed("id") {
		params.ContentID = lo.Must(flags.GetString("id"))
	}

	if flags.Changed("type") {
		params.MediaType = lo.Must(flags.GetString("type"))
	}

	if flags.Changed("season") {
		params.Season = mo.Some(lo.Must(flags.GetInt("season")))
	}

	if flags.Changed("episode") {
		params.Episode = mo.Some(lo.Must(flags.GetInt("episode")))
	}

	switch params.MediaType {
	case constant.MediaMovie:
		params.Season = mo.None[int]()
		params.Episode = mo.None[int]()
	case constant.MediaTV:
		// a series picked with --type alone starts at S01E01
		if params.Season.IsAbsent() {
			params.Season = mo.Some(1)
		}
		if params.Episode.IsAbsent() {
			params.Episode = mo.Some(1)
		}
	}

	return params, params.Validate()
}
