// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Fetching - these keys govern how manifests and scripts are downloaded.
const (
	FetchTimeout = "fetch.timeout"
)

// Runner - these keys govern plugin execution and batch scheduling.
const (
	RunnerTimeout     = "runner.timeout"
	RunnerConcurrency = "runner.concurrency"
)

// Tester - these keys shape per-scraper result bookkeeping.
const (
	TesterLogsCap         = "tester.logs_cap"
	TesterIncludeDisabled = "tester.include_disabled"
)

// Default test parameters handed to every plugin run.
const (
	ParamsContentID = "params.content_id"
	ParamsMediaType = "params.media_type"
	ParamsSeason    = "params.season"
	ParamsEpisode   = "params.episode"
)

// Run history.
const (
	HistoryWrite = "history.write"
	HistoryKeep  = "history.keep"
)

// Source suggestions used by shell completion.
const (
	SearchShowSuggestions = "search.show_suggestions"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment.
const (
	CliColored = "cli.colored"
)

// Media Playback.
const (
	Player = "player.default"
)
