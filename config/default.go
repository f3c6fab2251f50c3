package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/plugtest/plugtest/color"
	"github.com/plugtest/plugtest/constant"
	"github.com/plugtest/plugtest/key"
	"github.com/plugtest/plugtest/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.App + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// Section is the part of the key before the first dot.
func (f *Field) Section() string {
	section, _, _ := strings.Cut(f.Key, ".")
	return section
}

// Sections groups every registered field by section. Sections and the fields within them
// are sorted by key.
func Sections() ([]string, map[string][]Field) {
	grouped := lo.GroupBy(lo.Values(Default), func(f Field) string {
		return f.Section()
	})

	for _, fields := range grouped {
		slices.SortFunc(fields, func(a, b Field) int {
			return strings.Compare(a.Key, b.Key)
		})
	}

	names := lo.Keys(grouped)
	slices.Sort(names)

	return names, grouped
}

func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.FetchTimeout, 15, "Timeout in seconds for a single manifest or script download attempt")
	register(key.RunnerTimeout, 60, "Timeout in seconds for a single plugin execution.\nSet to 0 to let scripts run until they settle")
	register(key.RunnerConcurrency, 3, "Maximum number of plugins executed at the same time when testing a repository")
	register(key.TesterLogsCap, 200, "Number of log lines retained per plugin run (newest are kept)")
	register(key.TesterIncludeDisabled, false, "Also test scrapers marked as disabled in the manifest")
	register(key.ParamsContentID, "tt0111161", "Content id passed to plugins when --id is not given")
	register(key.ParamsMediaType, constant.MediaMovie, "Media type passed to plugins when --type is not given.\nAvailable options are: movie, tv")
	register(key.ParamsSeason, 1, "Season passed to plugins for tv content")
	register(key.ParamsEpisode, 1, "Episode passed to plugins for tv content")
	register(key.HistoryWrite, true, "Save every test run to the local history database")
	register(key.HistoryKeep, 50, "Number of runs kept in the history database")
	register(key.SearchShowSuggestions, true, "Suggest recently tested sources in shell completion")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, plain, squares, nerd (nerd-font required)")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.Player, "mpv", "Media player used when handing off a stream")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
