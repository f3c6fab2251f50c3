package cmd

import (
	"os"

	"github.com/plugtest/plugtest/color"
	"github.com/plugtest/plugtest/config"
	"github.com/plugtest/plugtest/style"
	"github.com/plugtest/plugtest/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.Flags().BoolP("set-only", "s", false, "Display only environment variables that are currently defined")
	envCmd.Flags().BoolP("unset-only", "u", false, "Display only environment variables that are currently undefined")

	envCmd.MarkFlagsMutuallyExclusive("set-only", "unset-only")
	envCmd.SetOut(os.Stdout)
}

// envVar is one supported variable and what the process currently holds for it.
type envVar struct {
	name    string
	value   string
	present bool
	invalid error
}

// envVars lists the variables of a config section. Values that would not pass
// `config set` are reported with their error.
func envVars(fields []config.Field) []envVar {
	return lo.Map(fields, func(f config.Field, _ int) envVar {
		name := f.Env()
		value, present := os.LookupEnv(name)

		v := envVar{name: name, value: value, present: present && value != ""}
		if v.present {
			_, v.invalid = config.Parse(f.Key, []string{value})
		}
		return v
	})
}

func printEnvVar(cmd *cobra.Command, v envVar) {
	cmd.Print(style.New().Bold(true).Foreground(color.Purple).Render(v.name))
	cmd.Print("=")

	switch {
	case !v.present:
		cmd.Println(style.Fg(color.Red)("unset"))
	case v.invalid != nil:
		cmd.Printf("%s %s\n", style.Fg(color.Yellow)(v.value), style.Faint("("+v.invalid.Error()+")"))
	default:
		cmd.Println(style.Fg(color.Green)(v.value))
	}
}

// envCmd displays the supported environment variables section by section.
var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Display the collection of supported environment variables",
	Long:  `Display the supported environment variables grouped by config section, with their current process values. Values that fail validation are marked.`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			setOnly   = lo.Must(cmd.Flags().GetBool("set-only"))
			unsetOnly = lo.Must(cmd.Flags().GetBool("unset-only"))
			header    = style.New().Bold(true).Foreground(color.HiPurple).Render
		)

		keep := func(v envVar) bool {
			return !(setOnly && !v.present) && !(unsetOnly && v.present)
		}

		sections, grouped := config.Sections()
		blocks := make([][]envVar, 0, len(sections)+1)
		names := make([]string, 0, len(sections)+1)

		for _, section := range sections {
			vars := lo.Filter(envVars(grouped[section]), func(v envVar, _ int) bool { return keep(v) })
			if len(vars) > 0 {
				names = append(names, section)
				blocks = append(blocks, vars)
			}
		}

		configPath, ok := os.LookupEnv(where.EnvConfigPath)
		if v := (envVar{name: where.EnvConfigPath, value: configPath, present: ok && configPath != ""}); keep(v) {
			names = append(names, "paths")
			blocks = append(blocks, []envVar{v})
		}

		for i, vars := range blocks {
			cmd.Println(header("[" + names[i] + "]"))
			for _, v := range vars {
				printEnvVar(cmd, v)
			}

			if i < len(blocks)-1 {
				cmd.Println()
			}
		}
	},
}
