package cmd

import (
	"encoding/json"
	"os"

	"github.com/plugtest/plugtest/report"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.SetOut(os.Stdout)
}

// schemaCmd prints the JSON schema of the report written by --json.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of run reports",
	Run: func(cmd *cobra.Command, args []string) {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		handleErr(encoder.Encode(report.Schema()))
	},
}
