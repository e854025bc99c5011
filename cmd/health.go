package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// healthCmd represents the health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Preload the configured modules and print the health report",
	Long:  `Loads the configured preload list and prints the health report as JSON. Exits with an error when a never_fallback module failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		rt.preload(cmd.Context())
		report := rt.engine.Health()

		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(data))

		if !report.CanContinue {
			return errors.New("critical modules are unavailable")
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(healthCmd)
}
