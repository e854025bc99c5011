package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"module-loader/feature/modules"

	"github.com/spf13/cobra"
)

var (
	loadAllRequired  bool
	loadIgnoreErrors bool
	loadSkipCache    bool
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load <references...>",
	Short: "Load modules once and print the results",
	Long:  `Runs a batch load of the given references and prints the loaded modules and the health report as JSON.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		svc := modules.NewService(rt.engine, rt.notes, rt.logger)
		resp, err := svc.Load(cmd.Context(), modules.LoadRequest{
			References:   args,
			AllRequired:  loadAllRequired,
			IgnoreErrors: loadIgnoreErrors,
			SkipCache:    loadSkipCache,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
		if resp.Error != "" {
			return fmt.Errorf("batch load failed: %s", resp.Error)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(loadCmd)
	loadCmd.Flags().BoolVar(&loadAllRequired, "all-required", false, "Treat every module as required")
	loadCmd.Flags().BoolVar(&loadIgnoreErrors, "ignore-errors", false, "Do not fail on required module failures")
	loadCmd.Flags().BoolVar(&loadSkipCache, "skip-cache", false, "Ignore completed cache entries")
}
