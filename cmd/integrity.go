package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"module-loader/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check the registry against storage and the history schema",
	Long:  `Checks that every registered module has a source object and, with a database history backend, that the history table matches its schema.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), true, true)
	},
}

// registryCmd represents the integrity registry command
var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Check registry entries against the module bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), true, false)
	},
}

// historyCmd represents the integrity history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Check the failure history table schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), false, true)
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(registryCmd, historyCmd)
}

func runIntegrityChecks(ctx context.Context, runRegistry, runHistory bool) error {
	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.close()
	logg := rt.logger

	svc := integrity.NewService(rt.client, rt.cfg.Storage, rt.registry, rt.db, rt.cfg.History, logg)
	report := make(map[string]any)
	failed := false

	if runRegistry {
		logg.Info("Checking registry against storage...", zap.String("bucket", rt.cfg.Storage.Bucket))
		regReport, err := svc.CheckRegistry(ctx)
		switch {
		case err != nil:
			logg.Error("Registry check failed", zap.Error(err))
			report["registry"] = map[string]string{"status": "error", "error": err.Error()}
			failed = true
		case len(regReport.Missing) > 0:
			logg.Warn("Registered modules missing from storage", zap.Strings("missing", regReport.Missing))
			report["registry"] = regReport
			failed = true
		default:
			logg.Info("Registry is intact.", zap.Int("modules", regReport.Found))
			report["registry"] = regReport
		}
		if regReport != nil && len(regReport.Unregistered) > 0 {
			logg.Warn("Unregistered module objects found", zap.Strings("objects", regReport.Unregistered))
		}
	}

	if runHistory {
		logg.Info("Checking history schema...", zap.String("table", rt.cfg.History.Table))
		histReport, err := svc.CheckHistory()
		switch {
		case err != nil:
			logg.Warn("History schema check skipped", zap.Error(err))
			report["history"] = map[string]string{"status": "skipped", "error": err.Error()}
		case !histReport.Matched:
			for _, col := range histReport.MissingColumns {
				logg.Warn("Missing column", zap.String("table", histReport.Table), zap.String("column", col))
			}
			for _, mismatch := range histReport.TypeMismatches {
				logg.Warn("Type mismatch", zap.String("table", histReport.Table), zap.String("mismatch", mismatch))
			}
			for _, e := range histReport.Errors {
				logg.Error("Inspection Error", zap.String("error", e))
			}
			report["history"] = histReport
			failed = true
		default:
			logg.Info("History schema matches expected definition.", zap.String("table", histReport.Table))
			report["history"] = histReport
		}
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(data))
	if failed {
		return fmt.Errorf("integrity checks found problems")
	}
	return nil
}
