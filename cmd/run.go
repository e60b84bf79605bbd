package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/cart-monitor/internal/pipeline"
)

var (
	runForce bool
	runDates []string
	runJSON  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run ingest, match, rules and aggregate in order",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		res, err := runStages(ctx, pipeline.Options{Force: runForce, Dates: runDates})
		if res != nil && runJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(res); encErr != nil {
				zap.L().Warn("failed to print run result", zap.Error(encErr))
			}
		}
		return err
	},
}

func init() {
	runCmd.Flags().BoolVar(&runForce, "force", false, "rerun stages whose output already exists")
	runCmd.Flags().StringSliceVar(&runDates, "dates", nil, "snapshot dates (YYYY-MM-DD) to rebuild and merge")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the run result as JSON")
	rootCmd.AddCommand(runCmd)
}
