package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/cart-monitor/internal/pipeline"
)

var (
	ingestForce bool
	matchForce  bool
	matchDates  []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Clean raw A/B dumps into per-day clean files",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		_, err := runStages(ctx, pipeline.Options{Force: ingestForce}, pipeline.StageIngest)
		return err
	},
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Build the fact table by matching clean A/B records per day",
	Long: "Builds the fact table from every clean snapshot date. With --dates only the listed " +
		"dates are rebuilt and merged into the existing table.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		_, err := runStages(ctx, pipeline.Options{Force: matchForce, Dates: matchDates}, pipeline.StageMatch)
		return err
	},
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Evaluate business rules and annotate the fact table",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := runStages(cmd.Context(), pipeline.Options{}, pipeline.StageRules)
		return err
	},
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Write the reporting views from the annotated fact table",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := runStages(cmd.Context(), pipeline.Options{}, pipeline.StageAggregate)
		return err
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "re-clean dumps whose clean file already exists")
	matchCmd.Flags().BoolVar(&matchForce, "force", false, "rebuild the fact table even if it exists")
	matchCmd.Flags().StringSliceVar(&matchDates, "dates", nil, "snapshot dates (YYYY-MM-DD) to rebuild and merge")

	rootCmd.AddCommand(ingestCmd, matchCmd, rulesCmd, aggregateCmd)
}
