package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/jobflow/internal/ingest"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Rebuild bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest the CSV and transform it in one pass",
		Long: `Run the full pipeline: stage the source CSV, then normalize it.

Equivalent to "jobflow ingest" followed by "jobflow transform".`,
		Example: `  # Full pipeline against the configured target
  jobflow run --csv data/job_postings.csv

  # Full pipeline with a fact table rebuild
  jobflow run --csv data/job_postings.csv --rebuild`,
		Aliases: []string{"etl"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := ConfigFromContext(ctx)
			logger := LoggerFromContext(ctx)
			if cfg.CSVPath == "" {
				return fmt.Errorf("no CSV path configured (use --csv or csv_path in jobflow.yaml)")
			}

			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			ingested, err := ingest.New(st, logger).Run(ctx, cfg.CSVPath)
			if closeErr := st.Close(); err == nil && closeErr != nil {
				err = closeErr
			}
			if err != nil {
				return fmt.Errorf("ingestion failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Staged %d rows (%d rejected)\n",
				ingested.Staged, ingested.Rejected)

			_, err = runTransform(cmd, &TransformOptions{Rebuild: opts.Rebuild})
			return err
		},
	}

	cmd.Flags().BoolVar(&opts.Rebuild, "rebuild", false, "Truncate fact tables and reload every staging row")
	return cmd
}
