package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/jobflow/internal/ingest"
)

// NewIngestCommand creates the ingest command.
func NewIngestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Load the source CSV into the staging table",
		Long: `Read the job postings CSV and replace the staging table with its rows.

Rows failing quality checks are logged and dropped. The normalized tables
are not touched; run "jobflow transform" afterwards.`,
		Example: `  # Stage a CSV export
  jobflow ingest --csv data/job_postings.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := ConfigFromContext(ctx)
			if cfg.CSVPath == "" {
				return fmt.Errorf("no CSV path configured (use --csv or csv_path in jobflow.yaml)")
			}

			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			result, err := ingest.New(st, LoggerFromContext(ctx)).Run(ctx, cfg.CSVPath)
			if err != nil {
				return fmt.Errorf("ingestion failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Staged %d rows (%d rejected) in %s\n",
				result.Staged, result.Rejected, result.Duration.Round(timeUnit))
			return nil
		},
	}
}
