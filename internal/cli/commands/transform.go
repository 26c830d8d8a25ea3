package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/jobflow/internal/transform"
)

const timeUnit = time.Millisecond

// TransformOptions holds options for the transform command.
type TransformOptions struct {
	Rebuild bool
}

// NewTransformCommand creates the transform command.
func NewTransformCommand() *cobra.Command {
	opts := &TransformOptions{}

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Normalize staged rows into the relational model",
		Long: `Transform the staging table into the normalized schema.

Dimension rows (companies, locations, platforms, schedule types, skills)
are created on first sight and reused afterwards. Fact rows already loaded
from a previous run are skipped, so rerunning over unchanged staging data
is a no-op. Use --rebuild to reload all facts from scratch; dimension ids
stay stable.`,
		Example: `  # Incremental transform
  jobflow transform

  # Reload the fact table from staging
  jobflow transform --rebuild`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := runTransform(cmd, opts)
			return err
		},
	}

	cmd.Flags().BoolVar(&opts.Rebuild, "rebuild", false, "Truncate fact tables and reload every staging row")
	return cmd
}

// runTransform executes a transform pass against an already open store and
// prints its summary. Shared by the transform and run commands.
func runTransform(cmd *cobra.Command, opts *TransformOptions) (*transform.Result, error) {
	ctx := cmd.Context()
	cfg := ConfigFromContext(ctx)

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	tr, err := transform.New(transform.Config{
		Store:     st,
		Logger:    LoggerFromContext(ctx),
		BatchSize: cfg.BatchSize,
		Workers:   cfg.Workers,
	})
	if err != nil {
		return nil, err
	}

	result, err := tr.Run(ctx, transform.Options{Rebuild: opts.Rebuild})
	if err != nil {
		return nil, fmt.Errorf("transform failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Run %s: loaded %d, skipped %d, failed %d in %s\n",
		result.RunID, result.Loaded, result.Skipped, len(result.Failed),
		result.Duration.Round(timeUnit))
	return result, nil
}
