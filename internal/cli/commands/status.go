package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show row counts for the staging and normalized tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			version, err := st.MigrationVersion()
			if err != nil {
				return fmt.Errorf("failed to read schema version: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Target: %s (schema version %d)\n\n", st.Type(), version)
			for _, table := range []string{
				"staging_jobs", "companies", "locations", "platforms",
				"schedule_types", "skill_categories", "skills", "jobs", "job_skills",
			} {
				n, err := st.Count(ctx, table)
				if err != nil {
					return fmt.Errorf("failed to count %s: %w", table, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %-18s %d\n", table, n)
			}
			return nil
		},
	}
}
