package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/interview-prep/backend/internal/database"
)

func newMigrateCmd() *cobra.Command {
	var (
		down   int
		status bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
		Long: `Apply all pending migrations to the configured database.

Use --down N to roll back the last N migrations, or --status to print the
current schema version without changing anything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if down < 0 {
				return fmt.Errorf("--down must be positive")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := database.Connect(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			switch {
			case status:
			case down > 0:
				if err := database.Rollback(db, down); err != nil {
					return err
				}
				fmt.Fprintf(out, "Rolled back %d migration(s)\n", down)
			default:
				if err := database.Migrate(db); err != nil {
					return err
				}
				fmt.Fprintln(out, "Migrations applied")
			}

			v, dirty, err := database.Version(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Schema version: %d", v)
			if dirty {
				fmt.Fprint(out, " (dirty)")
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().IntVar(&down, "down", 0, "roll back this many migrations")
	cmd.Flags().BoolVar(&status, "status", false, "print the schema version only")
	cmd.MarkFlagsMutuallyExclusive("down", "status")

	return cmd
}
