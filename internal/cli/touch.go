package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/crmsync/internal/wire"
)

// TouchCmd returns the touch command
func TouchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "touch [remote-id]...",
		Short: "Force remote reindexing of entities",
		Long: `Issue a pair of no-op updates (append then strip a trailing space on
the name) against each named remote entity, with remote validation
disabled, so the remote system reindexes them downstream.

Failures on individual entities are logged and skipped.

Examples:
  crm touch A1
  crm touch A1 B7 C9`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			touched, err := wire.MaintenanceService().Touch(context.Background(), args...)
			if err != nil {
				return fmt.Errorf("touch failed: %w", err)
			}

			fmt.Printf("✓ Touched %d of %d remote entities\n", touched, len(args))
			return nil
		},
	}
}
