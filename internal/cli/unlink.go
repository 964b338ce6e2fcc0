package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/crmsync/internal/core/linked"
	"github.com/example/crmsync/internal/wire"
)

// UnlinkCmd returns the unlink command
func UnlinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unlink",
		Short: "Clear all local-to-remote links",
		Long: `Mass-clear the remote reference on every linked local row, across all
linkable entity types. Local rows are otherwise untouched.

Destructive; requires --confirm.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			confirm, _ := cmd.Flags().GetBool("confirm")
			if !confirm {
				return fmt.Errorf("unlink clears every remote reference; re-run with --confirm")
			}

			counts, err := wire.MaintenanceService().Unlink(context.Background())
			if err != nil {
				return fmt.Errorf("unlink failed: %w", err)
			}

			var total int64
			for _, t := range linked.All() {
				n := counts[t.String()]
				fmt.Printf("  %s: %d\n", t, n)
				total += n
			}
			fmt.Printf("✓ Cleared %d remote references\n", total)
			return nil
		},
	}

	cmd.Flags().Bool("confirm", false, "actually clear the references")
	return cmd
}
