package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/crmsync/internal/ports/primary"
	"github.com/example/crmsync/internal/wire"
)

// ErrorsCmd returns the errors command
func ErrorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "errors",
		Short: "Manage tracked synchronization errors",
		Long:  "List, resolve, archive, and un-archive sync errors recorded by the sync pipeline.",
	}

	cmd.AddCommand(errorsListCmd())
	cmd.AddCommand(errorsResolveCmd())
	cmd.AddCommand(errorsArchiveCmd())
	cmd.AddCommand(errorsUnarchiveCmd())
	cmd.AddCommand(errorsArchiveAllCmd())
	cmd.AddCommand(errorsUnarchiveAllCmd())

	return cmd
}

func errorsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sync errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, _ := cmd.Flags().GetString("entity-type")
			entityID, _ := cmd.Flags().GetString("entity-id")
			strategy, _ := cmd.Flags().GetString("strategy")
			unresolved, _ := cmd.Flags().GetBool("unresolved")
			limit, _ := cmd.Flags().GetInt("limit")

			errs, err := wire.SyncErrorService().List(context.Background(), primary.SyncErrorFilters{
				Entity:     primary.EntityRef{Type: entityType, ID: entityID},
				Strategy:   strategy,
				Unresolved: unresolved,
				Limit:      limit,
			})
			if err != nil {
				return fmt.Errorf("failed to list errors: %w", err)
			}

			if len(errs) == 0 {
				fmt.Println("No sync errors found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tENTITY\tSTRATEGY\tSTATE\tCREATED\tMESSAGE")
			for _, e := range errs {
				fmt.Fprintf(w, "%s\t%s/%s\t%s\t%s\t%s\t%s\n",
					shortID(e.ID), e.Entity.Type, e.Entity.ID, e.Strategy,
					stateMarker(e), e.CreatedAt.Format(time.DateTime), truncate(e.Message, 60))
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().String("entity-type", "", "filter by entity type")
	cmd.Flags().String("entity-id", "", "filter by entity id")
	cmd.Flags().String("strategy", "", "filter by sync strategy")
	cmd.Flags().Bool("unresolved", false, "only unresolved errors")
	cmd.Flags().Int("limit", 50, "maximum rows")
	return cmd
}

func errorsResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [error-id]",
		Short: "Mark a sync error as resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.SyncErrorService().Resolve(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to resolve error: %w", err)
			}
			fmt.Printf("✓ Resolved %s\n", args[0])
			return nil
		},
	}
}

func errorsArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive [error-id]...",
		Short: "Archive sync errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.SyncErrorService().ArchiveByIDs(context.Background(), args); err != nil {
				return fmt.Errorf("failed to archive errors: %w", err)
			}
			fmt.Printf("✓ Archived %d errors\n", len(args))
			return nil
		},
	}
}

func errorsUnarchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unarchive [error-id]...",
		Short: "Un-archive sync errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.SyncErrorService().UnarchiveByIDs(context.Background(), args); err != nil {
				return fmt.Errorf("failed to un-archive errors: %w", err)
			}
			fmt.Printf("✓ Un-archived %d errors\n", len(args))
			return nil
		},
	}
}

func errorsArchiveAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive-all",
		Short: "Archive every sync error not archived yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := wire.SyncErrorService().ArchiveAll(context.Background())
			if err != nil {
				return fmt.Errorf("archive-all failed: %w", err)
			}
			fmt.Printf("✓ Archived %d errors\n", n)
			return nil
		},
	}
}

func errorsUnarchiveAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unarchive-all",
		Short: "Un-archive every archived error that is still unresolved",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := wire.SyncErrorService().UnarchiveAllNotResolved(context.Background())
			if err != nil {
				return fmt.Errorf("unarchive-all failed: %w", err)
			}
			fmt.Printf("✓ Un-archived %d errors\n", n)
			return nil
		},
	}
}

func stateMarker(e *primary.SyncError) string {
	switch {
	case e.ResolvedAt != nil && e.ArchivedAt != nil:
		return color.New(color.FgGreen).Sprint("resolved+archived")
	case e.ResolvedAt != nil:
		return color.New(color.FgGreen).Sprint("resolved")
	case e.ArchivedAt != nil:
		return color.New(color.FgYellow).Sprint("archived")
	default:
		return color.New(color.FgRed).Sprint("open")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
