// Package cli contains the cobra command constructors for the crmsync CLI.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/crmsync/internal/wire"
)

// LinksCmd returns the links command
func LinksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "List local entities linked to the remote CRM",
		Long: `List every local entity carrying a remote reference, across all
linkable entity types in a fixed order.

With --validate, each type's references are checked against the remote
system in one batched call per type, and broken links are marked.

Examples:
  crm links
  crm links --validate
  crm links --validate --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			validate, _ := cmd.Flags().GetBool("validate")
			asJSON, _ := cmd.Flags().GetBool("json")

			entities, err := wire.LinkService().Aggregate(context.Background(), validate)
			if err != nil {
				return fmt.Errorf("failed to aggregate links: %w", err)
			}

			if asJSON {
				data, err := json.MarshalIndent(entities, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal links: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			if len(entities) == 0 {
				fmt.Println("No linked entities found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tID\tREMOTE REF\tSTATUS")
			broken := 0
			for _, e := range entities {
				status := "-"
				if e.IsValid != nil {
					if *e.IsValid {
						status = color.New(color.FgGreen).Sprint("valid")
					} else {
						status = color.New(color.FgRed).Sprint("broken")
						broken++
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.EntityName, e.ID, e.RemoteRef, status)
			}
			w.Flush()

			fmt.Printf("\n%d linked entities", len(entities))
			if validate {
				fmt.Printf(", %d broken", broken)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().Bool("validate", false, "check each reference against the remote system")
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}
