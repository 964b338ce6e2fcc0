package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/crmsync/internal/cli"
	"github.com/example/crmsync/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "crm",
		Short:   "crmsync - local CRM synchronization maintenance",
		Version: version.String(),
		Long: `crmsync maintains the links between local entities and the remote CRM:
it lists and validates remote references, tracks synchronization errors,
and runs remote maintenance sweeps.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.LinksCmd())
	rootCmd.AddCommand(cli.TouchCmd())
	rootCmd.AddCommand(cli.UnlinkCmd())
	rootCmd.AddCommand(cli.ErrorsCmd())
	rootCmd.AddCommand(cli.DoctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
