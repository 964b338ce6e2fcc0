package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/crmsync/internal/config"
	"github.com/example/crmsync/internal/db"
)

// DoctorCmd returns the doctor command
func DoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the local crmsync setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			ok := color.New(color.FgGreen).Sprint("ok")
			fail := color.New(color.FgRed).Sprint("FAIL")
			healthy := true

			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}

			cfg, err := config.Load(home)
			if err != nil {
				fmt.Printf("config: %s (%v)\n", fail, err)
				healthy = false
			} else {
				fmt.Printf("config: %s\n", ok)
				if cfg.DefaultClientEmail == "" {
					fmt.Printf("  default_client_email not set: projecting clients without an email will fail\n")
				}
			}

			if _, err := db.GetDB(); err != nil {
				fmt.Printf("database: %s (%v)\n", fail, err)
				healthy = false
			} else {
				path, _ := db.GetDBPath()
				fmt.Printf("database: %s (%s)\n", ok, path)
			}

			if !healthy {
				return fmt.Errorf("setup is not healthy")
			}
			fmt.Println("✓ All checks passed")
			return nil
		},
	}
}
