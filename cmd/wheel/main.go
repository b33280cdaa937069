package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "wheel",
		Short:   "Resolve a household chore rotation from a YAML file and manage database snapshots",
		Version: Version,
	}
	rootCmd.PersistentFlags().StringP("file", "f", "house.yaml", "Household YAML file")

	rootCmd.AddCommand(weekCmd())
	rootCmd.AddCommand(monthCmd())
	rootCmd.AddCommand(bundlesCmd())
	rootCmd.AddCommand(snapshotsCmd())
	rootCmd.AddCommand(restoreCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
