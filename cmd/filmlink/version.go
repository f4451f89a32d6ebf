package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/filmlink/filmlink/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of filmlink",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "filmlink %s\n", config.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
