// Package main is the entry point for the filmlink CLI: one-shot search
// and link commands, the interactive picker and the editor service.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "filmlink",
	Short: "Search TMDB and insert markdown links to movies and TV shows",
	Long: `filmlink searches The Movie Database by title and produces markdown
links of the form [Title (Year)](https://www.imdb.com/title/<id>).

Use "search" and "link" for one-shot lookups, "pick" for the interactive
picker, and "serve" to run the HTTP and WebSocket service editor
extensions talk to.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./config.yaml, ./configs/config.yaml or ~/.filmlink/config.yaml)")
	rootCmd.PersistentFlags().Bool("mock", false, "use built-in mock metadata instead of the TMDB API")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
