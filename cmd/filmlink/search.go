package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/filmlink/filmlink/internal/metadata"
	"github.com/filmlink/filmlink/internal/suggest"
)

var searchCmd = &cobra.Command{
	Use:   "search <movie|tv> <title...>",
	Short: "Search movies or TV shows by title",
	Long: `Search runs a single TMDB search and lists the results with their year
and genres. The index printed in front of each result can be passed to
"filmlink link --index".`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Bool("json", false, "print results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	kind, err := metadata.ParseMediaKind(args[0])
	if err != nil {
		return err
	}
	title := strings.Join(args[1:], " ")
	asJSON, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireProvider(); err != nil {
		return err
	}

	session := a.session(cmd.Context(), kind, stderrNotifier())
	candidates, err := session.Lookup(cmd.Context(), title)
	if err != nil {
		return err
	}
	items := session.RenderAll(candidates)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	if len(items) == 0 {
		fmt.Fprintf(os.Stderr, "No %ss found for %q\n", kind.Label(), title)
		return nil
	}
	printItems(os.Stdout, items)
	return nil
}

func printItems(w io.Writer, items []suggest.Item) {
	for i, item := range items {
		line := fmt.Sprintf("%3d  %s", i+1, item.Display.Title)
		if item.Display.Description != "" {
			line += "  (" + item.Display.Description + ")"
		}
		fmt.Fprintln(w, line)
	}
}

// stderrNotifier prints notices where the user sees them without
// polluting stdout.
func stderrNotifier() suggest.Notifier {
	return suggest.NotifierFunc(func(message string) {
		fmt.Fprintln(os.Stderr, message)
	})
}
