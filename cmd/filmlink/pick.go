package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/filmlink/filmlink/internal/editor"
	"github.com/filmlink/filmlink/internal/metadata"
	"github.com/filmlink/filmlink/internal/tui"
)

var errPickCanceled = errors.New("canceled")

var pickCmd = &cobra.Command{
	Use:   "pick <movie|tv> [query...]",
	Short: "Interactively search and pick a title",
	Long: `Pick opens a search-as-you-type picker. The input starts with the
query, or with the selection in --file. Results update as you type; enter
inserts the link for the highlighted result.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPick,
}

func init() {
	addDocumentFlags(pickCmd)

	rootCmd.AddCommand(pickCmd)
}

func runPick(cmd *cobra.Command, args []string) error {
	kind, err := metadata.ParseMediaKind(args[0])
	if err != nil {
		return err
	}
	query := strings.Join(args[1:], " ")

	buf, err := openDocument(cmd, query)
	if err != nil {
		return err
	}
	doc := buf
	if doc == nil {
		// Without a file the picker edits a scratch buffer holding the query.
		doc = editor.NewBuffer(query)
		if err := doc.Select(0, len(query)); err != nil {
			return err
		}
	}

	a, err := newApp(cmd, appOptions{quietConsole: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireProvider(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	notices := tui.NewNotices()
	session := a.session(ctx, kind, notices)

	final, err := tea.NewProgram(tui.New(ctx, session, doc, notices), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return fmt.Errorf("picker failed: %w", err)
	}

	model, ok := final.(tui.Model)
	if !ok || model.Canceled() || model.Link() == "" {
		return errPickCanceled
	}

	return deliver(cmd, buf, model.Link())
}
