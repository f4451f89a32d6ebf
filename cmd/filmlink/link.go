package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/filmlink/filmlink/internal/editor"
	"github.com/filmlink/filmlink/internal/metadata"
)

var linkCmd = &cobra.Command{
	Use:   "link <movie|tv> <title...>",
	Short: "Print or insert the markdown link for a title",
	Long: `Link searches for the title, picks the result at --index and prints its
markdown link. With --file the link replaces a selection in that file: the
byte range --from/--to, the first occurrence of --select, or the first
occurrence of the title itself.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runLink,
}

func init() {
	linkCmd.Flags().Int("index", 1, "1-based index of the search result to use")
	addDocumentFlags(linkCmd)

	rootCmd.AddCommand(linkCmd)
}

func addDocumentFlags(cmd *cobra.Command) {
	cmd.Flags().String("file", "", "markdown file to insert the link into")
	cmd.Flags().String("select", "", "text in --file to replace (default: the title)")
	cmd.Flags().Int("from", -1, "start byte offset of the selection in --file")
	cmd.Flags().Int("to", -1, "end byte offset of the selection in --file")
	cmd.Flags().Bool("copy", false, "copy the link to the clipboard")
}

// openDocument returns the buffer named by --file with its selection set,
// or nil when no file was given.
func openDocument(cmd *cobra.Command, fallbackSelection string) (*editor.Buffer, error) {
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		return nil, nil
	}

	buf, err := editor.OpenFile(path)
	if err != nil {
		return nil, err
	}

	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")
	if from >= 0 && to >= 0 {
		if err := buf.Select(from, to); err != nil {
			return nil, err
		}
		return buf, nil
	}

	needle, _ := cmd.Flags().GetString("select")
	if needle == "" {
		needle = fallbackSelection
	}
	if needle != "" && !buf.SelectText(needle) {
		return nil, fmt.Errorf("%q not found in %s", needle, path)
	}
	return buf, nil
}

// deliver saves the document and copies the link when requested.
func deliver(cmd *cobra.Command, buf *editor.Buffer, link string) error {
	if buf != nil {
		if err := buf.Save(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Updated %s\n", buf.Path())
	}

	if copyLink, _ := cmd.Flags().GetBool("copy"); copyLink {
		if err := clipboard.WriteAll(link); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Fprintln(os.Stderr, "Copied to clipboard")
	}

	fmt.Fprintln(os.Stdout, link)
	return nil
}

func runLink(cmd *cobra.Command, args []string) error {
	kind, err := metadata.ParseMediaKind(args[0])
	if err != nil {
		return err
	}
	title := strings.Join(args[1:], " ")
	index, _ := cmd.Flags().GetInt("index")

	buf, err := openDocument(cmd, title)
	if err != nil {
		return err
	}

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
	if len(candidates) == 0 {
		return fmt.Errorf("no %ss found for %q", kind.Label(), title)
	}
	if index < 1 || index > len(candidates) {
		return fmt.Errorf("index %d out of range, %d results", index, len(candidates))
	}
	chosen := candidates[index-1]

	var link string
	var ok bool
	if buf != nil {
		link, ok = session.Choose(cmd.Context(), chosen, buf)
	} else {
		link, ok = session.Link(cmd.Context(), chosen)
	}
	if !ok {
		return fmt.Errorf("could not resolve a link for %q", chosen.Title)
	}

	return deliver(cmd, buf, link)
}
