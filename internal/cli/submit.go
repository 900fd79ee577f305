package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrlokans/pubimport/internal/config"
	"github.com/mrlokans/pubimport/internal/importers"
	"github.com/mrlokans/pubimport/internal/review"
)

func newSubmitCommand(cfg *config.Config) *cobra.Command {
	var (
		format  string
		exclude []string
		client  clientFlags
	)

	cmd := &cobra.Command{
		Use:   "submit <file>",
		Short: "Parse a citation export and persist it on the server",
		Long: `Parse an export, select every record except the excluded IDs and send
the selection to the server's import endpoint.

Usage:
  pubimport submit library.bib
  pubimport submit export.ris --exclude ris-2 --exclude ris-5
  pubimport submit library.bib --api-url http://nas:8190 --token s3cret`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			method, err := resolveMethod(format, args[0])
			if err != nil {
				return err
			}
			content, err := readExport(args[0], method)
			if err != nil {
				return err
			}
			parser, err := importers.ParserFor(method)
			if err != nil {
				return err
			}

			sess := review.NewSession(method)
			if err := sess.ParseFile(parser, args[0], content); err != nil {
				if errors.Is(err, review.ErrNoRecords) {
					return fmt.Errorf("parsing %s: %w", args[0], err)
				}
				return err
			}
			return submitSession(cmd, sess, exclude, client.client())
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Export format (bibtex, endnote); inferred from the extension when empty")
	cmd.Flags().StringArrayVar(&exclude, "exclude", nil, "Record ID to leave out (repeatable)")
	client.register(cmd, cfg)
	return cmd
}

// submitSession deselects the excluded records of a parsed session, submits
// the rest and prints the outcome.
func submitSession(cmd *cobra.Command, sess *review.Session, exclude []string, sub review.Submitter) error {
	out := cmd.OutOrStdout()
	printWarnings(out, sess.Errors)

	for _, id := range exclude {
		if err := sess.Toggle(id); err != nil {
			return fmt.Errorf("--exclude %s: %w", id, err)
		}
		// Listed twice.
		if sess.IsSelected(id) {
			_ = sess.Toggle(id)
		}
	}

	fmt.Fprintf(out, "Submitting %d of %d publications\n", sess.SelectedCount(), len(sess.Records))
	resp, err := sess.Submit(cmd.Context(), sub)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, sess.Message)
	if resp.BatchID != "" {
		fmt.Fprintf(out, "Batch: %s\n", resp.BatchID)
	}
	return nil
}

func printWarnings(w io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "%d warnings:\n", len(warnings))
	for _, warning := range warnings {
		fmt.Fprintf(w, "  - %s\n", warning)
	}
}
