package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/pubimport/internal/importers"
)

func newParseCommand() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a citation export and print the records",
		Long: `Parse a BibTeX, RIS or EndNote XML export and print the unified records
with their validation warnings. Nothing is sent to the server.

Usage:
  pubimport parse library.bib
  pubimport parse export.txt --format endnote --output yaml`,
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
			result, err := parser.Parse(content)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}
			return writeOutput(cmd.OutOrStdout(), output, result.From(args[0]))
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Export format (bibtex, endnote); inferred from the extension when empty")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format (json, yaml)")
	return cmd
}
