// Package cli holds the pubimport command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrlokans/pubimport/internal/apiclient"
	"github.com/mrlokans/pubimport/internal/config"
	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/importers"
)

// NewRootCommand builds the pubimport command tree. cfg supplies the
// defaults of the client flags.
func NewRootCommand(cfg *config.Config, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "pubimport",
		Short: "Import citations from BibTeX, RIS/EndNote and Zotero",
		Long: `pubimport parses citation exports into one publication record and
persists reviewed selections through the pubimport server.

Without a command the HTTP server is started.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serve := newServeCommand(cfg, version)
	root.RunE = serve.RunE

	root.AddCommand(
		serve,
		newParseCommand(),
		newSubmitCommand(cfg),
		newZoteroCommand(cfg),
	)
	return root
}

// Execute runs the root command and reports errors on stderr.
func Execute(cfg *config.Config, version string) int {
	if err := NewRootCommand(cfg, version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	return 0
}

// clientFlags are shared by the commands that talk to a running server.
type clientFlags struct {
	apiURL string
	token  string
}

func (f *clientFlags) register(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringVar(&f.apiURL, "api-url", cfg.Client.BaseURL, "pubimport server URL")
	cmd.Flags().StringVar(&f.token, "token", cfg.Client.Token, "API token sent as 'Authorization: Token ...'")
}

func (f *clientFlags) client() *apiclient.Client {
	var opts []apiclient.ClientOption
	if f.token != "" {
		opts = append(opts, apiclient.WithToken(f.token))
	}
	return apiclient.NewClient(f.apiURL, opts...)
}

// resolveMethod picks the text import method from the flag or, when the
// flag is empty, from the file extension.
func resolveMethod(format, path string) (entities.ImportMethod, error) {
	if format != "" {
		method, err := entities.ParseImportMethod(format)
		if err != nil {
			return "", err
		}
		if method == entities.ImportMethodZotero {
			return "", fmt.Errorf("zotero has no file format, use 'pubimport zotero import'")
		}
		return method, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".bib", ".bibtex":
		return entities.ImportMethodBibTeX, nil
	case ".ris", ".enw", ".xml", ".ref":
		return entities.ImportMethodEndNote, nil
	}
	return "", fmt.Errorf("cannot infer the format of %s, pass --format bibtex|endnote", path)
}

// readExport reads and decodes an export file after checking it against
// the method's allow-list.
func readExport(path string, method entities.ImportMethod) (string, error) {
	if err := importers.ValidateUpload(path, "", method); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return importers.DecodeText(data)
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	return fmt.Errorf("unknown output format %q (json, yaml)", format)
}
