package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/pubimport/internal/config"
	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/review"
	"github.com/mrlokans/pubimport/internal/zotero"
)

// zoteroFlags select the credentials: explicit flags, or the ones stored
// on the server when both are empty.
type zoteroFlags struct {
	clientFlags
	userID   string
	apiKey   string
	remember bool
}

func (f *zoteroFlags) register(cmd *cobra.Command, cfg *config.Config) {
	f.clientFlags.register(cmd, cfg)
	cmd.Flags().StringVar(&f.userID, "user", "", "Zotero user ID (default: stored on the server)")
	cmd.Flags().StringVar(&f.apiKey, "key", "", "Zotero API key (default: stored on the server)")
	cmd.Flags().BoolVar(&f.remember, "remember", false, "Store --user and --key on the server")
}

func (f *zoteroFlags) connect(ctx context.Context, api review.ZoteroAPI) (*review.ZoteroConnection, error) {
	conn := review.NewZoteroConnection(api, f.client())
	if f.userID == "" && f.apiKey == "" {
		if err := conn.Resume(ctx); err != nil {
			return nil, fmt.Errorf("no usable stored credentials (pass --user and --key): %w", err)
		}
		return conn, nil
	}

	creds := entities.ZoteroCredentials{UserID: f.userID, APIKey: f.apiKey}
	if _, err := conn.Connect(ctx, creds, f.remember); err != nil {
		return nil, err
	}
	return conn, nil
}

func newZoteroCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zotero",
		Short: "Browse and import a Zotero library",
	}

	newAPI := func() review.ZoteroAPI {
		return zotero.NewClient(
			zotero.WithBaseURL(cfg.Zotero.APIURL),
			zotero.WithRateLimit(cfg.Zotero.RequestsPerSecond),
		)
	}
	cmd.AddCommand(
		newZoteroCollectionsCommand(cfg, newAPI),
		newZoteroImportCommand(cfg, newAPI),
	)
	return cmd
}

func newZoteroCollectionsCommand(cfg *config.Config, newAPI func() review.ZoteroAPI) *cobra.Command {
	var flags zoteroFlags

	cmd := &cobra.Command{
		Use:   "collections",
		Short: "List the collections of a Zotero library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := flags.connect(cmd.Context(), newAPI())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if conn.Warning != "" {
				fmt.Fprintf(out, "Warning: %s\n", conn.Warning)
			}
			for _, c := range conn.Collections {
				key := c.Key
				if key == "" {
					key = "-"
				}
				fmt.Fprintf(out, "%-10s %5d  %s\n", key, c.NumItems, c.Name)
			}
			return nil
		},
	}

	flags.register(cmd, cfg)
	return cmd
}

func newZoteroImportCommand(cfg *config.Config, newAPI func() review.ZoteroAPI) *cobra.Command {
	var (
		flags      zoteroFlags
		collection string
		limit      int
		exclude    []string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Fetch Zotero items and persist them on the server",
		Long: `Fetch the newest items of a collection (or the whole library) and send
them to the server's import endpoint.

Usage:
  pubimport zotero import --collection ABCD1234 --limit 25
  pubimport zotero import --user 12345 --key xxxx --remember`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, err := flags.connect(ctx, newAPI())
			if err != nil {
				return err
			}

			result, err := conn.FetchPublications(ctx, collection, zotero.ClampLimit(limit))
			if err != nil {
				return err
			}

			sess := review.NewSession(entities.ImportMethodZotero)
			if err := sess.Load(result); err != nil {
				return err
			}
			return submitSession(cmd, sess, exclude, flags.client())
		},
	}

	flags.register(cmd, cfg)
	cmd.Flags().StringVar(&collection, "collection", "", "Collection key (default: whole library)")
	cmd.Flags().IntVar(&limit, "limit", zotero.DefaultItemLimit, fmt.Sprintf("Number of items to fetch (max %d)", zotero.MaxItemLimit))
	cmd.Flags().StringArrayVar(&exclude, "exclude", nil, "Record ID to leave out (repeatable)")
	return cmd
}
