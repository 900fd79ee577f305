package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/pubimport/internal/config"
	"github.com/mrlokans/pubimport/internal/entrypoint"
)

func newServeCommand(cfg *config.Config, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entrypoint.Run(cfg, version)
			return nil
		},
	}
}
