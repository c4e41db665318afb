package users

import (
	"github.com/spf13/cobra"
	"github.com/terraconstructs/rolegate/cmd/rolectl/internal/config"
	"github.com/terraconstructs/rolegate/cmd/rolectl/internal/render"
)

func newListCmd() *cobra.Command {
	var output string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all users with their roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := render.ValidateFormat(output); err != nil {
				return err
			}
			cfg := config.MustFromContext(cmd.Context())

			ctx, cancel := cfg.WithTimeout(cmd.Context())
			defer cancel()

			_, view, err := activeGate(ctx, cfg)
			if err != nil {
				return err
			}
			return render.Roster(cmd.OutOrStdout(), view.Roster, output)
		},
	}

	listCmd.Flags().StringVarP(&output, "output", "o", render.FormatTable, "Output format: table, json or yaml")
	return listCmd
}
