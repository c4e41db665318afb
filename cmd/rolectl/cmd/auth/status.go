package auth

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/terraconstructs/rolegate/cmd/rolectl/internal/config"
	"github.com/terraconstructs/rolegate/cmd/rolectl/internal/render"
	"github.com/terraconstructs/rolegate/pkg/sdk"
)

func newStatusCmd() *cobra.Command {
	var requireVerified bool

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Display the signed-in account",
		Long: `Resolves the current account and shows the dashboard. Administrators also see the
user roster with one column per role.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustFromContext(cmd.Context())

			ctx, cancel := cfg.WithTimeout(cmd.Context())
			defer cancel()

			var opts []sdk.Option
			if requireVerified {
				opts = append(opts, sdk.WithRequireVerifiedIdentity())
			}
			gate, err := cfg.ClientProvider.AccessGate(ctx, nil, opts...)
			if err != nil {
				return err
			}
			gate.Activate(ctx)

			view := gate.View()
			if err := render.View(cmd.OutOrStdout(), view); err != nil {
				return err
			}
			if view.State == sdk.GateError {
				return errors.New("not logged in")
			}
			return nil
		},
	}

	statusCmd.Flags().BoolVar(&requireVerified, "require-verified", false, "Only show the roster once the identity service confirms the account")
	return statusCmd
}
