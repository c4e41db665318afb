package auth

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/terraconstructs/rolegate/cmd/rolectl/internal/config"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Long:  `Clears the stored session. The identity service is not contacted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustFromContext(cmd.Context())

			gate, err := cfg.ClientProvider.AccessGate(cmd.Context(), nil)
			if err != nil {
				return err
			}
			if err := gate.Logout(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), pterm.Success.Sprintln("Logged out successfully"))
			return nil
		},
	}
}
