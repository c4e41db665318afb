package users

import (
	"errors"
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/terraconstructs/rolegate/cmd/rolectl/internal/config"
	"github.com/terraconstructs/rolegate/pkg/sdk"
)

func newRolesCmd() *cobra.Command {
	rolesCmd := &cobra.Command{
		Use:   "roles",
		Short: "Change the roles of a user",
		Long: `Grants and revokes the admin, moderator and user roles. Other labels a user
carries are left untouched.`,
	}
	rolesCmd.AddCommand(newSetCmd())
	rolesCmd.AddCommand(newToggleCmd())
	rolesCmd.AddCommand(newEditCmd())
	return rolesCmd
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set USER_ID [ROLE...]",
		Short: "Replace the roles of a user",
		Example: `  rolectl users roles set 2 user moderator
  rolectl users roles set 2          # revoke every editable role`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustFromContext(cmd.Context())
			ctx, cancel := cfg.WithTimeout(cmd.Context())
			defer cancel()

			gate, _, err := activeGate(ctx, cfg)
			if err != nil {
				return err
			}
			editor, err := editorFor(gate, args[0])
			if err != nil {
				return err
			}
			if err := editor.SetRoles(ctx, args[1:]); err != nil {
				return err
			}
			return reportUpdate(cmd.OutOrStdout(), gate, editor)
		},
	}
}

func newToggleCmd() *cobra.Command {
	var on, off bool

	toggleCmd := &cobra.Command{
		Use:     "toggle USER_ID ROLE (--on|--off)",
		Short:   "Grant or revoke a single role",
		Example: `  rolectl users roles toggle 2 moderator --on`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustFromContext(cmd.Context())
			ctx, cancel := cfg.WithTimeout(cmd.Context())
			defer cancel()

			gate, _, err := activeGate(ctx, cfg)
			if err != nil {
				return err
			}
			editor, err := editorFor(gate, args[0])
			if err != nil {
				return err
			}
			if err := editor.Toggle(ctx, args[1], on); err != nil {
				return err
			}
			return reportUpdate(cmd.OutOrStdout(), gate, editor)
		},
	}

	toggleCmd.Flags().BoolVar(&on, "on", false, "Grant the role")
	toggleCmd.Flags().BoolVar(&off, "off", false, "Revoke the role")
	toggleCmd.MarkFlagsMutuallyExclusive("on", "off")
	toggleCmd.MarkFlagsOneRequired("on", "off")
	return toggleCmd
}

func newEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit USER_ID",
		Short: "Pick the roles of a user interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustFromContext(cmd.Context())
			if cfg.NonInteractive {
				return errors.New("edit is interactive; use `rolectl users roles set` in non-interactive mode")
			}

			ctx, cancel := cfg.WithTimeout(cmd.Context())
			defer cancel()

			gate, _, err := activeGate(ctx, cfg)
			if err != nil {
				return err
			}
			editor, err := editorFor(gate, args[0])
			if err != nil {
				return err
			}

			var checked []string
			for _, role := range sdk.EditableRoles {
				if editor.Checked(role) {
					checked = append(checked, role)
				}
			}
			entry := editor.Entry()
			selected, err := pterm.DefaultInteractiveMultiselect.
				WithOptions(sdk.EditableRoles).
				WithDefaultOptions(checked).
				WithFilter(false).
				WithCheckmark(&pterm.Checkmark{Checked: pterm.Green("✓"), Unchecked: " "}).
				Show(fmt.Sprintf("Roles for %s:", entry.Username))
			if err != nil {
				return fmt.Errorf("failed to show interactive prompt: %w", err)
			}

			if err := editor.SetRoles(ctx, selected); err != nil {
				return err
			}
			return reportUpdate(cmd.OutOrStdout(), gate, editor)
		},
	}
}

// reportUpdate surfaces the mutation outcome published by the roster controller.
func reportUpdate(w io.Writer, gate *sdk.AccessGate, editor *sdk.RoleEditor) error {
	if msg := gate.Roster().Err(); msg != "" {
		return errors.New(msg)
	}
	entry := editor.Entry()
	fmt.Fprint(w, pterm.Success.Sprintf("Updated roles for %s\n", entry.Username))
	roles := editor.Roles().String()
	if roles == "" {
		roles = "none"
	}
	fmt.Fprint(w, pterm.Info.Sprintf("Current roles: %s\n", roles))
	return nil
}
