package auth

import (
	"github.com/spf13/cobra"
)

// NewAuthCmd is the parent command for auth operations
func NewAuthCmd() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
		Long:  `Commands for signing in, signing out and checking the current session.`,
	}
	authCmd.AddCommand(newLoginCmd())
	authCmd.AddCommand(newLogoutCmd())
	authCmd.AddCommand(newStatusCmd())
	return authCmd
}
