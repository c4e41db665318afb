package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/terraconstructs/rolegate/cmd/rolectl/internal/config"
	"github.com/terraconstructs/rolegate/pkg/sdk"
)

// NewUsersCmd is the parent command for roster operations
func NewUsersCmd() *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "List users and manage their roles",
		Long:  `Commands available to administrators for listing users and changing their roles.`,
	}
	usersCmd.AddCommand(newListCmd())
	usersCmd.AddCommand(newRolesCmd())
	return usersCmd
}

// activeGate resolves the session and roster and fails unless the roster editor is available.
func activeGate(ctx context.Context, cfg *config.GlobalConfig) (*sdk.AccessGate, sdk.View, error) {
	gate, err := cfg.ClientProvider.AccessGate(ctx, nil)
	if err != nil {
		return nil, sdk.View{}, err
	}
	gate.Activate(ctx)

	view := gate.View()
	switch {
	case view.Privileged && gate.Roster().Err() != "":
		// The cached identity may still say admin after a failed or denied fetch.
		return nil, view, errors.New(gate.Roster().Err())
	case view.Privileged:
		return gate, view, nil
	case view.State == sdk.GateError:
		return nil, view, fmt.Errorf("not logged in: %s", view.Error)
	case view.Error != "":
		return nil, view, errors.New(view.Error)
	default:
		return nil, view, errors.New(sdk.MsgAccessDenied)
	}
}

func editorFor(gate *sdk.AccessGate, arg string) (*sdk.RoleEditor, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q", arg)
	}
	editor, ok := gate.Editor(id)
	if !ok {
		return nil, fmt.Errorf("user %d not found", id)
	}
	return editor, nil
}
