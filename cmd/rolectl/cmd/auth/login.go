package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/terraconstructs/rolegate/cmd/rolectl/internal/config"
	"github.com/terraconstructs/rolegate/pkg/sdk"
	"golang.org/x/term"
)

func newLoginCmd() *cobra.Command {
	var (
		username      string
		password      string
		passwordStdin bool
	)

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the identity service",
		Long: `Signs in with a username (or email) and password and stores the session.

The password is prompted for when omitted and the terminal is interactive. Scripts can
pipe it in with --password-stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustFromContext(cmd.Context())

			if password == "" {
				var err error
				password, err = readPassword(cmd, cfg.NonInteractive, passwordStdin)
				if err != nil {
					return err
				}
			}

			ctx, cancel := cfg.WithTimeout(cmd.Context())
			defer cancel()

			login, err := cfg.ClientProvider.LoginController(ctx, nil)
			if err != nil {
				return err
			}
			session, err := login.Login(ctx, sdk.LoginInput{UsernameOrEmail: username, Password: password})
			if err != nil {
				cfg.Logger.Debug("login failed", slog.Any("error", err))
				return errors.New(login.Err())
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, pterm.Success.Sprintln("Login successful!"))
			fmt.Fprint(out, pterm.Info.Sprintf("Authenticated as: %s (%s)\n", session.Identity.Username, session.Identity.Email))
			return nil
		},
	}

	loginCmd.Flags().StringVarP(&username, "username", "u", "", "Username or email")
	loginCmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	loginCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return loginCmd
}

func readPassword(cmd *cobra.Command, nonInteractive, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read password from stdin: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	if nonInteractive || !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("password required: pass --password or --password-stdin in non-interactive mode")
	}

	password, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password")
	if err != nil {
		return "", fmt.Errorf("failed to show password prompt: %w", err)
	}
	return password, nil
}
