package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/terraconstructs/rolegate/cmd/rolectl/cmd/auth"
	"github.com/terraconstructs/rolegate/cmd/rolectl/cmd/users"
	"github.com/terraconstructs/rolegate/cmd/rolectl/internal/client"
	"github.com/terraconstructs/rolegate/cmd/rolectl/internal/config"
	"github.com/terraconstructs/rolegate/internal/logging"
)

// NewRootCmd builds the rolectl command tree.
func NewRootCmd() *cobra.Command {
	var (
		serverURL      string
		nonInteractive bool
		sessionBackend string
		redisAddr      string
		logFormat      string
		logLevel       string
	)

	rootCmd := &cobra.Command{
		Use:   "rolectl",
		Short: "rolectl - sign in and manage user roles",
		Long: `rolectl is the command-line client for the identity service. Use it to sign in,
inspect the current account and, as an administrator, grant or revoke user roles.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.LoadEnv()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			// Flags override environment defaults
			flags := cmd.Flags()
			if !flags.Changed("server") {
				serverURL = env.Server
			}
			if !flags.Changed("non-interactive") {
				nonInteractive = env.NonInteractive
			}
			if !flags.Changed("session-backend") {
				sessionBackend = env.SessionBackend
			}
			if !flags.Changed("redis-addr") {
				redisAddr = env.RedisAddr
			}
			if !flags.Changed("log-format") {
				logFormat = env.LogFormat
			}
			if !flags.Changed("log-level") {
				logLevel = env.LogLevel
			}
			if err := config.ValidateBackend(sessionBackend); err != nil {
				return err
			}

			logger := logging.New(cmd.ErrOrStderr(), logging.Options{Format: logFormat, Level: logLevel})
			cfg := &config.GlobalConfig{
				ServerURL:      serverURL,
				NonInteractive: nonInteractive,
				Timeout:        env.Timeout,
				Logger:         logger,
				ClientProvider: client.NewProvider(client.Options{
					ServerURL:      serverURL,
					SessionBackend: sessionBackend,
					RedisAddr:      redisAddr,
					Logger:         logger,
				}),
			}
			cmd.SetContext(config.InjectConfig(cmd.Context(), cfg))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			cfg, ok := config.FromContext(cmd.Context())
			if !ok {
				return nil
			}
			return cfg.ClientProvider.Close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&serverURL, "server", "http://localhost:8000", "Identity service URL (also set via ROLEGATE_SERVER)")
	flags.BoolVar(&nonInteractive, "non-interactive", false, "Disable interactive prompts (also set via ROLEGATE_NON_INTERACTIVE=true)")
	flags.StringVar(&sessionBackend, "session-backend", config.BackendFile, "Where the session is kept: file or redis")
	flags.StringVar(&redisAddr, "redis-addr", "127.0.0.1:6379", "Redis address for the redis session backend")
	flags.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	flags.StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(auth.NewAuthCmd())
	rootCmd.AddCommand(users.NewUsersCmd())
	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
