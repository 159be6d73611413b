package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joncooperworks/keystorecipher/config"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "keystorecipher",
		Short: "Encrypt short strings under keys held in the OS keystore",
		Long: `keystorecipher encrypts and decrypts short strings (tokens, passwords)
with an AES data key per alias. Data keys are wrapped by a key pair in the
platform keystore, or kept in a passphrase-protected keyring on platforms
without one.

Settings are read from a TOML file and KEYSTORECIPHER_* environment variables.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $"+config.EnvConfigPath+" or the user config directory)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newEncryptCmd(opts),
		newDecryptCmd(opts),
		newKeysCmd(opts),
		newStatusCmd(opts),
	)
	return cmd
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	// Cipher failures are logged at Warn with their cause and stay hidden
	// unless --verbose is given.
	level := slog.LevelError
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// app loads the configuration and builds the cipher for one command run.
func (o *rootOptions) app(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, o.logger(cmd), credentialInstructions(cmd.ErrOrStderr()))
}
