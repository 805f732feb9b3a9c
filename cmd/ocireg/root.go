package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dirdmaster/ocireg/internal/config"
	"github.com/dirdmaster/ocireg/internal/regclient"
)

// rootFlags holds the persistent flag values shared by every subcommand.
// Passed by pointer to subcommand factories rather than stored in package
// globals, so tests can construct independent root commands.
type rootFlags struct {
	insecure bool
	username string
	password string
	logLevel string
}

// newRootCmd builds the ocireg root command with isolated flag state.
func newRootCmd() *cobra.Command {
	defaults := config.Load()
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "ocireg",
		Short:         "Inspect OCI/Docker registries: manifests, blobs, and auth",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().BoolVar(&flags.insecure, "insecure", defaults.Insecure, "use http instead of https")
	root.PersistentFlags().StringVar(&flags.username, "username", defaults.Username, "registry username")
	root.PersistentFlags().StringVar(&flags.password, "password", defaults.Password, "registry password")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(newManifestCmd(flags))
	root.AddCommand(newBlobCmd(flags))
	root.AddCommand(newAuthCmd(flags))

	return root
}

// buildClient constructs a registry client for the given host, wiring the
// shared logging transport and credentials from flags.
func buildClient(flags *rootFlags, registry string) *regclient.Client {
	logger := newLogger(levelFromString(flags.logLevel))
	return regclient.New(regclient.Options{
		Registry:  registry,
		Insecure:  flags.insecure,
		Username:  flags.username,
		Password:  flags.password,
		Transport: newTransport(logger),
	})
}

func levelFromString(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
