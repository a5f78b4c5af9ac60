package main

import (
	"github.com/spf13/cobra"

	"github.com/pixievault/pixievault/internal/config"
	"github.com/pixievault/pixievault/internal/filesystem"
	"github.com/pixievault/pixievault/internal/logging"
	"github.com/pixievault/pixievault/internal/store"
	"github.com/pixievault/pixievault/internal/usecase"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	dir      string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "pixievault",
		Short:        "pixievault - a small local password manager",
		Long:         "pixievault keeps login entries with custom fields in a single JSON document.",
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.dir, "dir", "", "Storage directory (default $"+config.DirEnv+" or the XDG data directory)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, or error")

	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newShowCmd(opts))
	cmd.AddCommand(newAddCmd(opts))
	cmd.AddCommand(newEditCmd(opts))
	cmd.AddCommand(newDeleteCmd(opts))
	cmd.AddCommand(newFieldsCmd(opts))
	cmd.AddCommand(newMCPCmd(opts))

	return cmd
}

// session is everything a command needs once the flags are parsed.
type session struct {
	log     logging.Logger
	entries *usecase.Entry
}

// openSession loads settings and the vault document from the configured directory.
func openSession(cmd *cobra.Command, opts *rootOptions) (*session, error) {
	log, err := logging.New(cmd.ErrOrStderr(), opts.logLevel)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	dir := config.ResolveDir(opts.dir)

	settingsPath := config.SettingsPath(dir)
	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		return nil, err
	}
	if settings.EncryptionEnabled {
		log.Warn(ctx, "encryption_enabled is set but encryption is not implemented; entries are stored unencrypted", "path", settingsPath)
	}

	documentPath := config.DocumentPath(dir)
	if !filesystem.FileExists(documentPath) {
		log.Info(ctx, "no vault document yet; it is created on the first change", "path", documentPath)
	}
	s, err := store.Open(store.NewFileBackend(documentPath))
	if err != nil {
		return nil, err
	}
	log.Debug(ctx, "vault opened", "path", documentPath)

	return &session{
		log:     log,
		entries: usecase.NewEntry(s, log),
	}, nil
}
