// Package cli holds the command-line surface. The root command starts the
// desktop app; subcommands drive the same backend without a window.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tartampluch/go-waifu-birthday/internal/config"
	"github.com/tartampluch/go-waifu-birthday/internal/engine"
	"github.com/tartampluch/go-waifu-birthday/internal/identity"
	"github.com/tartampluch/go-waifu-birthday/internal/notify"
)

// Options carries the state shared by every command.
type Options struct {
	Viper    *viper.Viper
	Settings config.Settings

	// GUI starts the desktop app. The root command runs it when no subcommand
	// is given; a nil GUI prints the help instead.
	GUI func(ctx context.Context, opts *Options) error

	// IdentityStore replaces the keyring store with its file fallback.
	IdentityStore identity.Store

	// LedgerDir replaces the dispatch ledger location under the cache dir.
	LedgerDir string
	Clock     engine.Clock

	logCloser io.Closer
}

// NewRootCommand builds the command tree around opts.
func NewRootCommand(opts *Options) *cobra.Command {
	if opts.Viper == nil {
		opts.Viper = config.NewViper()
	}

	cmd := &cobra.Command{
		Use:           config.CmdRoot,
		Short:         config.ShortRoot,
		Long:          config.ShortRoot + ".\n\n" + config.LongRoot,
		Version:       config.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.prepare(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.GUI == nil {
				return cmd.Help()
			}
			return opts.GUI(cmd.Context(), opts)
		},
	}
	cmd.SetVersionTemplate(fmt.Sprintf(config.MsgVersionOutput,
		config.AppName, config.Version, runtime.GOOS, runtime.GOARCH))

	flags := cmd.PersistentFlags()
	flags.String(config.FlagAPIURL, config.DefaultAPIURL, config.FlagDescAPI)
	flags.Bool(config.FlagDebug, false, config.FlagDescDebug)
	_ = opts.Viper.BindPFlag(config.KeyAPIURL, flags.Lookup(config.FlagAPIURL))
	_ = opts.Viper.BindPFlag(config.KeyDebug, flags.Lookup(config.FlagDebug))

	cmd.AddCommand(
		newWhoamiCommand(opts),
		newSearchCommand(opts),
		newListCommand(opts),
		newAddCommand(opts),
		newDeleteCommand(opts),
		newCheckCommand(opts),
		newExportCommand(opts),
	)
	return cmd
}

// prepare resolves the settings and installs the logger. The desktop app logs
// to stdout; subcommands keep stdout for their output and log to stderr.
func (o *Options) prepare(cmd *cobra.Command) error {
	settings, err := config.LoadSettings(o.Viper)
	if err != nil {
		return err
	}
	o.Settings = settings

	console := cmd.ErrOrStderr()
	if cmd == cmd.Root() {
		console = cmd.OutOrStdout()
	}
	o.logCloser = SetupLogging(settings.Debug, console)

	logStartupInfo()
	slog.Debug(config.MsgCLIRun,
		config.LogKeyComponent, config.CompCLI,
		config.LogKeyCmd, cmd.CommandPath())
	return nil
}

// Close releases the log file, if one was opened.
func (o *Options) Close() error {
	if o.logCloser == nil {
		return nil
	}
	err := o.logCloser.Close()
	o.logCloser = nil
	return err
}

// Client returns a backend client for the configured API URL.
func (o *Options) Client() (*engine.StoreClient, error) {
	return engine.NewStoreClient(o.Settings.APIURL)
}

// Identity returns the install identity, creating it on first use.
func (o *Options) Identity() (string, error) {
	store := o.IdentityStore
	if store == nil {
		store = identity.NewKeyringStore()
		if file, err := identity.NewFileStore(); err == nil {
			store = identity.Fallback(store, file)
		}
	}
	return identity.NewProvider(store).GetOrCreate()
}

// Ledger opens the on-disk dispatch ledger.
func (o *Options) Ledger() (notify.Ledger, error) {
	dir := o.LedgerDir
	if dir == "" {
		cache, err := config.AppCacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(cache, config.LedgerDirName)
	}
	return notify.NewDiskLedger(dir), nil
}

func (o *Options) clock() engine.Clock {
	if o.Clock == nil {
		return engine.RealClock{}
	}
	return o.Clock
}

// session resolves what every backend command needs.
func (o *Options) session() (*engine.StoreClient, string, error) {
	client, err := o.Client()
	if err != nil {
		return nil, "", err
	}
	id, err := o.Identity()
	if err != nil {
		return nil, "", err
	}
	return client, id, nil
}
