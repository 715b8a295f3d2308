package cli

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-waifu-birthday/internal/collection"
	"github.com/tartampluch/go-waifu-birthday/internal/config"
	"github.com/tartampluch/go-waifu-birthday/internal/engine"
	"github.com/tartampluch/go-waifu-birthday/internal/notify"
)

func newWhoamiCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdWhoami,
		Short: config.ShortWhoami,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := opts.Identity()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}
}

func newSearchCommand(opts *Options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   config.CmdSearch,
		Short: config.ShortSearch,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			client, err := opts.Client()
			if err != nil {
				return err
			}
			results, err := client.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return writeResults(cmd.OutOrStdout(), output, results)
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newListCommand(opts *Options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     config.CmdList,
		Aliases: []string{"ls"},
		Short:   config.ShortList,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			client, id, err := opts.session()
			if err != nil {
				return err
			}
			entries, err := client.FetchCollection(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeEntries(cmd.OutOrStdout(), output, entries)
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newAddCommand(opts *Options) *cobra.Command {
	var image, about, month, day string
	cmd := &cobra.Command{
		Use:   config.CmdAdd,
		Short: config.ShortAdd,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Same rules as the add dialog: both or neither.
			m, d, err := collection.ParseManualDate(month, day)
			if err != nil {
				return err
			}
			entry := engine.NewEntry{
				Name:        strings.Join(args, " "),
				Image:       image,
				About:       about,
				ManualMonth: m,
				ManualDay:   d,
			}

			client, id, err := opts.session()
			if err != nil {
				return err
			}
			msg, err := client.AddEntry(cmd.Context(), id, entry)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&image, config.FlagImage, "", config.FlagDescImage)
	flags.StringVar(&about, config.FlagAbout, "", config.FlagDescAbout)
	flags.StringVar(&month, config.FlagMonth, "", config.FlagDescMonth)
	flags.StringVar(&day, config.FlagDay, "", config.FlagDescDay)
	return cmd
}

func newDeleteCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:     config.CmdDelete,
		Aliases: []string{"rm"},
		Short:   config.ShortDelete,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entryID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%s: %q", config.ErrEntryID, args[0])
			}
			client, id, err := opts.session()
			if err != nil {
				return err
			}
			if err := client.DeleteEntry(cmd.Context(), id, entryID); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), config.MsgDeleted, entryID)
			return err
		},
	}
}

// newCheckCommand runs one notification pass with the console as the in-app
// channel. The on-disk ledger keeps repeated runs on the same day quiet.
func newCheckCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdCheck,
		Short: config.ShortCheck,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, id, err := opts.session()
			if err != nil {
				return err
			}
			entries, err := client.FetchCollection(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			eng := notify.NewEngine(consoleAlerts{w: out}, nil)
			eng.Clock = opts.clock()
			if ledger, err := opts.Ledger(); err == nil {
				eng.Ledger = ledger
			} else {
				slog.Warn(config.MsgLedgerOff,
					config.LogKeyComponent, config.CompCLI,
					config.LogKeyError, err)
			}

			report := eng.Dispatch(cmd.Context(), entries)
			_, err = fmt.Fprintf(out, config.MsgCheckSummary, report.InApp, report.Suppressed)
			return err
		},
	}
}

func newExportCommand(opts *Options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   config.CmdExport,
		Short: config.ShortExport,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != config.FormatICS && format != config.FormatVCF {
				return fmt.Errorf("%s: %q", config.ErrUnknownFeed, format)
			}
			client, id, err := opts.session()
			if err != nil {
				return err
			}
			entries, err := client.FetchCollection(cmd.Context(), id)
			if err != nil {
				return err
			}

			x := &engine.Exporter{Clock: opts.clock()}
			var data []byte
			if format == config.FormatVCF {
				data, err = x.VCards(entries)
			} else {
				data, err = x.Calendar(entries)
			}
			if err != nil {
				return err
			}

			slog.Debug(config.MsgExported,
				config.LogKeyComponent, config.CompCLI,
				config.LogKeyFormat, format,
				config.LogKeySizeBytes, len(data))
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, config.FlagFormat, config.FlagShortFmt, config.FormatICS, config.FlagDescFmt)
	return cmd
}
