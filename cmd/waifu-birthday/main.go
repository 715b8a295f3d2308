package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fyne.io/fyne/v2/app"
	"github.com/fatih/color"
	"github.com/tartampluch/go-waifu-birthday/internal/cli"
	"github.com/tartampluch/go-waifu-birthday/internal/config"
	"github.com/tartampluch/go-waifu-birthday/internal/engine"
	"github.com/tartampluch/go-waifu-birthday/internal/server"
	"github.com/tartampluch/go-waifu-birthday/internal/ui"
)

// main is the application entry point.
// It delegates execution to runMain so that deferred calls (like closing the
// log file) run before the process terminates.
func main() {
	os.Exit(runMain())
}

// runMain manages the application lifecycle and exit codes.
func runMain() int {
	// -------------------------------------------------------------------------
	// 1. Context & Signal Handling
	// -------------------------------------------------------------------------
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// -------------------------------------------------------------------------
	// 2. Command Dispatch
	// -------------------------------------------------------------------------
	// Logging is configured by the root command once flags are parsed.
	opts := &cli.Options{Viper: config.NewViper(), GUI: run}
	defer func() {
		_ = opts.Close()
	}()

	root := cli.NewRootCommand(opts)
	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		fmt.Fprintln(root.ErrOrStderr(), color.RedString(err.Error()))
		return config.ExitCodeError
	}
	return config.ExitCodeSuccess
}

// run initializes the Fyne application, wires dependencies, and starts the UI loop.
func run(ctx context.Context, opts *cli.Options) error {
	a := app.NewWithID(config.AppID)

	// Record the version for potential migration logic in future updates.
	a.Preferences().SetString(config.PrefLastRun, config.Version)

	client, err := opts.Client()
	if err != nil {
		return err
	}
	id, err := opts.Identity()
	if err != nil {
		return err
	}

	srv := server.NewFeedServer(opts.Settings.FeedPort, &engine.Exporter{Clock: engine.RealClock{}})
	gui := ui.NewWaifuApp(a, ctx, opts.Settings, client, id, srv)

	// Dispatch records survive restarts so a relaunch does not re-alert.
	if ledger, err := opts.Ledger(); err == nil {
		gui.Notifier.Ledger = ledger
	} else {
		slog.Warn(config.MsgLedgerOff,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err)
	}

	// Lifecycle Bridge:
	// Watch for context cancellation to quit the UI gracefully.
	go func() {
		<-ctx.Done()
		slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompMain)
		a.Quit()
	}()

	// Blocks until the app quits.
	gui.Run()

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return nil
}
