package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"github.com/tartampluch/go-waifu-birthday/internal/config"
	"github.com/tartampluch/go-waifu-birthday/internal/engine"
	"github.com/tartampluch/go-waifu-birthday/internal/notify"
	"gopkg.in/yaml.v3"
)

var (
	bold      = color.New(color.Bold)
	highlight = color.New(color.FgHiMagenta, color.Bold)
)

func addOutputFlag(cmd *cobra.Command, output *string) {
	cmd.Flags().StringVarP(output, config.FlagOutput, config.FlagShortOut, config.OutputTable, config.FlagDescOut)
}

func checkOutput(format string) error {
	switch format {
	case config.OutputTable, config.OutputJSON, config.OutputYAML:
		return nil
	}
	return fmt.Errorf("%s: %q", config.ErrUnknownOutput, format)
}

// writeEntries renders the collection. Today's birthdays are highlighted.
func writeEntries(w io.Writer, format string, entries []engine.CollectionEntry) error {
	if entries == nil {
		entries = []engine.CollectionEntry{}
	}
	switch format {
	case config.OutputJSON:
		return writeJSON(w, entries)
	case config.OutputYAML:
		return writeYAML(w, entries)
	}

	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, config.MsgNoEntries)
		return err
	}

	tbl := newTable(config.HeaderID, config.HeaderName, config.HeaderStatus)
	for _, e := range entries {
		status := e.Status
		if e.DaysUntil == 0 {
			status = highlight.Sprint(status)
		}
		tbl.AddRow(e.ID, e.Name, status)
	}
	_, err := fmt.Fprintln(w, tbl)
	return err
}

func writeResults(w io.Writer, format string, results []engine.SearchResult) error {
	if results == nil {
		results = []engine.SearchResult{}
	}
	switch format {
	case config.OutputJSON:
		return writeJSON(w, results)
	case config.OutputYAML:
		return writeYAML(w, results)
	}

	if len(results) == 0 {
		_, err := fmt.Fprintln(w, config.MsgNoResults)
		return err
	}

	tbl := newTable(config.HeaderID, config.HeaderName, config.HeaderScore)
	for _, r := range results {
		tbl.AddRow(r.ID, r.Name, fmt.Sprintf(config.FormatScore, r.Score))
	}
	_, err := fmt.Fprintln(w, tbl)
	return err
}

func newTable(headers ...string) *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = bold.Sprint(h)
	}
	tbl.AddRow(row...)
	return tbl
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// consoleAlerts is the in-app channel of the check command.
type consoleAlerts struct {
	w io.Writer
}

// Show implements notify.InApp.
func (c consoleAlerts) Show(a notify.Alert) {
	fmt.Fprintf(c.w, "%s  %s\n", highlight.Sprint(a.Title), a.Body)
}
