package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-xmlruntime/internal/configtree"
	"github.com/nerrad567/gray-logic-xmlruntime/internal/history"
	"github.com/nerrad567/gray-logic-xmlruntime/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-xmlruntime/internal/loadreport"
)

// writeDiagnostics prints every diagnostic of a failed load, or the load
// error itself when there are none.
func writeDiagnostics(w io.Writer, report *loadreport.Report) {
	if len(report.Diagnostics) == 0 {
		fmt.Fprintf(w, "%s: %s\n", report.Path, report.Error)
		return
	}
	for _, d := range report.Diagnostics {
		fmt.Fprintln(w, d.String())
	}
}

// writeWarnings prints the warnings of a successful load.
func writeWarnings(w io.Writer, report *loadreport.Report) {
	for _, d := range report.Diagnostics {
		fmt.Fprintln(w, d.String())
	}
}

// writeConfiguration prints the loaded configuration in format.
func writeConfiguration(w io.Writer, format string, conf *configtree.Configuration, report *loadreport.Report) error {
	snap := conf.Snapshot()
	if format == config.FormatSummary {
		return writeSummary(w, snap, report)
	}
	return encode(w, format, snap)
}

// encode writes v as YAML or JSON.
func encode(w io.Writer, format string, v any) error {
	switch format {
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// writeRecord prints one recorded load with its diagnostics.
func writeRecord(w io.Writer, format string, rec *history.Record) error {
	if format != config.FormatSummary {
		return encode(w, format, rec)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s at %s in %s\n", rec.Path, rec.Outcome, rec.LoadedAt.Format(time.RFC3339), rec.Duration)
	if rec.ConfigurationID != "" {
		s := rec.Stats
		fmt.Fprintf(&b, "  configuration %q: %d settings, %d plugins, %d instances, %d client endpoints, %d server endpoints\n",
			rec.ConfigurationID, s.Settings, s.Plugins, s.Instances, s.ClientEndPoints, s.ServerEndPoints)
	}
	if rec.Error != "" {
		fmt.Fprintf(&b, "  %s\n", rec.Error)
	}
	for _, d := range rec.Diagnostics {
		fmt.Fprintf(&b, "  %s\n", d)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// writeHistory prints a page of recorded loads, newest first.
func writeHistory(w io.Writer, format string, result *history.ListResult) error {
	if format != config.FormatSummary {
		return encode(w, format, result)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LOADED AT\tOUTCOME\tCONFIGURATION\tERRORS\tWARNINGS\tPATH")
	for _, rec := range result.Records {
		id := rec.ConfigurationID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			rec.LoadedAt.Format(time.RFC3339), rec.Outcome, id, rec.ErrorCount, rec.WarningCount, rec.Path)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d loads\n", len(result.Records), result.Total)
	return err
}

// writeSummary prints a short header followed by an indented tree.
func writeSummary(w io.Writer, snap configtree.Snapshot, report *loadreport.Report) error {
	var b strings.Builder
	s := report.Stats

	fmt.Fprintf(&b, "configuration %q loaded from %s in %s\n", snap.ID, report.Path, report.Duration)
	fmt.Fprintf(&b, "  %d settings, %d plugins, %d instances, %d client endpoints, %d server endpoints\n",
		s.Settings, s.Plugins, s.Instances, s.ClientEndPoints, s.ServerEndPoints)

	writeSettings(&b, "  ", snap.Settings)
	for _, p := range snap.Plugins {
		if p.File != "" {
			fmt.Fprintf(&b, "  plugin %s (%s)\n", p.Name, p.File)
		} else {
			fmt.Fprintf(&b, "  plugin %s\n", p.Name)
		}
		writeSettings(&b, "    ", p.Settings)
		for _, inst := range p.Instances {
			fmt.Fprintf(&b, "    instance %s\n", inst.Name)
			for _, ep := range inst.ClientEndPoints {
				fmt.Fprintf(&b, "      client %s -> %s\n", ep.Name, ep.URL)
			}
			for _, ep := range inst.ServerEndPoints {
				fmt.Fprintf(&b, "      server %s <- %s\n", ep.Name, ep.URL)
			}
			writeSettings(&b, "      ", inst.Settings)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSettings(b *strings.Builder, indent string, settings []configtree.SettingView) {
	for _, s := range settings {
		fmt.Fprintf(b, "%ssetting %s = %q\n", indent, s.Name, s.Value)
	}
}
