// xmlruntime loads a runtime configuration document, validates it against
// the runtime schema and prints the resulting configuration tree.
//
// Usage:
//
//	xmlruntime [-config app.yaml] [-format summary|yaml|json] [-history] <document.xml>
//	xmlruntime [-config app.yaml] [-format ...] -history-last <document.xml>
//	xmlruntime [-config app.yaml] [-format ...] -history-list [-outcome o] [-limit n] [document.xml]
//
// On failure every diagnostic is printed to stderr and the exit code is 1.
// Each load can also be recorded in SQLite, announced over MQTT and written
// to InfluxDB, depending on the application config. The -history-last and
// -history-list modes read the recorded loads back instead of loading.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/gray-logic-xmlruntime/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-xmlruntime/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-xmlruntime/internal/loadreport"
	"github.com/nerrad567/gray-logic-xmlruntime/internal/xmlruntime"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
)

// configEnv names the environment variable holding the default -config path.
const configEnv = "XMLRUNTIME_CONFIG"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// cliOptions are the parsed command-line arguments.
type cliOptions struct {
	configPath string
	format     string
	history    bool
	document   string

	historyLast bool
	historyList bool
	outcome     string
	limit       int
}

func parseArgs(args []string, stderr io.Writer) (*cliOptions, error) {
	fset := flag.NewFlagSet("xmlruntime", flag.ContinueOnError)
	fset.SetOutput(stderr)
	fset.Usage = func() {
		fmt.Fprintln(fset.Output(), "usage: xmlruntime [-config app.yaml] [-format summary|yaml|json] [-history] <document.xml>")
		fmt.Fprintln(fset.Output(), "       xmlruntime [-config app.yaml] [-format ...] -history-last <document.xml>")
		fmt.Fprintln(fset.Output(), "       xmlruntime [-config app.yaml] [-format ...] -history-list [-outcome o] [-limit n] [document.xml]")
		fset.PrintDefaults()
	}

	opts := &cliOptions{}
	fset.StringVar(&opts.configPath, "config", os.Getenv(configEnv), "application config file (YAML)")
	fset.StringVar(&opts.format, "format", "", "output format: summary, yaml or json (default from config)")
	fset.BoolVar(&opts.history, "history", false, "record the load in the history database")
	fset.BoolVar(&opts.historyLast, "history-last", false, "print the latest recorded load of the document instead of loading it")
	fset.BoolVar(&opts.historyList, "history-list", false, "list recorded loads, of the document when one is given")
	fset.StringVar(&opts.outcome, "outcome", "", "with -history-list: only loads with this outcome")
	fset.IntVar(&opts.limit, "limit", 0, "with -history-list: number of loads to show (default 50)")

	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	switch {
	case opts.historyLast && opts.historyList:
		return nil, errors.New("-history-last and -history-list are mutually exclusive")
	case (opts.outcome != "" || opts.limit != 0) && !opts.historyList:
		return nil, errors.New("-outcome and -limit require -history-list")
	case opts.historyList && fset.NArg() > 1:
		fset.Usage()
		return nil, fmt.Errorf("expected at most one document, got %d", fset.NArg())
	case !opts.historyList && fset.NArg() != 1:
		fset.Usage()
		return nil, fmt.Errorf("expected exactly one document, got %d", fset.NArg())
	}
	opts.document = fset.Arg(0)
	return opts, nil
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.format != "" {
		cfg.Output.Format = opts.format
	}
	if opts.history {
		cfg.History.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logging.New(cfg.Logging, version, stdout, stderr)
	log.Debug("xmlruntime starting", "commit", commit, "document", opts.document)

	if opts.historyLast || opts.historyList {
		return showHistory(ctx, opts, cfg, log, stdout)
	}

	loader, err := newLoader(cfg.Loader, log.With("component", "loader"))
	if err != nil {
		return err
	}
	defer loader.Close() //nolint:errcheck // Close never fails

	sinks, err := openSinks(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer sinks.Close()

	reporter := loadreport.New(loader, loadreport.Options{
		Logger:   log,
		Recorder: sinks.recorder,
		Notifier: sinks.notifier,
		Metrics:  sinks.metrics,
	})

	conf, report, loadErr := reporter.Load(ctx, opts.document)
	if loadErr != nil {
		writeDiagnostics(stderr, report)
		return loadErr
	}

	writeWarnings(stderr, report)
	return writeConfiguration(stdout, cfg.Output.Format, conf, report)
}

// newLoader creates the document loader. A configured schema file gets a
// dedicated platform; otherwise the shared default platform is used.
func newLoader(cfg config.LoaderConfig, log *logging.Logger) (*xmlruntime.Loader, error) {
	opts := xmlruntime.Options{
		Logger:          log,
		Entities:        cfg.Entities,
		MaxIncludeDepth: cfg.MaxIncludeDepth,
		MaxFileSize:     cfg.MaxFileSize,
	}

	if cfg.SchemaFile != "" {
		source, err := os.ReadFile(cfg.SchemaFile)
		if err != nil {
			return nil, fmt.Errorf("reading schema file: %w", err)
		}
		opts.Platform = xmlruntime.NewPlatform(source)
		log.Info("using custom schema", "path", cfg.SchemaFile)
	}

	loader, err := xmlruntime.New(opts)
	if err != nil {
		return nil, fmt.Errorf("creating loader: %w", err)
	}
	return loader, nil
}
