package loadreport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-xmlruntime/internal/configtree"
	"github.com/nerrad567/gray-logic-xmlruntime/internal/xmlruntime"
)

// DocumentLoader is the part of *xmlruntime.Loader the reporter needs.
type DocumentLoader interface {
	LoadWithDiagnostics(path string) (*configtree.Configuration, []xmlruntime.Diagnostic, error)
}

// Recorder persists reports.
type Recorder interface {
	Record(ctx context.Context, report *Report) error
}

// Notifier announces reports to other processes.
type Notifier interface {
	Notify(ctx context.Context, report *Report) error
}

// MetricsWriter queues a metric point per report. Writes are asynchronous,
// so failures surface through the writer's own error channel.
type MetricsWriter interface {
	WriteLoad(report *Report)
}

// Logger is the subset of logging.Logger the reporter uses.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}

// Options configures a Reporter. Every sink is optional.
type Options struct {
	Logger   Logger
	Recorder Recorder
	Notifier Notifier
	Metrics  MetricsWriter

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Reporter loads documents and reports every attempt to its sinks.
type Reporter struct {
	loader DocumentLoader
	opts   Options
}

// New creates a Reporter around loader.
func New(loader DocumentLoader, opts Options) *Reporter {
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reporter{loader: loader, opts: opts}
}

// Load loads path, builds its report and publishes it. The returned error
// is the load error only; sink failures are logged.
func (r *Reporter) Load(ctx context.Context, path string) (*configtree.Configuration, *Report, error) {
	start := r.opts.Now()
	cfg, diags, err := r.loader.LoadWithDiagnostics(path)
	elapsed := r.opts.Now().Sub(start)

	report := newReport(path, cfg, diags, err)
	report.Duration = elapsed
	report.LoadedAt = start.UTC()

	r.opts.Logger.Info("configuration load finished",
		"path", path,
		"outcome", string(report.Outcome),
		"errors", report.ErrorCount(),
		"warnings", report.WarningCount(),
		"duration", elapsed,
	)

	if pubErr := r.Publish(ctx, report); pubErr != nil {
		r.opts.Logger.Warn("load report not fully delivered", "id", report.ID, "error", pubErr)
	}

	return cfg, report, err
}

// newReport builds the report of one finished load.
func newReport(path string, cfg *configtree.Configuration, diags []xmlruntime.Diagnostic, err error) *Report {
	report := &Report{
		ID:          "report-" + uuid.NewString(),
		Path:        path,
		Outcome:     Classify(err),
		Diagnostics: diags,
	}
	if err != nil {
		report.Error = err.Error()
	}
	if cfg != nil {
		snap := cfg.Snapshot()
		report.ConfigurationID = cfg.ID()
		report.Stats = cfg.Stats()
		report.Snapshot = &snap
	}
	return report
}

// Publish hands report to every configured sink and returns their failures
// joined. A failing sink does not stop the others.
func (r *Reporter) Publish(ctx context.Context, report *Report) error {
	var errs []error

	if r.opts.Recorder != nil {
		if err := r.opts.Recorder.Record(ctx, report); err != nil {
			errs = append(errs, fmt.Errorf("recording: %w", err))
		}
	}
	if r.opts.Notifier != nil {
		if err := r.opts.Notifier.Notify(ctx, report); err != nil {
			errs = append(errs, fmt.Errorf("notifying: %w", err))
		}
	}
	if r.opts.Metrics != nil {
		r.opts.Metrics.WriteLoad(report)
	}

	return errors.Join(errs...)
}
