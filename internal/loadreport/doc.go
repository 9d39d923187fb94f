// Package loadreport turns each configuration load into a Report and hands
// it to the optional sinks: a history recorder, a notifier and a metrics
// writer.
//
// The load result is never affected by a sink. Sink failures are logged and
// returned joined from Publish, so callers can decide whether they matter.
//
//	reporter := loadreport.New(loader, loadreport.Options{
//	    Logger:   log,
//	    Recorder: historyAdapter,
//	})
//	cfg, report, err := reporter.Load(ctx, path)
package loadreport
