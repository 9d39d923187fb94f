package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-xmlruntime/internal/history"
	"github.com/nerrad567/gray-logic-xmlruntime/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-xmlruntime/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-xmlruntime/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-xmlruntime/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-xmlruntime/internal/loadreport"
)

// sinks holds the report destinations enabled by config. Nil fields are
// disabled.
type sinks struct {
	recorder loadreport.Recorder
	notifier loadreport.Notifier
	metrics  loadreport.MetricsWriter

	closers []func()
}

// Close releases every opened connection in reverse order.
func (s *sinks) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openSinks connects the history database, MQTT broker and InfluxDB as
// enabled. A history database that cannot be opened is fatal; unreachable
// MQTT and InfluxDB servers only cost their notifications.
func openSinks(ctx context.Context, cfg *config.Config, log *logging.Logger) (*sinks, error) {
	s := &sinks{}

	if cfg.History.Enabled {
		db, err := openHistory(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() {
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing history database", "error", closeErr)
			}
		})
		s.recorder = &historyRecorder{repo: history.NewSQLiteRepository(db.DB)}
		log.Debug("load history enabled", "path", db.Path())
	}

	if cfg.MQTT.Enabled {
		client, err := mqtt.Connect(cfg.MQTT, log.With("component", "mqtt"))
		if err != nil {
			log.Warn("MQTT unavailable, load will not be announced", "error", err)
		} else {
			s.closers = append(s.closers, func() {
				if closeErr := client.Close(); closeErr != nil {
					log.Error("error closing MQTT", "error", closeErr)
				}
			})
			s.notifier = &mqttNotifier{client: client}
			log.Debug("MQTT connected",
				"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
				"client_id", cfg.MQTT.Broker.ClientID,
			)
		}
	}

	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
	case err != nil:
		log.Warn("InfluxDB unavailable, load metrics will not be written", "error", err)
	default:
		client.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		s.closers = append(s.closers, func() {
			if closeErr := client.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		})
		s.metrics = &influxMetrics{client: client}
		log.Debug("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	return s, nil
}

// historyRecorder adapts history.Repository to loadreport.Recorder.
type historyRecorder struct {
	repo history.Repository
}

func (h *historyRecorder) Record(ctx context.Context, r *loadreport.Report) error {
	return h.repo.Create(ctx, historyRecord(r))
}

func historyRecord(r *loadreport.Report) *history.Record {
	return &history.Record{
		ID:              r.ID,
		Path:            r.Path,
		ConfigurationID: r.ConfigurationID,
		Outcome:         string(r.Outcome),
		Error:           r.Error,
		ErrorCount:      r.ErrorCount(),
		WarningCount:    r.WarningCount(),
		Diagnostics:     r.Diagnostics,
		Stats:           r.Stats,
		Snapshot:        r.Snapshot,
		Duration:        r.Duration,
		LoadedAt:        r.LoadedAt,
	}
}

// publisher is the part of *mqtt.Client the notifier uses.
type publisher interface {
	Topics() mqtt.Topics
	PublishJSON(topic string, v any) error
}

// mqttNotifier publishes each report retained on its configuration's topic.
type mqttNotifier struct {
	client publisher
}

func (m *mqttNotifier) Notify(_ context.Context, r *loadreport.Report) error {
	return m.client.PublishJSON(m.client.Topics().Load(r.Subject()), r)
}

// pointWriter is the part of *influxdb.Client the metrics adapter uses.
type pointWriter interface {
	WriteLoadMetric(m influxdb.LoadMetric)
}

// influxMetrics adapts influxdb.Client to loadreport.MetricsWriter.
type influxMetrics struct {
	client pointWriter
}

func (i *influxMetrics) WriteLoad(r *loadreport.Report) {
	i.client.WriteLoadMetric(loadMetric(r))
}

func loadMetric(r *loadreport.Report) influxdb.LoadMetric {
	return influxdb.LoadMetric{
		Path:            r.Path,
		ConfigurationID: r.ConfigurationID,
		Outcome:         string(r.Outcome),
		Errors:          r.ErrorCount(),
		Warnings:        r.WarningCount(),
		Settings:        r.Stats.Settings,
		Plugins:         r.Stats.Plugins,
		Instances:       r.Stats.Instances,
		ClientEndPoints: r.Stats.ClientEndPoints,
		ServerEndPoints: r.Stats.ServerEndPoints,
		Duration:        r.Duration,
		At:              r.LoadedAt,
	}
}
