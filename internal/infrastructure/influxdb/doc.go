// Package influxdb records configuration load metrics in InfluxDB.
//
// Every load attempt becomes one point in the "config_load" measurement,
// tagged by document path, configuration ID and outcome, with the tree
// counts, diagnostic counts and load duration as fields.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // skip metrics
//	}
//	defer client.Close()
//
//	client.WriteLoadMetric(influxdb.LoadMetric{Path: path, Outcome: "loaded"})
//
// Writes are non-blocking and batched; Close flushes them. Asynchronous
// write failures are delivered to the SetOnError callback.
package influxdb
