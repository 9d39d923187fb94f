package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// measurementLoad is the measurement every load attempt is written to.
const measurementLoad = "config_load"

// LoadMetric describes one load attempt.
type LoadMetric struct {
	Path            string
	ConfigurationID string
	Outcome         string

	Errors   int
	Warnings int

	Settings        int
	Plugins         int
	Instances       int
	ClientEndPoints int
	ServerEndPoints int

	Duration time.Duration
	At       time.Time
}

// loadPoint converts m into a point. A zero At means now.
func loadPoint(m LoadMetric) *write.Point {
	tags := map[string]string{
		"path":    m.Path,
		"outcome": m.Outcome,
	}
	if m.ConfigurationID != "" {
		tags["configuration"] = m.ConfigurationID
	}

	at := m.At
	if at.IsZero() {
		at = time.Now()
	}

	return write.NewPoint(measurementLoad, tags, map[string]any{
		"errors":           m.Errors,
		"warnings":         m.Warnings,
		"settings":         m.Settings,
		"plugins":          m.Plugins,
		"instances":        m.Instances,
		"client_endpoints": m.ClientEndPoints,
		"server_endpoints": m.ServerEndPoints,
		"duration_ms":      float64(m.Duration) / float64(time.Millisecond),
	}, at)
}

// WriteLoadMetric queues m for the next batch. It is a no-op when the
// client is not connected.
func (c *Client) WriteLoadMetric(m LoadMetric) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(loadPoint(m))
}
