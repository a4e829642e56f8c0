package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteRunMetric records one completed child run.
//
// The write is non-blocking; the point is batched and sent asynchronously.
// Tags stay low-cardinality (command, outcome), the per-run values go in
// fields.
//
// Parameters:
//   - command: The resolved child command
//   - exitCode: Child exit code (-1 for a launch failure)
//   - uptime: How long the run lasted
//   - restartCount: Lifetime restart total at observation time
func (c *Client) WriteRunMetric(command string, exitCode int, uptime time.Duration, restartCount int) {
	if !c.IsConnected() {
		return
	}

	outcome := "crash"
	if exitCode == 0 {
		outcome = "clean"
	}

	point := write.NewPoint(
		"child_runs",
		map[string]string{
			"command": command,
			"outcome": outcome,
		},
		map[string]interface{}{
			"exit_code":      exitCode,
			"uptime_seconds": uptime.Seconds(),
			"restart_count":  restartCount,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Example:
//
//	client.WritePoint("supervisor_stats",
//	    map[string]string{"host": "edge-01"},
//	    map[string]interface{}{"restart_count": 3})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
