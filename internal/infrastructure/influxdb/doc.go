// Package influxdb records child run metrics in InfluxDB v2.
//
// One point lands in the child_runs measurement per observed termination:
// exit code, uptime, and the lifetime restart count, tagged by command and
// outcome. Writes are batched and asynchronous, so metric delivery can
// never slow a restart decision; failures surface only through the optional
// error callback.
//
// The whole integration is optional and disabled by default. Without it the
// supervisor behaves identically, it just keeps no time-series history.
package influxdb
