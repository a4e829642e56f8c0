// Package config loads and validates appsentry configuration.
//
// Configuration comes from three layers, later layers overriding earlier ones:
//
//  1. Hardcoded defaults
//  2. A YAML file (configs/config.yaml by default)
//  3. Environment variables (APPSENTRY_* prefix)
//
// The child command, supervisor restart policy and Telegram credentials are
// the required core; the database, MQTT, InfluxDB and API sections gate
// optional subsystems and are validated only when enabled.
//
// Validation is strict at startup: the supervisor refuses to enter its loop
// with unusable notifier credentials, because every child termination must
// produce a notification.
package config
