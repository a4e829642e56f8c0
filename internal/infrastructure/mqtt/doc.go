// Package mqtt publishes the supervisor's status to an MQTT broker.
//
// This is a one-way, observational surface: the supervisor announces its own
// liveness and the child's lifecycle, and subscribes to nothing. Nothing
// received over MQTT can influence a supervision decision.
//
// Topics:
//   - appsentry/system/status — supervisor online/offline (retained, LWT)
//   - appsentry/child/state   — current child state (retained)
//   - appsentry/child/event   — one message per lifecycle transition
//
// The connection auto-reconnects with exponential backoff. Publishes while
// disconnected fail fast instead of queueing; callers treat them as
// best-effort.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.PublishRetained(mqtt.Topics{}.ChildState(), payload)
package mqtt
