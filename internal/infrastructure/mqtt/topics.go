package mqtt

import "fmt"

// topicPrefix roots every topic the supervisor publishes.
const topicPrefix = "appsentry"

// Topics builds the topic strings for the status bus.
//
// Layout:
//
//	appsentry/system/status        supervisor online/offline (retained, LWT)
//	appsentry/child/state          current child state (retained)
//	appsentry/child/event          child lifecycle events (not retained)
//
// The zero value is ready to use:
//
//	topic := mqtt.Topics{}.ChildEvent()
type Topics struct{}

// SystemStatus returns the supervisor's own online/offline topic.
// Retained, and also the Last Will topic so subscribers see an offline
// status when the supervisor dies without a graceful disconnect.
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", topicPrefix)
}

// ChildState returns the retained current-state topic for the child
// (running, stopped, crashed, restarting).
func (Topics) ChildState() string {
	return fmt.Sprintf("%s/child/state", topicPrefix)
}

// ChildEvent returns the event topic carrying one message per child
// lifecycle transition. Not retained.
func (Topics) ChildEvent() string {
	return fmt.Sprintf("%s/child/event", topicPrefix)
}
