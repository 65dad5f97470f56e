package mqtt

import "strings"

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "robotrelay"

// Topics builds the relay's MQTT topic names under a common prefix.
//
//	topics := mqtt.NewTopics("lab")
//	topics.Command("robot1")  // lab/command/robot1
//	topics.Event("forwarded") // lab/events/forwarded
type Topics struct {
	prefix string
}

// NewTopics returns topic builders rooted at prefix. Surrounding slashes
// are trimmed; an empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the root of every topic.
func (t Topics) Prefix() string {
	return t.prefix
}

// Command returns the topic a controller publishes to in order to send an
// action to deviceID. The payload is the action text.
//
// Example: robotrelay/command/robot1
func (t Topics) Command(deviceID string) string {
	return t.prefix + "/command/" + deviceID
}

// AllCommands matches every command topic.
//
// Pattern: robotrelay/command/+
func (t Topics) AllCommands() string {
	return t.prefix + "/command/+"
}

// Event returns the topic relay events of the given kind are published to.
//
// Example: robotrelay/events/registered
func (t Topics) Event(kind string) string {
	return t.prefix + "/events/" + kind
}

// AllEvents matches every event topic.
//
// Pattern: robotrelay/events/+
func (t Topics) AllEvents() string {
	return t.prefix + "/events/+"
}

// SystemStatus carries the relay's retained online/offline status.
//
// Example: robotrelay/system/status
func (t Topics) SystemStatus() string {
	return t.prefix + "/system/status"
}

// ParseCommand extracts the device id from a command topic. It reports
// false for topics outside the command tree and for empty or multi-level
// device ids.
func (t Topics) ParseCommand(topic string) (deviceID string, ok bool) {
	deviceID, ok = strings.CutPrefix(topic, t.prefix+"/command/")
	if !ok || deviceID == "" || strings.Contains(deviceID, "/") {
		return "", false
	}
	return deviceID, true
}
