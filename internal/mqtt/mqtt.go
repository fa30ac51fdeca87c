// Package mqtt publishes operator alerts for the fan controller.
// Alerts are lifecycle and fault events, not a telemetry stream.
package mqtt

import (
	"encoding/json"
	"time"
)

// TopicSystem is the MQTT topic for controller lifecycle and fault events.
const TopicSystem = "thermal/fan/controller/system"

// Event names.
const (
	EventStartup         = "STARTUP"
	EventShutdown        = "SHUTDOWN"
	EventSensorFault     = "SENSOR_FAULT"
	EventSensorRecovered = "SENSOR_RECOVERED"
)

// ReasonDisconnect is the reason carried by the broker-published will.
const ReasonDisconnect = "MQTT_DISCONNECT"

// Publisher publishes alerts to MQTT.
type Publisher interface {
	// PublishSystem sends a system event to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system event (e.g., startup, shutdown, sensor fault).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "SENSOR_FAULT"
	Reason     string // e.g., "SIGTERM", or the sensor error
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// SystemPayload represents the MQTT message payload for system events
// that don't carry a full status snapshot (the will message).
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// WillPayload is the retained message the broker publishes on TopicSystem
// if the controller drops off without a clean SHUTDOWN: a SHUTDOWN event
// with reason ReasonDisconnect, stamped at connect time.
func WillPayload(connectedAt time.Time) []byte {
	payload, _ := FormatSystemPayload(SystemEvent{
		Timestamp: connectedAt,
		Event:     EventShutdown,
		Reason:    ReasonDisconnect,
	})
	return payload
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

// PublishSystem does nothing.
func (NopPublisher) PublishSystem(SystemEvent) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }

// IsConnected is always false.
func (NopPublisher) IsConnected() bool { return false }
