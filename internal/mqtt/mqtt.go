// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/carwash-monitor/internal/logic"
)

// TopicBays is the prefix of the per-bay event topics.
const TopicBays = "carwash/monitor/bays"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "carwash/monitor/system"

// BayTopic returns the topic for a 1-based bay number.
func BayTopic(bay int) string {
	return fmt.Sprintf("%s/%d", TopicBays, bay)
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a bay event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Published reports whether an event type goes out on a bay topic.
// Live runtime ticks and watchdog actions stay local.
func Published(t logic.EventType) bool {
	switch t {
	case logic.EventTimerOn, logic.EventTimerOff,
		logic.EventPumpOn, logic.EventPumpOff,
		logic.EventSession, logic.EventMaintenanceInsert:
		return true
	}
	return false
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Bay BayPayload `json:"bay"`
}

// BayPayload contains the bay event details.
type BayPayload struct {
	Timestamp string          `json:"timestamp"`
	Event     string          `json:"event"`
	Bay       int             `json:"bay"`
	ID        string          `json:"id,omitempty"`
	Timer     *ChannelState   `json:"timer,omitempty"`
	Pump      *ChannelState   `json:"pump,omitempty"`
	Session   *SessionPayload `json:"session,omitempty"`
}

// ChannelState represents the timer or pump state.
type ChannelState struct {
	State string `json:"state"`
}

// SessionPayload carries a completed session's recorded times.
type SessionPayload struct {
	TimerSeconds float64 `json:"timer_seconds"`
	PumpSeconds  float64 `json:"pump_seconds"`
}

func channelState(running bool) *ChannelState {
	if running {
		return &ChannelState{State: string(logic.StateRunning)}
	}
	return &ChannelState{State: string(logic.StateIdle)}
}

// FormatPayload creates the JSON payload for a bay event.
func FormatPayload(event logic.Event) ([]byte, error) {
	if !Published(event.Type) {
		return nil, fmt.Errorf("event %s is not published", event.Type)
	}
	if event.Bay < 1 || event.Bay > logic.NumBays {
		return nil, fmt.Errorf("event %s: invalid bay %d", event.Type, event.Bay)
	}

	bp := BayPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		Bay:       event.Bay,
		ID:        event.ID,
	}
	switch event.Type {
	case logic.EventSession:
		bp.Session = &SessionPayload{
			TimerSeconds: event.TimerSeconds,
			PumpSeconds:  event.PumpSeconds,
		}
	case logic.EventMaintenanceInsert:
	default:
		bp.Timer = channelState(event.TimerRunning)
		bp.Pump = channelState(event.PumpRunning)
	}
	return json.Marshal(Payload{Bay: bp})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
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
