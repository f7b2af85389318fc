package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Bays          []BayJSON    `json:"bays"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	Polls         uint64       `json:"polls"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Watchdog      WatchdogJSON `json:"watchdog"`
	Config        ConfigJSON   `json:"config"`
}

// BayJSON is one bay's in-memory state with its open session's elapsed time.
type BayJSON struct {
	Bay          int     `json:"bay"`
	Timer        string  `json:"timer"`
	Pump         string  `json:"pump"`
	TimerSeconds float64 `json:"timer_seconds"`
	PumpSeconds  float64 `json:"pump_seconds"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Sessions           int `json:"sessions"`
	MaintenanceInserts int `json:"maintenance_inserts"`
	Restarts           int `json:"restarts"`
	PowerOffs          int `json:"power_offs"`
	Wipes              int `json:"wipes"`
}

// WatchdogJSON reports the service button hold counters.
type WatchdogJSON struct {
	RebootCount int `json:"reboot_count"`
	WipeCount   int `json:"wipe_count"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs          int64  `json:"poll_ms"`
	RelayThreshold  int    `json:"relay_threshold"`
	InsertThreshold int    `json:"insert_threshold"`
	RuntimeEvery    int    `json:"runtime_every"`
	HeartbeatMs     int64  `json:"heartbeat_ms"`
	DB              string `json:"db"`
	Broker          string `json:"broker"`
	HTTPAddr        string `json:"http_addr"`
	DryRun          bool   `json:"dry_run,omitempty"`
}

func wholeSeconds(d time.Duration) float64 {
	return d.Truncate(time.Second).Seconds()
}

func buildInner(snap Snapshot) StatusInner {
	bays := make([]BayJSON, 0, len(snap.Bays))
	for _, b := range snap.Bays {
		timer, pump := b.Elapsed(snap.Now)
		bays = append(bays, BayJSON{
			Bay:          b.Bay,
			Timer:        string(b.Timer),
			Pump:         string(b.Pump),
			TimerSeconds: wholeSeconds(timer),
			PumpSeconds:  wholeSeconds(pump),
		})
	}

	return StatusInner{
		Bays:          bays,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Polls:         snap.Polls,
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Sessions:           snap.Counts.Sessions,
			MaintenanceInserts: snap.Counts.MaintenanceInserts,
			Restarts:           snap.Counts.Restarts,
			PowerOffs:          snap.Counts.PowerOffs,
			Wipes:              snap.Counts.Wipes,
		},
		Watchdog: WatchdogJSON{
			RebootCount: snap.Watchdog.Reboot,
			WipeCount:   snap.Watchdog.Wipe,
		},
		Config: ConfigJSON{
			PollMs:          snap.Config.PollMs,
			RelayThreshold:  snap.Config.RelayThreshold,
			InsertThreshold: snap.Config.InsertThreshold,
			RuntimeEvery:    snap.Config.RuntimeEvery,
			HeartbeatMs:     snap.Config.HeartbeatMs,
			DB:              snap.Config.DB,
			Broker:          snap.Config.Broker,
			HTTPAddr:        snap.Config.HTTPAddr,
			DryRun:          snap.Config.DryRun,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
