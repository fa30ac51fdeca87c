package status

import (
	"encoding/json"
	"fmt"
	"log"
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
	Fan           FanJSON      `json:"fan"`
	Sensor        SensorJSON   `json:"sensor"`
	Degraded      bool         `json:"degraded"`
	Realtime      RealtimeJSON `json:"realtime"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// FanJSON reports the control output.
type FanJSON struct {
	Duty       float64 `json:"duty"`
	Fraction   float64 `json:"fraction"`
	Ticks      uint64  `json:"ticks"`
	PWMPeriods uint64  `json:"pwm_periods"`
}

// SensorJSON reports the temperature input. TemperatureC is null until the
// first good reading.
type SensorJSON struct {
	OK           bool     `json:"ok"`
	TemperatureC *float64 `json:"temperature_c"`
	Error        string   `json:"error,omitempty"`
	Faults       int      `json:"faults"`
}

// RealtimeJSON reports the PWM thread's scheduling class.
type RealtimeJSON struct {
	Enabled bool   `json:"enabled"`
	Error   string `json:"error,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TargetC     float64 `json:"target_c"`
	Step        float64 `json:"step"`
	MinDuty     float64 `json:"min_duty"`
	FrequencyHz float64 `json:"frequency_hz"`
	TickMs      int64   `json:"tick_ms"`
	Policy      string  `json:"on_sensor_error"`
	SensorPath  string  `json:"sensor"`
	Chip        string  `json:"chip"`
	Line        int     `json:"line"`
	Priority    int     `json:"priority"`
	Broker      string  `json:"broker"`
	HTTPAddr    string  `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Fan: FanJSON{
			Duty:       snap.Duty,
			Fraction:   snap.Fraction,
			Ticks:      snap.Ticks,
			PWMPeriods: snap.PWMPeriods,
		},
		Sensor: SensorJSON{
			OK:     snap.SensorOK,
			Error:  snap.SensorError,
			Faults: snap.SensorFaults,
		},
		Degraded:      snap.Degraded(),
		Realtime:      RealtimeJSON{Enabled: snap.RealtimeOK, Error: snap.RealtimeError},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			TargetC:     snap.Config.TargetC,
			Step:        snap.Config.Step,
			MinDuty:     snap.Config.MinDuty,
			FrequencyHz: snap.Config.FrequencyHz,
			TickMs:      snap.Config.TickMs,
			Policy:      snap.Config.Policy,
			SensorPath:  snap.Config.SensorPath,
			Chip:        snap.Config.Chip,
			Line:        snap.Config.Line,
			Priority:    snap.Config.Priority,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
	if snap.HasReading {
		temp := snap.Temperature
		inner.Sensor.TemperatureC = &temp
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, err := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	if err != nil {
		return encodeFailure(err)
	}
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, err := json.Marshal(StatusJSON{Status: inner})
	if err != nil {
		return encodeFailure(err)
	}
	return data
}

// encodeFailure logs err and returns a minimal valid document in its place.
func encodeFailure(err error) []byte {
	log.Printf("status: encode snapshot: %v", err)
	msg, _ := json.Marshal(err.Error())
	return []byte(fmt.Sprintf(`{"status":{"error":%s}}`, msg))
}
