// Package protocol decodes the IZDOSE sensor's binary event stream.
//
// The device pushes events as BLE indications. Every frame starts with a
// fixed 11-byte header (sequence number, type tag, reset counter, device
// timestamp) followed by a type-specific payload. Decoding is pure and
// stateless: the same bytes always produce the same Event, and a frame is
// rejected only when it is shorter than the minimum length. Unrecognized
// enum bytes degrade to per-field Unknown sentinels instead of failing
// the whole frame.
package protocol

import "encoding/json"

// EventType is the 16-bit tag at bytes 4-5 of an event frame.
type EventType uint16

const (
	EventDose               EventType = 0x0001
	EventInjection          EventType = 0x0002
	EventAdjustedInjection  EventType = 0x0003
	EventBattery            EventType = 0x0004
	EventWakeUp             EventType = 0x0005
	EventWakeUpSource       EventType = 0x0006
	EventMounting           EventType = 0x0007
	EventSystemError        EventType = 0x0008
	EventSystemReset        EventType = 0x0009
	EventTemperatureWarning EventType = 0x000A
	EventFailedRead         EventType = 0x000B
	EventDFU                EventType = 0x000C
	EventModeChange         EventType = 0x000D
	EventLogging            EventType = 0x000E
	EventSaturation         EventType = 0x000F
	EventKwikPenCalibration EventType = 0x0010
	EventIncorrectMounting  EventType = 0x0011
	EventPenSelect          EventType = 0x0012
	EventUnknown            EventType = 0xFFFF
)

var eventTypeNames = map[EventType]string{
	EventDose:               "dose",
	EventInjection:          "injection",
	EventAdjustedInjection:  "adjusted_injection",
	EventBattery:            "battery",
	EventWakeUp:             "wake_up",
	EventWakeUpSource:       "wake_up_source",
	EventMounting:           "mounting",
	EventSystemError:        "system_error",
	EventSystemReset:        "system_reset",
	EventTemperatureWarning: "temperature_warning",
	EventFailedRead:         "failed_read",
	EventDFU:                "dfu",
	EventModeChange:         "mode_change",
	EventSaturation:         "saturation",
	EventLogging:            "logging",
	EventKwikPenCalibration: "kwikpen_calibration",
	EventIncorrectMounting:  "incorrect_mounting",
	EventPenSelect:          "pen_select",
	EventUnknown:            "unknown",
}

func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON emits the readable type name; consumers of the JSON feed
// should not have to know wire tag values.
func (t EventType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Event is a single decoded frame from the sensor's event stream.
//
// SequenceNumber is assigned by the device and increases by one per event;
// a jump of more than one between consecutive events from the same device
// means indications were lost (typically across a reconnect, while the
// radio stack acknowledged frames the application was not yet subscribed
// for). Consumers detect gaps from this field alone.
type Event struct {
	SequenceNumber  uint32       `json:"seq"`
	Type            EventType    `json:"type"`
	ResetCounter    uint8        `json:"resetCounter"`
	DeviceTimestamp uint32       `json:"deviceTimestamp"`
	Payload         EventPayload `json:"payload,omitempty"`
}

// EventPayload is the type-specific portion of an Event (bytes 11+).
// The set of implementations is closed: one per known EventType plus
// UnknownPayload for unmapped tags.
type EventPayload interface {
	isEventPayload()
}

// DosePayload is shared by dose (0x0001) and injection (0x0002) events;
// both carry the same field layout on the wire.
type DosePayload struct {
	Status         DoseStatus `json:"status"`
	Units          uint8      `json:"units"`
	Temperature    uint8      `json:"temperature"`
	BatteryVoltage float64    `json:"batteryVoltage"`
}

type AdjustedInjectionPayload struct {
	PreviousAmount uint8      `json:"previousAmount"`
	AdjustedAmount uint8      `json:"adjustedAmount"`
	Status         DoseStatus `json:"status"`
}

type BatteryPayload struct {
	Status     BatteryStatus `json:"status"`
	Voltage    float64       `json:"voltage"`
	IsCharging bool          `json:"isCharging"`
}

type WakeUpPayload struct {
	Status    WakeUpStatus `json:"status"`
	State     WakeUpState  `json:"state"`
	KeepAwake KeepAwake    `json:"keepAwake"`
}

type WakeUpSourcePayload struct {
	Source      WakeUpSource `json:"source"`
	Sensitivity uint8        `json:"sensitivity"`
}

type MountingPayload struct {
	Status MountingStatus `json:"status"`
}

type SystemErrorPayload struct {
	Status     SystemErrorStatus `json:"status"`
	Voltage    float64           `json:"voltage"`
	IsCharging bool              `json:"isCharging"`
}

type SystemResetPayload struct {
	Status     SystemResetStatus `json:"status"`
	Voltage    float64           `json:"voltage"`
	IsCharging bool              `json:"isCharging"`
}

type TemperatureWarningPayload struct {
	Status        TemperatureWarningStatus `json:"status"`
	CurrentTemp   uint8                    `json:"currentTemp"`
	HighThreshold uint8                    `json:"highThreshold"`
	LowThreshold  uint8                    `json:"lowThreshold"`
}

type FailedReadPayload struct {
	Status FailedReadStatus `json:"status"`
}

type DFUPayload struct {
	Status DFUStatus `json:"status"`
}

type ModeChangePayload struct {
	Status ModeChangeStatus `json:"status"`
}

// LoggingPayload carries the on-device log file id. Unlike the header
// fields, FileID is big-endian on the wire.
type LoggingPayload struct {
	Status  LoggingStatus `json:"status"`
	FileID  uint16        `json:"fileId"`
	Voltage float64       `json:"voltage"`
}

type SaturationPayload struct {
	Status SaturationStatus `json:"status"`
}

// KwikPenCalibrationPayload carries the raw IR reflectance readings taken
// during pen calibration. Both values are big-endian on the wire.
type KwikPenCalibrationPayload struct {
	ShaftIR uint16 `json:"shaftIR"`
	KnobIR  uint16 `json:"knobIR"`
}

type IncorrectMountingPayload struct {
	Status IncorrectMountingStatus `json:"status"`
}

type PenSelectPayload struct {
	PenType      PenType `json:"penType"`
	MajorVersion uint8   `json:"majorVersion"`
	MinorVersion uint8   `json:"minorVersion"`
}

// UnknownPayload is produced for unrecognized type tags, including the
// device's explicit 0xFFFF marker.
type UnknownPayload struct{}

func (DosePayload) isEventPayload()               {}
func (AdjustedInjectionPayload) isEventPayload()  {}
func (BatteryPayload) isEventPayload()            {}
func (WakeUpPayload) isEventPayload()             {}
func (WakeUpSourcePayload) isEventPayload()       {}
func (MountingPayload) isEventPayload()           {}
func (SystemErrorPayload) isEventPayload()        {}
func (SystemResetPayload) isEventPayload()        {}
func (TemperatureWarningPayload) isEventPayload() {}
func (FailedReadPayload) isEventPayload()         {}
func (DFUPayload) isEventPayload()                {}
func (ModeChangePayload) isEventPayload()         {}
func (LoggingPayload) isEventPayload()            {}
func (SaturationPayload) isEventPayload()         {}
func (KwikPenCalibrationPayload) isEventPayload() {}
func (IncorrectMountingPayload) isEventPayload()  {}
func (PenSelectPayload) isEventPayload()          {}
func (UnknownPayload) isEventPayload()            {}
