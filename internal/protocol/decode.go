package protocol

import "fmt"

// MinFrameLen is the shortest valid event frame: an 11-byte header plus
// 4 payload bytes. The device pads shorter payloads up to this length.
const MinFrameLen = 15

// FrameTooShortError reports a frame below MinFrameLen. Such frames are
// discarded without producing an Event; they never affect connection state.
type FrameTooShortError struct {
	Len int
}

func (e *FrameTooShortError) Error() string {
	return fmt.Sprintf("frame too short: %d bytes, need at least %d", e.Len, MinFrameLen)
}

// CalcVoltage converts a raw ADC byte into volts. The sensor samples its
// battery through a 2x divider against a 3.3 V reference on a 12-bit ADC.
func CalcVoltage(raw byte) float64 {
	return float64(raw) / 4096.0 * 3.3 * 2.0
}

// Decode parses a raw indication frame into an Event.
//
// Wire layout (offsets from frame start):
//
//	0-3   sequence number, uint32 little-endian
//	4-5   type tag, assembled as byte5<<8 | byte4
//	6     reset counter
//	7-10  device timestamp, uint32 little-endian
//	11+   type-specific payload
//
// The type tag's byte order is swapped relative to the little-endian
// uint32 fields; that asymmetry is how the device writes it.
//
// Decode fails only for frames shorter than MinFrameLen. Unrecognized
// type tags produce an Event with Type EventUnknown and an empty payload;
// unrecognized enum bytes inside a known payload degrade to that field's
// Unknown sentinel without affecting the rest of the frame.
func Decode(b []byte) (Event, error) {
	if len(b) < MinFrameLen {
		return Event{}, &FrameTooShortError{Len: len(b)}
	}

	ev := Event{
		SequenceNumber:  uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24,
		Type:            EventType(uint16(b[5])<<8 | uint16(b[4])),
		ResetCounter:    b[6],
		DeviceTimestamp: uint32(b[7]) | uint32(b[8])<<8 | uint32(b[9])<<16 | uint32(b[10])<<24,
	}
	ev.Payload = decodePayload(ev.Type, b)
	if _, ok := ev.Payload.(UnknownPayload); ok {
		ev.Type = EventUnknown
	}
	return ev, nil
}

func decodePayload(t EventType, b []byte) EventPayload {
	switch t {
	case EventDose, EventInjection:
		return DosePayload{
			Units:          b[11],
			Status:         parseDoseStatus(b[12]),
			Temperature:    b[13],
			BatteryVoltage: CalcVoltage(b[14]),
		}
	case EventAdjustedInjection:
		return AdjustedInjectionPayload{
			PreviousAmount: b[11],
			AdjustedAmount: b[12],
			Status:         parseDoseStatus(b[13]),
		}
	case EventBattery:
		return BatteryPayload{
			Status:     parseBatteryStatus(b[11]),
			Voltage:    CalcVoltage(b[12]),
			IsCharging: b[13] == 1,
		}
	case EventWakeUp:
		return decodeWakeUp(b)
	case EventWakeUpSource:
		return WakeUpSourcePayload{
			Source:      parseWakeUpSource(b[11]),
			Sensitivity: b[12],
		}
	case EventMounting:
		return MountingPayload{Status: parseMountingStatus(b[11])}
	case EventSystemError:
		return SystemErrorPayload{
			Status:     parseSystemErrorStatus(b[11]),
			Voltage:    CalcVoltage(b[12]),
			IsCharging: b[13] == 1,
		}
	case EventSystemReset:
		return SystemResetPayload{
			Status:     parseSystemResetStatus(b[11]),
			Voltage:    CalcVoltage(b[12]),
			IsCharging: b[13] == 1,
		}
	case EventTemperatureWarning:
		return TemperatureWarningPayload{
			Status:        parseTemperatureWarningStatus(b[11]),
			CurrentTemp:   b[12],
			HighThreshold: b[13],
			LowThreshold:  b[14],
		}
	case EventFailedRead:
		return FailedReadPayload{Status: parseFailedReadStatus(b[11])}
	case EventDFU:
		return DFUPayload{Status: parseDFUStatus(b[11])}
	case EventModeChange:
		return ModeChangePayload{Status: parseModeChangeStatus(b[11])}
	case EventLogging:
		return LoggingPayload{
			Status:  parseLoggingStatus(b[11]),
			FileID:  uint16(b[12])<<8 | uint16(b[13]),
			Voltage: CalcVoltage(b[14]),
		}
	case EventSaturation:
		return SaturationPayload{Status: parseSaturationStatus(b[11])}
	case EventKwikPenCalibration:
		return KwikPenCalibrationPayload{
			ShaftIR: uint16(b[11])<<8 | uint16(b[12]),
			KnobIR:  uint16(b[13])<<8 | uint16(b[14]),
		}
	case EventIncorrectMounting:
		return IncorrectMountingPayload{Status: parseIncorrectMountingStatus(b[11])}
	case EventPenSelect:
		return PenSelectPayload{
			PenType:      PenType(b[11]),
			MajorVersion: b[12],
			MinorVersion: b[13],
		}
	default:
		return UnknownPayload{}
	}
}

// decodeWakeUp applies the cross-field suppression rule: sleep-class
// statuses invalidate both state and keep-awake, while an active BLE or
// charging keep-awake invalidates state only.
func decodeWakeUp(b []byte) WakeUpPayload {
	p := WakeUpPayload{
		Status:    parseWakeUpStatus(b[11]),
		State:     parseWakeUpState(b[12]),
		KeepAwake: parseKeepAwake(b[13]),
	}
	switch {
	case p.Status == SleepEvent || p.Status == ForceSleep:
		p.State = WakeUpStateUnknown
		p.KeepAwake = KeepAwakeUnknown
	case p.KeepAwake == BLEKeepAwake || p.KeepAwake == ChargingKeepAwake:
		p.State = WakeUpStateUnknown
	}
	return p
}
