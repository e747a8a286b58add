package protocol

// Enum fields decode with a per-field Unknown sentinel: a byte outside the
// known set never fails the frame, it only marks that one field. The lone
// exception is WakeUpSource, which the firmware documents as defaulting to
// Move for unmapped values.

// DoseStatus qualifies dose, injection and adjusted-injection events.
type DoseStatus uint8

const (
	DoseStatusUnknown  DoseStatus = 0x00
	DoseCompleted      DoseStatus = 0x01
	DoseInterrupted    DoseStatus = 0x02
	DoseUnderDelivered DoseStatus = 0x03
	DoseOverDelivered  DoseStatus = 0x04
)

func parseDoseStatus(b byte) DoseStatus {
	switch DoseStatus(b) {
	case DoseCompleted, DoseInterrupted, DoseUnderDelivered, DoseOverDelivered:
		return DoseStatus(b)
	default:
		return DoseStatusUnknown
	}
}

func (s DoseStatus) String() string {
	switch s {
	case DoseCompleted:
		return "completed"
	case DoseInterrupted:
		return "interrupted"
	case DoseUnderDelivered:
		return "under_delivered"
	case DoseOverDelivered:
		return "over_delivered"
	default:
		return "unknown"
	}
}

type BatteryStatus uint8

const (
	BatteryStatusUnknown BatteryStatus = 0x00
	BatteryOK            BatteryStatus = 0x01
	BatteryLow           BatteryStatus = 0x02
	BatteryCritical      BatteryStatus = 0x03
)

func parseBatteryStatus(b byte) BatteryStatus {
	switch BatteryStatus(b) {
	case BatteryOK, BatteryLow, BatteryCritical:
		return BatteryStatus(b)
	default:
		return BatteryStatusUnknown
	}
}

func (s BatteryStatus) String() string {
	switch s {
	case BatteryOK:
		return "ok"
	case BatteryLow:
		return "low"
	case BatteryCritical:
		return "critical"
	default:
		return "unknown"
	}
}

type WakeUpStatus uint8

const (
	WakeUpStatusUnknown WakeUpStatus = 0x00
	WakeEvent           WakeUpStatus = 0x01
	SleepEvent          WakeUpStatus = 0x02
	ForceSleep          WakeUpStatus = 0x03
)

func parseWakeUpStatus(b byte) WakeUpStatus {
	switch WakeUpStatus(b) {
	case WakeEvent, SleepEvent, ForceSleep:
		return WakeUpStatus(b)
	default:
		return WakeUpStatusUnknown
	}
}

func (s WakeUpStatus) String() string {
	switch s {
	case WakeEvent:
		return "wake"
	case SleepEvent:
		return "sleep"
	case ForceSleep:
		return "force_sleep"
	default:
		return "unknown"
	}
}

type WakeUpState uint8

const (
	WakeUpStateUnknown WakeUpState = 0x00
	StateActive        WakeUpState = 0x01
	StateIdle          WakeUpState = 0x02
	StatePreSleep      WakeUpState = 0x03
)

func parseWakeUpState(b byte) WakeUpState {
	switch WakeUpState(b) {
	case StateActive, StateIdle, StatePreSleep:
		return WakeUpState(b)
	default:
		return WakeUpStateUnknown
	}
}

func (s WakeUpState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateIdle:
		return "idle"
	case StatePreSleep:
		return "pre_sleep"
	default:
		return "unknown"
	}
}

type KeepAwake uint8

const (
	KeepAwakeUnknown  KeepAwake = 0x00
	NoKeepAwake       KeepAwake = 0x01
	BLEKeepAwake      KeepAwake = 0x02
	ChargingKeepAwake KeepAwake = 0x03
)

func parseKeepAwake(b byte) KeepAwake {
	switch KeepAwake(b) {
	case NoKeepAwake, BLEKeepAwake, ChargingKeepAwake:
		return KeepAwake(b)
	default:
		return KeepAwakeUnknown
	}
}

func (k KeepAwake) String() string {
	switch k {
	case NoKeepAwake:
		return "none"
	case BLEKeepAwake:
		return "ble"
	case ChargingKeepAwake:
		return "charging"
	default:
		return "unknown"
	}
}

// WakeUpSource identifies what woke the device. Unmapped bytes decode to
// SourceMove rather than an Unknown sentinel; movement is the firmware's
// catch-all wake reason.
type WakeUpSource uint8

const (
	SourceMove    WakeUpSource = 0x01
	SourceButton  WakeUpSource = 0x02
	SourceCharger WakeUpSource = 0x03
	SourceBLE     WakeUpSource = 0x04
)

func parseWakeUpSource(b byte) WakeUpSource {
	switch WakeUpSource(b) {
	case SourceMove, SourceButton, SourceCharger, SourceBLE:
		return WakeUpSource(b)
	default:
		return SourceMove
	}
}

func (s WakeUpSource) String() string {
	switch s {
	case SourceButton:
		return "button"
	case SourceCharger:
		return "charger"
	case SourceBLE:
		return "ble"
	default:
		return "move"
	}
}

type MountingStatus uint8

const (
	MountingStatusUnknown MountingStatus = 0x00
	Mounted               MountingStatus = 0x01
	Unmounted             MountingStatus = 0x02
)

func parseMountingStatus(b byte) MountingStatus {
	switch MountingStatus(b) {
	case Mounted, Unmounted:
		return MountingStatus(b)
	default:
		return MountingStatusUnknown
	}
}

func (s MountingStatus) String() string {
	switch s {
	case Mounted:
		return "mounted"
	case Unmounted:
		return "unmounted"
	default:
		return "unknown"
	}
}

type SystemErrorStatus uint8

const (
	SystemErrorUnknown SystemErrorStatus = 0x00
	ErrorHardFault     SystemErrorStatus = 0x01
	ErrorSensorFault   SystemErrorStatus = 0x02
	ErrorStorageFault  SystemErrorStatus = 0x03
)

func parseSystemErrorStatus(b byte) SystemErrorStatus {
	switch SystemErrorStatus(b) {
	case ErrorHardFault, ErrorSensorFault, ErrorStorageFault:
		return SystemErrorStatus(b)
	default:
		return SystemErrorUnknown
	}
}

func (s SystemErrorStatus) String() string {
	switch s {
	case ErrorHardFault:
		return "hard_fault"
	case ErrorSensorFault:
		return "sensor_fault"
	case ErrorStorageFault:
		return "storage_fault"
	default:
		return "unknown"
	}
}

type SystemResetStatus uint8

const (
	SystemResetUnknown SystemResetStatus = 0x00
	ResetPowerOn       SystemResetStatus = 0x01
	ResetWatchdog      SystemResetStatus = 0x02
	ResetSoftware      SystemResetStatus = 0x03
	ResetBrownout      SystemResetStatus = 0x04
)

func parseSystemResetStatus(b byte) SystemResetStatus {
	switch SystemResetStatus(b) {
	case ResetPowerOn, ResetWatchdog, ResetSoftware, ResetBrownout:
		return SystemResetStatus(b)
	default:
		return SystemResetUnknown
	}
}

func (s SystemResetStatus) String() string {
	switch s {
	case ResetPowerOn:
		return "power_on"
	case ResetWatchdog:
		return "watchdog"
	case ResetSoftware:
		return "software"
	case ResetBrownout:
		return "brownout"
	default:
		return "unknown"
	}
}

type TemperatureWarningStatus uint8

const (
	TemperatureWarningUnknown TemperatureWarningStatus = 0x00
	TemperatureHigh           TemperatureWarningStatus = 0x01
	TemperatureLow            TemperatureWarningStatus = 0x02
	TemperatureCleared        TemperatureWarningStatus = 0x03
)

func parseTemperatureWarningStatus(b byte) TemperatureWarningStatus {
	switch TemperatureWarningStatus(b) {
	case TemperatureHigh, TemperatureLow, TemperatureCleared:
		return TemperatureWarningStatus(b)
	default:
		return TemperatureWarningUnknown
	}
}

func (s TemperatureWarningStatus) String() string {
	switch s {
	case TemperatureHigh:
		return "high"
	case TemperatureLow:
		return "low"
	case TemperatureCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

type FailedReadStatus uint8

const (
	FailedReadUnknown   FailedReadStatus = 0x00
	ReadSensorTimeout   FailedReadStatus = 0x01
	ReadSensorSaturated FailedReadStatus = 0x02
	ReadNoPen           FailedReadStatus = 0x03
)

func parseFailedReadStatus(b byte) FailedReadStatus {
	switch FailedReadStatus(b) {
	case ReadSensorTimeout, ReadSensorSaturated, ReadNoPen:
		return FailedReadStatus(b)
	default:
		return FailedReadUnknown
	}
}

func (s FailedReadStatus) String() string {
	switch s {
	case ReadSensorTimeout:
		return "sensor_timeout"
	case ReadSensorSaturated:
		return "sensor_saturated"
	case ReadNoPen:
		return "no_pen"
	default:
		return "unknown"
	}
}

type DFUStatus uint8

const (
	DFUStatusUnknown DFUStatus = 0x00
	DFUStarted       DFUStatus = 0x01
	DFUCompleted     DFUStatus = 0x02
	DFUFailed        DFUStatus = 0x03
	DFUAborted       DFUStatus = 0x04
)

func parseDFUStatus(b byte) DFUStatus {
	switch DFUStatus(b) {
	case DFUStarted, DFUCompleted, DFUFailed, DFUAborted:
		return DFUStatus(b)
	default:
		return DFUStatusUnknown
	}
}

func (s DFUStatus) String() string {
	switch s {
	case DFUStarted:
		return "started"
	case DFUCompleted:
		return "completed"
	case DFUFailed:
		return "failed"
	case DFUAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

type ModeChangeStatus uint8

const (
	ModeChangeUnknown ModeChangeStatus = 0x00
	ModeOperational   ModeChangeStatus = 0x01
	ModeStorage       ModeChangeStatus = 0x02
	ModeManufacturing ModeChangeStatus = 0x03
)

func parseModeChangeStatus(b byte) ModeChangeStatus {
	switch ModeChangeStatus(b) {
	case ModeOperational, ModeStorage, ModeManufacturing:
		return ModeChangeStatus(b)
	default:
		return ModeChangeUnknown
	}
}

func (s ModeChangeStatus) String() string {
	switch s {
	case ModeOperational:
		return "operational"
	case ModeStorage:
		return "storage"
	case ModeManufacturing:
		return "manufacturing"
	default:
		return "unknown"
	}
}

type LoggingStatus uint8

const (
	LoggingStatusUnknown LoggingStatus = 0x00
	LoggingStarted       LoggingStatus = 0x01
	LoggingStopped       LoggingStatus = 0x02
	LoggingFlushed       LoggingStatus = 0x03
)

func parseLoggingStatus(b byte) LoggingStatus {
	switch LoggingStatus(b) {
	case LoggingStarted, LoggingStopped, LoggingFlushed:
		return LoggingStatus(b)
	default:
		return LoggingStatusUnknown
	}
}

func (s LoggingStatus) String() string {
	switch s {
	case LoggingStarted:
		return "started"
	case LoggingStopped:
		return "stopped"
	case LoggingFlushed:
		return "flushed"
	default:
		return "unknown"
	}
}

type SaturationStatus uint8

const (
	SaturationStatusUnknown SaturationStatus = 0x00
	SaturationEntered       SaturationStatus = 0x01
	SaturationCleared       SaturationStatus = 0x02
)

func parseSaturationStatus(b byte) SaturationStatus {
	switch SaturationStatus(b) {
	case SaturationEntered, SaturationCleared:
		return SaturationStatus(b)
	default:
		return SaturationStatusUnknown
	}
}

func (s SaturationStatus) String() string {
	switch s {
	case SaturationEntered:
		return "entered"
	case SaturationCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

type IncorrectMountingStatus uint8

const (
	IncorrectMountingUnknown IncorrectMountingStatus = 0x00
	MountReversed            IncorrectMountingStatus = 0x01
	MountMisaligned          IncorrectMountingStatus = 0x02
	MountLoose               IncorrectMountingStatus = 0x03
)

func parseIncorrectMountingStatus(b byte) IncorrectMountingStatus {
	switch IncorrectMountingStatus(b) {
	case MountReversed, MountMisaligned, MountLoose:
		return IncorrectMountingStatus(b)
	default:
		return IncorrectMountingUnknown
	}
}

func (s IncorrectMountingStatus) String() string {
	switch s {
	case MountReversed:
		return "reversed"
	case MountMisaligned:
		return "misaligned"
	case MountLoose:
		return "loose"
	default:
		return "unknown"
	}
}

// PenType identifies the pen model reported by a pen-select event. The
// byte is carried through as-is; only known models get a readable name.
type PenType uint8

const (
	PenKwikPen       PenType = 0x01
	PenKwikPenJunior PenType = 0x02
	PenTempo         PenType = 0x03
)

func (p PenType) String() string {
	switch p {
	case PenKwikPen:
		return "kwikpen"
	case PenKwikPenJunior:
		return "kwikpen_junior"
	case PenTempo:
		return "tempo"
	default:
		return "unknown"
	}
}
