package settings

import (
	"time"

	"github.com/fieldwatch/cathodic-core/internal/wire"
)

// DeviceSettings is the complete canonical parameter snapshot for one
// device. Fields maps canonical parameter names to canonical values
// (numbers, clock strings, or timestamp strings).
type DeviceSettings struct {
	DeviceID  string         `json:"device_id"`
	Fields    map[string]any `json:"fields"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// DeepCopy returns an independent copy of the settings. Field values are
// scalars, so a shallow copy of the map is sufficient.
func (s *DeviceSettings) DeepCopy() *DeviceSettings {
	if s == nil {
		return nil
	}
	clone := &DeviceSettings{
		DeviceID:  s.DeviceID,
		UpdatedAt: s.UpdatedAt,
	}
	if s.Fields != nil {
		clone.Fields = make(map[string]any, len(s.Fields))
		for k, v := range s.Fields {
			clone.Fields[k] = v
		}
	}
	return clone
}

// Defaults returns the built-in canonical settings used to seed a device
// that has no persisted configuration. Every canonical parameter is
// present so the first dispatched frame is already complete.
func Defaults(deviceID string) *DeviceSettings {
	return &DeviceSettings{
		DeviceID: deviceID,
		Fields: map[string]any{
			wire.ParamElectrode:           wire.ElectrodeCopperSulphate,
			wire.ParamEvent:               wire.EventNormal,
			wire.ParamManualModeAction:    0,
			wire.ParamShuntVoltage:        0.0,
			wire.ParamShuntCurrent:        0.0,
			wire.ParamReferenceFail:       wire.ReferenceFailDefault(wire.ElectrodeCopperSulphate),
			wire.ParamReferenceUP:         0.0,
			wire.ParamReferenceOP:         0.0,
			wire.ParamInterruptOnTime:     30,
			wire.ParamInterruptOffTime:    30,
			wire.ParamInterruptStartStamp: "",
			wire.ParamInterruptStopStamp:  "",
			wire.ParamDepolStartStamp:     "",
			wire.ParamDepolStopStamp:      "",
			wire.ParamDepolInterval:       "00:00:00",
			wire.ParamInstantMode:         0,
			wire.ParamInstantStartStamp:   "",
			wire.ParamInstantEndStamp:     "",
			wire.ParamLoggingInterval:     10,
		},
		UpdatedAt: time.Now().UTC(),
	}
}
