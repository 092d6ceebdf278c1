package wire

import (
	"fmt"
	"strings"
)

// Electrode codes for the reference-electrode types supported by the
// device firmware.
const (
	ElectrodeCopperSulphate = 0
	ElectrodeZinc           = 1
	ElectrodeSilverChloride = 2
)

// Event codes for the named operating modes.
const (
	EventNormal    = 0
	EventManual    = 1
	EventInterrupt = 2
	EventDPOL      = 3
	EventInstant   = 4
)

// Reference-fail defaults per electrode type, applied when the electrode
// changes without an explicit Reference Fail value in the same delta.
const (
	referenceFailCopperSilver = 0.30
	referenceFailZinc         = -0.80
)

// electrodeCodes maps electrode names (case-insensitive) to wire codes.
var electrodeCodes = map[string]int{
	"copper sulphate": ElectrodeCopperSulphate,
	"copper":          ElectrodeCopperSulphate,
	"zinc":            ElectrodeZinc,
	"silver chloride": ElectrodeSilverChloride,
	"silver":          ElectrodeSilverChloride,
}

// electrodeNames maps wire codes back to display names.
var electrodeNames = map[int]string{
	ElectrodeCopperSulphate: "Copper Sulphate",
	ElectrodeZinc:           "Zinc",
	ElectrodeSilverChloride: "Silver Chloride",
}

// eventCodes maps operating-mode names (case-insensitive) to Event codes.
var eventCodes = map[string]int{
	"normal":    EventNormal,
	"manual":    EventManual,
	"interrupt": EventInterrupt,
	"dpol":      EventDPOL,
	"instant":   EventInstant,
}

// eventNames maps Event codes back to display names.
var eventNames = map[int]string{
	EventNormal:    "Normal",
	EventManual:    "Manual",
	EventInterrupt: "Interrupt",
	EventDPOL:      "DPOL",
	EventInstant:   "Instant",
}

// EncodeElectrode converts an electrode value to its wire code.
// Numeric input is passed through unchanged after range validation;
// string input is looked up in the name table.
func EncodeElectrode(v any) (int, error) {
	if code, ok := ToInt(v); ok {
		if _, known := electrodeNames[code]; !known {
			return 0, fmt.Errorf("unknown electrode code %d", code)
		}
		return code, nil
	}

	name, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("electrode value %v (%T) is neither code nor name", v, v)
	}
	code, known := electrodeCodes[strings.ToLower(strings.TrimSpace(name))]
	if !known {
		return 0, fmt.Errorf("unknown electrode name %q", name)
	}
	return code, nil
}

// ElectrodeName returns the display name for an electrode code,
// or "" if the code is unknown.
func ElectrodeName(code int) string {
	return electrodeNames[code]
}

// EncodeEvent converts an operating-mode value to its Event code.
// Numeric input is passed through unchanged after range validation;
// string input is looked up in the name table.
func EncodeEvent(v any) (int, error) {
	if code, ok := ToInt(v); ok {
		if _, known := eventNames[code]; !known {
			return 0, fmt.Errorf("unknown event code %d", code)
		}
		return code, nil
	}

	name, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("event value %v (%T) is neither code nor name", v, v)
	}
	code, known := eventCodes[strings.ToLower(strings.TrimSpace(name))]
	if !known {
		return 0, fmt.Errorf("unknown event name %q", name)
	}
	return code, nil
}

// EventName returns the display name for an Event code,
// or "" if the code is unknown.
func EventName(code int) string {
	return eventNames[code]
}

// ReferenceFailDefault returns the fixed reference-fail default for an
// electrode code. Copper sulphate and silver chloride electrodes default
// to 0.30; zinc defaults to -0.80.
func ReferenceFailDefault(code int) float64 {
	if code == ElectrodeZinc {
		return referenceFailZinc
	}
	return referenceFailCopperSilver
}
