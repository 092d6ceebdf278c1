package wire

import "fmt"

// FieldWarning records a parameter that could not be converted. The raw
// value is carried through so the rest of the frame still ships.
type FieldWarning struct {
	Field  string
	Value  any
	Reason string
}

func (w FieldWarning) String() string {
	return fmt.Sprintf("%s=%v: %s", w.Field, w.Value, w.Reason)
}

// EncodeParameters converts a canonical parameter map to its device wire
// form. Every input key is present in the output: convertible values are
// transformed, unknown names pass through untouched, and malformed values
// pass through raw with a FieldWarning.
func EncodeParameters(params map[string]any) (map[string]any, []FieldWarning) {
	out := make(map[string]any, len(params))
	var warnings []FieldWarning

	for name, value := range params {
		encoded, err := encodeParameter(name, value)
		if err != nil {
			warnings = append(warnings, FieldWarning{Field: name, Value: value, Reason: err.Error()})
			out[name] = value
			continue
		}
		out[name] = encoded
	}

	return out, warnings
}

func encodeParameter(name string, value any) (any, error) {
	switch name {
	case ParamElectrode:
		return EncodeElectrode(value)

	case ParamEvent:
		return EncodeEvent(value)

	case ParamShuntVoltage:
		f, ok := ToFloat(value)
		if !ok {
			return nil, fmt.Errorf("not numeric")
		}
		return EncodePaddedVoltage(f), nil

	case ParamShuntCurrent:
		f, ok := ToFloat(value)
		if !ok {
			return nil, fmt.Errorf("not numeric")
		}
		return EncodeScaledCurrent(f), nil

	case ParamReferenceFail, ParamReferenceUP, ParamReferenceOP:
		f, ok := ToFloat(value)
		if !ok {
			return nil, fmt.Errorf("not numeric")
		}
		return EncodeSignedReference(f), nil

	case ParamInterruptOnTime, ParamInterruptOffTime:
		secs, _, err := NormalizeDuration(value)
		if err != nil {
			return nil, err
		}
		return EncodeTimerSeconds(secs), nil

	case ParamDepolInterval:
		// The firmware takes this one as a clock string, not scaled units.
		_, hms, err := NormalizeDuration(value)
		if err != nil {
			return nil, err
		}
		return hms, nil

	case ParamManualModeAction, ParamInstantMode, ParamLoggingInterval:
		n, ok := ToInt(value)
		if !ok {
			return nil, fmt.Errorf("not numeric")
		}
		return n, nil

	default:
		// Timestamps and any non-canonical fields ride along unchanged.
		return value, nil
	}
}

// DecodeParameters converts a device-reported parameter map back to
// canonical form. Every input key is present in the output; malformed
// values pass through raw with a FieldWarning.
func DecodeParameters(params map[string]any) (map[string]any, []FieldWarning) {
	out := make(map[string]any, len(params))
	var warnings []FieldWarning

	for name, value := range params {
		decoded, err := decodeParameter(name, value)
		if err != nil {
			warnings = append(warnings, FieldWarning{Field: name, Value: value, Reason: err.Error()})
			out[name] = value
			continue
		}
		out[name] = decoded
	}

	return out, warnings
}

func decodeParameter(name string, value any) (any, error) {
	switch name {
	case ParamElectrode, ParamEvent, ParamManualModeAction,
		ParamInstantMode, ParamLoggingInterval:
		n, ok := ToInt(value)
		if !ok {
			return nil, fmt.Errorf("not numeric")
		}
		return n, nil

	case ParamShuntVoltage:
		f, ok := ToFloat(value)
		if !ok {
			return nil, fmt.Errorf("not numeric")
		}
		return f, nil

	case ParamShuntCurrent:
		f, ok := ToFloat(value)
		if !ok {
			return nil, fmt.Errorf("not numeric")
		}
		return DecodeCurrent(f), nil

	case ParamReferenceFail, ParamReferenceUP, ParamReferenceOP:
		f, ok := ToFloat(value)
		if !ok {
			return nil, fmt.Errorf("not numeric")
		}
		return DecodeReference(f), nil

	case ParamInterruptOnTime, ParamInterruptOffTime:
		f, ok := ToFloat(value)
		if !ok {
			return nil, fmt.Errorf("not numeric")
		}
		return DecodeTimer(f), nil

	case ParamDepolInterval:
		_, hms, err := NormalizeDuration(value)
		if err != nil {
			return nil, err
		}
		return hms, nil

	default:
		return value, nil
	}
}
