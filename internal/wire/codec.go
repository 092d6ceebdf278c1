package wire

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Pinned protocol constants for scale disambiguation. See package doc.
const (
	// ScaleCutoff is the encode-side boundary: a magnitude above it is
	// treated as already wire-scaled and is not multiplied again.
	ScaleCutoff = 100.0

	// DecimalCutoff is the decode-side boundary: a magnitude below it is
	// treated as an already-decimal reference value and is not divided.
	DecimalCutoff = 5.0

	// currentScale is the wire multiplier for shunt current values.
	currentScale = 10.0

	// referenceScale is the wire multiplier for reference voltages.
	referenceScale = 100.0

	// timerScale is the wire multiplier for interrupt timer seconds.
	timerScale = 10
)

// EncodePaddedVoltage rounds a voltage to the nearest integer and renders
// it as a 3-digit zero-padded decimal string. No scaling is applied.
//
//	75 -> "075"
//	128 -> "128"
func EncodePaddedVoltage(v float64) string {
	return fmt.Sprintf("%03d", int(math.Round(v)))
}

// EncodeScaledCurrent converts a shunt current to its wire integer.
// Magnitudes above ScaleCutoff are treated as already scaled and only
// rounded; otherwise the value is multiplied by 10 and rounded.
//
//	16.8 -> 168
//	168  -> 168
func EncodeScaledCurrent(v float64) int {
	if math.Abs(v) > ScaleCutoff {
		return int(math.Round(v))
	}
	return int(math.Round(v * currentScale))
}

// EncodeSignedReference converts a reference voltage to its wire string:
// a 3-digit zero-padded magnitude with a leading "-" for negative values.
// Magnitudes above ScaleCutoff are treated as already scaled; otherwise
// the value is multiplied by 100 before rounding.
//
//	-0.8 -> "-080"
//	1.24 -> "124"
//	-80  -> "-080" (already scaled)
func EncodeSignedReference(v float64) string {
	scaled := v
	if math.Abs(v) <= ScaleCutoff {
		scaled = v * referenceScale
	}

	n := int(math.Round(scaled))
	if n < 0 {
		return fmt.Sprintf("-%03d", -n)
	}
	return fmt.Sprintf("%03d", n)
}

// EncodeTimerSeconds converts integer seconds to the wire timer unit
// (tenths of a second).
//
//	30 -> 300
func EncodeTimerSeconds(seconds int) int {
	return seconds * timerScale
}

// DecodeReference converts a wire reference value back to its canonical
// decimal form, rounded to two decimal places.
//
// The wire format is ambiguous here: magnitudes below DecimalCutoff are
// assumed to already be decimal readings and pass through; anything
// larger is assumed hundredth-scaled and is divided by 100.
//
//	-80   -> -0.80
//	1.24  -> 1.24
func DecodeReference(raw float64) float64 {
	v := raw
	if math.Abs(raw) >= DecimalCutoff {
		v = raw / referenceScale
	}
	return math.Round(v*100) / 100
}

// DecodeCurrent converts a wire current value back to canonical amps,
// undoing the tenth scaling applied by EncodeScaledCurrent.
//
//	168 -> 16.8
func DecodeCurrent(raw float64) float64 {
	return math.Round(raw) / currentScale
}

// DecodeTimer converts a wire timer value (tenths of a second) back to
// whole seconds.
func DecodeTimer(raw float64) int {
	return int(math.Round(raw / timerScale))
}

// ToFloat coerces a canonical value to float64. It accepts native Go
// numerics, JSON-decoded float64, and numeric strings (including the
// signed zero-padded wire form, e.g. "-080").
func ToFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToInt coerces a canonical value to int, accepting the same inputs as
// ToFloat and rounding fractional values.
func ToInt(v any) (int, bool) {
	f, ok := ToFloat(v)
	if !ok {
		return 0, false
	}
	return int(math.Round(f)), true
}
