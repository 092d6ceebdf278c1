package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// SecondsToHMS renders whole seconds as a "HH:MM:SS" string.
//
//	7200 -> "02:00:00"
func SecondsToHMS(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// HMSToSeconds parses a "HH:MM:SS" string into whole seconds.
func HMSToSeconds(hms string) (int, error) {
	parts := strings.Split(strings.TrimSpace(hms), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("duration %q is not in HH:MM:SS form", hms)
	}

	var fields [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("duration %q has invalid field %q", hms, p)
		}
		fields[i] = n
	}
	if fields[1] > 59 || fields[2] > 59 {
		return 0, fmt.Errorf("duration %q has out-of-range minutes or seconds", hms)
	}

	return fields[0]*3600 + fields[1]*60 + fields[2], nil
}

// NormalizeDuration accepts a duration in either accepted form, integer
// seconds or a "HH:MM:SS" string, and returns both representations.
func NormalizeDuration(v any) (seconds int, hms string, err error) {
	switch val := v.(type) {
	case string:
		if secs, perr := HMSToSeconds(val); perr == nil {
			return secs, SecondsToHMS(secs), nil
		}
		// Numeric string, e.g. "7200".
		if f, ok := ToFloat(val); ok && f >= 0 {
			secs := int(f)
			return secs, SecondsToHMS(secs), nil
		}
		return 0, "", fmt.Errorf("duration %q is neither seconds nor HH:MM:SS", val)
	default:
		f, ok := ToFloat(v)
		if !ok || f < 0 {
			return 0, "", fmt.Errorf("duration %v (%T) is not a valid duration", v, v)
		}
		secs := int(f)
		return secs, SecondsToHMS(secs), nil
	}
}
