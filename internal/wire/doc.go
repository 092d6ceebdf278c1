// Package wire implements the device wire format for cathodic-protection
// field devices.
//
// The codec converts between canonical in-process parameter values and the
// representations the device firmware expects inside a settings frame:
// zero-padded voltage strings, tenth-scaled currents, hundredth-scaled
// signed reference strings, tenth-scaled timer values, and numeric enum
// codes for electrode types and operating modes.
//
// All transforms are pure and total for well-typed numeric/string input.
// A value that cannot be interpreted is passed through unchanged and
// surfaced as a field warning - one malformed field must not block
// delivery of the rest of the frame.
//
// # Scale disambiguation
//
// The wire format is not self-describing: a reference value of -80 may be
// a hundredth-scaled -0.80 or a raw reading. Two pinned protocol constants
// disambiguate:
//
//   - On encode, magnitudes above ScaleCutoff (100) are treated as already
//     wire-scaled and passed through after rounding.
//   - On decode, magnitudes below DecimalCutoff (5) are treated as already
//     decimal; anything larger is divided by 100.
//
// These cutoffs are part of the device protocol and must not be changed
// without a matching firmware release.
package wire
