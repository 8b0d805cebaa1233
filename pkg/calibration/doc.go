// Package calibration maps raw sensor pulse widths to 0-255 intensities.
//
// A Range is the pair of raw readings observed for the brightest (Low) and
// darkest (High) target. The sensor's pulse width shrinks as light grows, so
// the map is inverted: Low lands on 255 and High on 0. Values outside the range
// extrapolate past [0, 255]; nothing is clamped.
package calibration
