// Package antenna finds antinodes produced by same-frequency antenna pairs.
//
// Markers are parsed from a rectangular map where '.' is empty and every
// letter or digit is an antenna tuned to that frequency. For each ordered pair
// of antennas sharing a frequency, the offset between them is projected past
// the first antenna:
//   - the single rule keeps the one point at A + (A - B);
//   - the harmonic rule keeps every in-bounds point A + m*(A - B), m >= 0.
package antenna
