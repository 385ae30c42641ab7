// Package ir provides the plain-data representation used at the export
// boundary of tradesim.
//
// Process and event exports are projected into IRValue trees and rendered as
// RFC 8785 canonical JSON. The canonical form is what golden traces compare
// and what state digests hash, so two snapshots are equal by value exactly
// when their digests match.
//
// Key design constraints:
//   - ir imports nothing internal
//   - Numbers render in ECMAScript form; NaN and infinities are rejected
//   - Object keys sort by UTF-16 code units
package ir
