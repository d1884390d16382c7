// Package rational provides exact rational time for otioseq.
//
// This package contains value types only and imports nothing internal.
// Every other package that carries time uses these types.
//
// Key design constraints:
//   - NO float types anywhere; rates, values and speed multipliers are Ratios
//   - Values are normalized (gcd-reduced, positive denominator) so == works
//   - Time.Frames is the ONLY function that rounds; it is called when a plan is
//     written to the host (and when a plan is compared against host state)
package rational
