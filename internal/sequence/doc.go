// Package sequence models the host's nested sequence hierarchy: sequence
// assets with a shot track whose sections each reference one child sequence.
//
// The same types describe both sides of a reconciliation. A plan built from
// a timeline fills Section.Child with the planned subtree and may leave
// attributes nil to stay silent about them; a Reader returns live host state
// one sequence at a time.
//
// Sequence identity is the normalized asset path (see NormalizePath).
package sequence
