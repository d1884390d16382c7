// Package reconcile implements the reconciliation engine: a read-only
// two-pass tree diff between a planned sequence tree and the live hierarchy.
//
// For each planned sequence the engine emits one op (CREATE when the asset
// does not exist, UPDATE or UNCHANGED otherwise). For each planned section it
// first descends into the referenced child, then emits the section op, so a
// section is never written before the sequence it references. Live sections
// that no planned section matches are emitted as REMOVE.
//
// Equality is structural and frame-exact: planned times are snapped to the
// live sequence's rate with rational.Time.Frames before comparison, the same
// conversion the applier uses to write them. Running the same import twice
// therefore yields an all-UNCHANGED plan.
package reconcile
