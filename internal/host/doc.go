// Package host provides a SQLite-backed editing host: sequence assets, their
// shot track sections and markers, and a transaction journal with undo.
//
// # Model
//
//   - sequences: one row per asset, keyed by normalized path, with a frame
//     rate, a playback range in frames and opaque host properties
//   - sections: shot track entries of a parent sequence referencing a child
//     by path; frames are at the parent's rate
//   - sequence_markers / section_markers: named coloured frame ranges
//   - transactions / transaction_snapshots: one row per committed write
//     transaction plus the pre-write state of every sequence it touched
//
// # Transactions
//
// Begin takes an exclusive file lock and opens one SQL transaction; all
// writes of an import go through it and are committed or rolled back
// together. Undo restores the snapshots of the most recent transaction that
// has not been undone, as a transaction of its own.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// All listing queries order deterministically (position, then id).
package host
