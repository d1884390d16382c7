// Package harness runs conformance scenarios against a real host database.
//
// A scenario seeds sequences, then runs a flow of imports, exports and
// undos through the same pipeline the CLI uses, and finally checks the
// recorded trace and the host state.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	root: /Game/Levels/Main_SEQ
//	hooks:
//	  - stage: pre_import_item
//	    name: sequence_path_template
//	    args: { root_path: /Game/Levels/Main_SEQ, clip_template: "/Game/Shots/{name}" }
//	setup:
//	  - path: /Game/Levels/Main_SEQ
//	    rate: "24"
//	    end: 48
//	flow:
//	  - import: { OTIO_SCHEMA: Timeline.1, ... }
//	    expect:
//	      summary: { create: 4 }
//	  - export: true
//	  - reimport: true
//	    expect:
//	      summary: { create: 0, update: 0, remove: 0 }
//	  - undo: true
//	assertions:
//	  - type: plan_contains
//	    step: 0
//	    kind: CREATE
//	    target: section
//	    path: /Game/Shots/sh010
//	  - type: final_state
//	    sequence: /Game/Levels/Main_SEQ
//	    expect: { start: 0, end: 48, sections: 2 }
//
// # Assertion Types
//
//   - plan_contains: an op with the given kind, target and path was planned
//   - plan_order: ops appear in the given order ("KIND target path")
//   - plan_count: exactly N ops of a kind were planned
//   - final_state: a sequence (or one of its sections) has the given values
//   - absent: no sequence exists at the given path
//
// # Deterministic Testing
//
// Transaction ids come from testutil.SequentialIDGenerator and every
// scenario gets a fresh database, so traces are identical across runs and
// can be compared against golden files with RunWithGolden.
package harness
