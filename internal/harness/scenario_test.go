package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const minimalScenario = `
name: minimal
description: "Minimal scenario"
root: /Game/Levels/Main_SEQ
setup:
  - path: /Game/Levels/Main_SEQ
    end: 24
flow:
  - import:
      OTIO_SCHEMA: Timeline.1
      name: empty
  - export: true
  - reimport: true
    expect:
      summary: {create: 0}
assertions:
  - type: plan_count
    step: 0
    kind: UPDATE
    count: 1
`

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "minimal", scenario.Name)
	assert.Equal(t, "/Game/Levels/Main_SEQ", scenario.Root)
	require.Len(t, scenario.Setup, 1)
	assert.Equal(t, int64(24), scenario.Setup[0].End)
	require.Len(t, scenario.Flow, 3)
	assert.NotNil(t, scenario.Flow[0].Import)
	assert.True(t, scenario.Flow[1].Export)
	assert.True(t, scenario.Flow[2].Reimport)
	assert.Equal(t, map[string]int{"create": 0}, scenario.Flow[2].Expect.Summary)
	require.Len(t, scenario.Assertions, 1)
	require.NotNil(t, scenario.Assertions[0].Step)
	assert.Equal(t, 0, *scenario.Assertions[0].Step)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Fixtures(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, filepath.Base(path), scenario.Name+".yaml")
		})
	}
}

func TestParseScenario_UnknownFieldRejected(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "assertion instead of assertions"
root: /Game/Levels/Main_SEQ
flow:
  - undo: true
assertion:
  - type: absent
    sequence: /Game/A
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_InlineTimelineKeepsItsOwnKeys(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: inline
description: "Timeline keys are not scenario keys"
root: /Game/Levels/Main_SEQ
flow:
  - import:
      OTIO_SCHEMA: Timeline.1
      name: cut
      global_start_time: {OTIO_SCHEMA: RationalTime.1, value: 0, rate: 24}
      tracks:
        OTIO_SCHEMA: Stack.1
        children: []
        metadata: {unreal: {sub_sequence: /Game/Levels/Main_SEQ}}
    expect:
      summary: {create: 0}
assertions:
  - type: absent
    sequence: /Game/Nope
`))
	require.NoError(t, err)
	require.Len(t, scenario.Flow, 1)

	doc := scenario.Flow[0].Import
	require.NotNil(t, doc)
	assert.Equal(t, yaml.MappingNode, doc.Kind)
	assert.Equal(t, "OTIO_SCHEMA", doc.Content[0].Value)
	require.NotNil(t, scenario.Flow[0].Expect)
	assert.Equal(t, map[string]int{"create": 0}, scenario.Flow[0].Expect.Summary)
}

func TestParseScenario_UnknownFlowFieldRejected(t *testing.T) {
	for name, step := range map[string]string{
		"step key":   "{undo: true, undoo: true}",
		"expect key": "{undo: true, expect: {sumary: {create: 1}}}",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScenario([]byte(`
name: typo
description: "misspelt flow key"
root: /Game/Levels/Main_SEQ
flow:
  - ` + step + `
assertions:
  - type: absent
    sequence: /Game/A
`))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to parse YAML")
		})
	}
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "missing name",
			doc: `
description: "x"
root: /Game/A
flow: [{undo: true}]
assertions: [{type: absent, sequence: /Game/B}]
`,
			want: "name is required",
		},
		{
			name: "bad root",
			doc: `
name: x
description: "x"
root: Game/A
flow: [{undo: true}]
assertions: [{type: absent, sequence: /Game/B}]
`,
			want: "root",
		},
		{
			name: "two actions in one step",
			doc: `
name: x
description: "x"
root: /Game/A
flow: [{undo: true, export: true}]
assertions: [{type: absent, sequence: /Game/B}]
`,
			want: "exactly one of import, export, reimport or undo",
		},
		{
			name: "reimport before export",
			doc: `
name: x
description: "x"
root: /Game/A
flow: [{reimport: true}, {export: true}]
assertions: [{type: absent, sequence: /Game/B}]
`,
			want: "reimport needs an earlier export",
		},
		{
			name: "empty assertions",
			doc: `
name: x
description: "x"
root: /Game/A
flow: [{undo: true}]
assertions: []
`,
			want: "assertions list is required",
		},
		{
			name: "bad setup rate",
			doc: `
name: x
description: "x"
root: /Game/A
setup: [{path: /Game/A, rate: "-24", end: 10}]
flow: [{undo: true}]
assertions: [{type: absent, sequence: /Game/B}]
`,
			want: "must be a positive rate",
		},
		{
			name: "section ends before it starts",
			doc: `
name: x
description: "x"
root: /Game/A
setup:
  - path: /Game/A
    end: 10
    sections: [{sub_sequence: /Game/B, start: 5, end: 2}]
flow: [{undo: true}]
assertions: [{type: absent, sequence: /Game/B}]
`,
			want: "setup[0].sections[0]: end 2 is before start 5",
		},
		{
			name: "unknown assertion type",
			doc: `
name: x
description: "x"
root: /Game/A
flow: [{undo: true}]
assertions: [{type: trace_contains}]
`,
			want: `unknown assertion type "trace_contains"`,
		},
		{
			name: "unknown op kind",
			doc: `
name: x
description: "x"
root: /Game/A
flow: [{undo: true}]
assertions: [{type: plan_count, kind: DELETE, count: 1}]
`,
			want: `unknown op kind "DELETE"`,
		},
		{
			name: "step out of range",
			doc: `
name: x
description: "x"
root: /Game/A
flow: [{undo: true}]
assertions: [{type: plan_count, step: 1, kind: CREATE, count: 0}]
`,
			want: "step 1 is out of range",
		},
		{
			name: "final_state without expect",
			doc: `
name: x
description: "x"
root: /Game/A
flow: [{undo: true}]
assertions: [{type: final_state, sequence: /Game/A}]
`,
			want: "expect is required for final_state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
