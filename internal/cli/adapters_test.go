package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tu "github.com/roach88/otioseq/internal/testutil"
)

func TestAdapters_JSON(t *testing.T) {
	env := newTestEnv(t, "")

	res := env.run(t, nil, "--format", "json", "adapters")
	require.NoError(t, res.err, res.stderr)
	tu.AssertGolden(t, "adapters.json", []byte(res.stdout))
}

func TestAdapters_RestrictedImport(t *testing.T) {
	env := newTestEnv(t, "[adapters]\nimport_suffixes = [\".OTIO\"]\nexport_suffix = \"yaml\"\n")

	res := env.run(t, nil, "--format", "json", "adapters")
	require.NoError(t, res.err, res.stderr)
	var view AdaptersView
	decodeData(t, res.stdout, &view)
	require.Len(t, view.Adapters, 2)
	assert.Equal(t, []string{"otio"}, view.Adapters[0].Import)
	assert.False(t, view.Adapters[0].Export)
	assert.Empty(t, view.Adapters[1].Import)
	assert.True(t, view.Adapters[1].Export)
}

func TestAdapters_Disabled(t *testing.T) {
	env := newTestEnv(t, "[adapters]\nregister = false\n")

	res := env.run(t, nil, "adapters")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "File adapters are disabled")

	res = env.run(t, nil, "export", "cut.json")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "disabled")
}
