package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/otioseq/internal/host"
)

func TestUndo_RevertsImport(t *testing.T) {
	env := newTestEnv(t, "")
	env.seedRoot(t)
	require.NoError(t, env.run(t, nil, "import", env.writeCut(t, "cut.json"), "--yes").err)

	res := env.run(t, nil, "undo")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "Undid \"OTIO Import\" (txn-0002): 3 sequences restored.\n", res.stdout)

	res = env.run(t, nil, "sequence", "list")
	require.NoError(t, res.err)
	assert.Equal(t, rootPath+"\n", res.stdout)

	res = env.run(t, nil, "--format", "json", "history")
	require.NoError(t, res.err)
	var txns []host.TxnInfo
	decodeData(t, res.stdout, &txns)
	require.Len(t, txns, 2)
	assert.Equal(t, "txn-0002", txns[0].ID)
	assert.True(t, txns[0].Undone)
	assert.Equal(t, "Create Main_SEQ", txns[1].Label)
	assert.False(t, txns[1].Undone)

	res = env.run(t, nil, "history")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "undone")
	assert.Contains(t, res.stdout, "Create Main_SEQ")
}

func TestUndo_NothingToUndo(t *testing.T) {
	env := newTestEnv(t, "")

	res := env.run(t, nil, "undo")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, host.ErrNothingToUndo)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))

	res = env.run(t, nil, "history")
	require.NoError(t, res.err)
	assert.Equal(t, "No transactions.\n", res.stdout)
}
