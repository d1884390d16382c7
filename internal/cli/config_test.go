package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/otioseq/internal/config"
)

func TestConfigInit(t *testing.T) {
	env := newTestEnv(t, "")
	target := filepath.Join(env.dir, "nested", "config.toml")

	res := env.run(t, nil, "config", "init", "--path", target)
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Wrote sample configuration to "+target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, config.SampleConfig(), string(data))

	res = env.run(t, nil, "config", "init", "--path", target)
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Contains(t, res.err.Error(), "--overwrite")

	res = env.run(t, nil, "config", "init", "--path", target, "--overwrite")
	require.NoError(t, res.err)

	// The sample validates as written.
	cmd := NewRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", target, "config", "validate"})
	require.NoError(t, cmd.Execute())
}

func TestConfigValidate(t *testing.T) {
	env := newTestEnv(t, "")

	res := env.run(t, nil, "config", "validate")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Config path: "+env.config)
	assert.Contains(t, res.stdout, "Configuration valid")

	res = env.run(t, nil, "--format", "json", "config", "validate")
	require.NoError(t, res.err)
	var view ConfigCheckView
	decodeData(t, res.stdout, &view)
	assert.True(t, view.Exists)
	assert.Equal(t, rootPath, view.Config.Import.Root)
}

func TestConfigShow(t *testing.T) {
	env := newTestEnv(t, "[logging]\nlevel = \"DEBUG\"\n")

	res := env.run(t, nil, "config", "show")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "[import]")
	assert.Contains(t, res.stdout, rootPath)
	assert.Contains(t, res.stdout, "debug", "normalized level")
}

func TestConfig_InvalidFile(t *testing.T) {
	tests := []struct {
		name  string
		extra string
	}{
		{"unknown table", "[render]\nfolder = \"x\"\n"},
		{"bad level", "[logging]\nlevel = \"loud\"\n"},
		{"unknown hook", "[[hooks]]\nstage = \"pre_import_item\"\nname = \"nope\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.extra)
			res := env.run(t, nil, "adapters")
			require.Error(t, res.err)
			assert.Equal(t, ExitCommandError, GetExitCode(res.err))
			assert.Equal(t, ErrCodeConfig, ErrorCode(res.err))
		})
	}
}
