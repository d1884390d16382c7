package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/otioseq/internal/codec"
	tu "github.com/roach88/otioseq/internal/testutil"
	"github.com/roach88/otioseq/internal/timeline"
)

const rootPath = "/Game/Levels/Main_SEQ"

// testEnv is a config file and host database in a temp dir, shared by the
// commands of one test.
type testEnv struct {
	dir    string
	config string
	ids    *tu.SequentialIDGenerator
}

func newTestEnv(t *testing.T, extra string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf("[import]\nroot = %q\n\n[host]\ndatabase = %q\n\n%s",
		rootPath, filepath.Join(dir, "host.db"), extra)
	path := filepath.Join(dir, "otioseq.toml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return &testEnv{dir: dir, config: path, ids: tu.NewSequentialIDGenerator("")}
}

type cmdResult struct {
	stdout string
	stderr string
	err    error
}

// run executes the root command with args, answering prompts from in.
func (e *testEnv) run(t *testing.T, in io.Reader, args ...string) cmdResult {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := newRootCommand(&RootOptions{IDs: e.ids})
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if in == nil {
		in = strings.NewReader("")
	}
	cmd.SetIn(in)
	cmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := cmd.Execute()
	return cmdResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// seedRoot creates the root sequence at [0,48).
func (e *testEnv) seedRoot(t *testing.T) {
	t.Helper()
	res := e.run(t, nil, "sequence", "create", rootPath, "--rate", "24", "--duration", "48")
	require.NoError(t, res.err, res.stderr)
}

// writeCut writes a two-shot cut to name in the env dir.
func (e *testEnv) writeCut(t *testing.T, name string) string {
	t.Helper()
	tl := tu.Timeline("cut", tu.Stack("tracks", "",
		tu.VideoTrack("V1",
			tu.WithMarker(tu.Clip("sh010", "/Game/Shots/sh010", 0, 24), "fix", "RED", 4, 1),
			tu.Gap(6),
			tu.Clip("sh020", "/Game/Shots/sh020", 10, 18),
		),
	))
	path := filepath.Join(e.dir, name)
	c, err := codec.Default().ForPath(path)
	require.NoError(t, err)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, c.Encode(f, tl))
	return path
}

// decodeData unmarshals the data field of a JSON success response.
func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func readTimeline(t *testing.T, path string) *timeline.Timeline {
	t.Helper()
	c, err := codec.Default().ForPath(path)
	require.NoError(t, err)
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	tl, err := c.Decode(f)
	require.NoError(t, err)
	return tl
}
