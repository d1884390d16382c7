package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/otioseq/internal/config"
	"github.com/roach88/otioseq/internal/hooks"
	"github.com/roach88/otioseq/internal/host"
	"github.com/roach88/otioseq/internal/pipeline"
)

// commandEnv is what a command needs after the global flags are applied:
// the loaded configuration, the open host and a pipeline over both.
type commandEnv struct {
	cfg       *config.Config
	host      *host.Host
	pipeline  *pipeline.Pipeline
	formatter *OutputFormatter
}

// loadConfig loads the configuration and installs logging.
func loadConfig(opts *RootOptions, cmd *cobra.Command) (*config.Config, error) {
	cfg, path, exists, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err).WithErrCode(ErrCodeConfig)
	}
	if opts.Database != "" {
		abs, err := filepath.Abs(opts.Database)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --db path", err)
		}
		cfg.Host.Database = abs
	}
	setupLogging(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format, opts.Verbose)
	if exists {
		newFormatter(opts, cmd).VerboseLog("config: %s", path)
	}
	return cfg, nil
}

// openEnv loads the configuration, opens the host and registers hooks.
// Callers must call close.
func openEnv(opts *RootOptions, cmd *cobra.Command) (*commandEnv, error) {
	cfg, err := loadConfig(opts, cmd)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Host.Database), 0o755); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create host directory", err).WithErrCode(ErrCodeHost)
	}
	var hostOpts []host.Option
	if opts.IDs != nil {
		hostOpts = append(hostOpts, host.WithIDGenerator(opts.IDs))
	}
	h, err := host.Open(cfg.Host.Database, hostOpts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open host database", err).WithErrCode(ErrCodeHost)
	}

	reg := hooks.NewRegistry()
	if err := cfg.RegisterHooks(reg); err != nil {
		h.Close()
		return nil, WrapExitError(ExitCommandError, "invalid hook configuration", err).WithErrCode(ErrCodeConfig)
	}

	return &commandEnv{
		cfg:       cfg,
		host:      h,
		pipeline:  pipeline.New(h, cfg, pipeline.WithHooks(reg)),
		formatter: newFormatter(opts, cmd),
	}, nil
}

func (e *commandEnv) close() {
	if err := e.host.Close(); err != nil {
		e.formatter.VerboseLog("close host: %v", err)
	}
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// rootFlag returns the --root value or the configured import root.
func (e *commandEnv) rootFlag(root string) (string, error) {
	if root != "" {
		return root, nil
	}
	if e.cfg.Import.Root != "" {
		return e.cfg.Import.Root, nil
	}
	return "", fmt.Errorf("no root sequence: pass --root or set import.root")
}
