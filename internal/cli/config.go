package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/roach88/otioseq/internal/config"
)

// ConfigInitOptions holds flags for the config init command.
type ConfigInitOptions struct {
	*RootOptions
	Path      string
	Overwrite bool
}

// ConfigCheckView is the JSON form of config validate.
type ConfigCheckView struct {
	Path   string         `json:"path"`
	Exists bool           `json:"exists"`
	Config *config.Config `json:"config"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	cmd.AddCommand(newConfigInitCommand(rootOpts))
	cmd.AddCommand(newConfigValidateCommand(rootOpts))
	cmd.AddCommand(newConfigShowCommand(rootOpts))

	return cmd
}

func newConfigInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfigInitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "init",
		Short:         "Create a sample configuration file",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Path, "path", "p", "", "destination for the configuration file")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "overwrite an existing configuration file")

	return cmd
}

func runConfigInit(opts *ConfigInitOptions, cmd *cobra.Command) error {
	target := strings.TrimSpace(opts.Path)
	if target == "" {
		defaultPath, err := config.DefaultConfigPath()
		if err != nil {
			return WrapExitError(ExitFailure, "failed to determine default config path", err)
		}
		target = defaultPath
	} else {
		abs, err := filepath.Abs(target)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --path", err)
		}
		target = abs
	}

	if !opts.Overwrite {
		if _, err := os.Stat(target); err == nil {
			return NewExitError(ExitCommandError,
				fmt.Sprintf("config file already exists at %s (use --overwrite to replace it)", target))
		} else if !errors.Is(err, os.ErrNotExist) {
			return WrapExitError(ExitFailure, "failed to check config path", err)
		}
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("failed to create config directory %q", dir), err)
	}
	if err := os.WriteFile(target, []byte(config.SampleConfig()), 0o644); err != nil {
		return WrapExitError(ExitFailure, "failed to write sample config", err).WithErrCode(ErrCodeWriteFailed)
	}

	f := newFormatter(opts.RootOptions, cmd)
	if f.IsJSON() {
		return f.Success(map[string]string{"path": target})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
	return nil
}

func newConfigValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "validate",
		Short:         "Validate the configuration file",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(rootOpts.Config)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err).WithErrCode(ErrCodeConfig)
			}

			f := newFormatter(rootOpts, cmd)
			if f.IsJSON() {
				return f.Success(ConfigCheckView{Path: path, Exists: exists, Config: cfg})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Print the effective configuration",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts, cmd)
			if err != nil {
				return err
			}

			f := newFormatter(rootOpts, cmd)
			if f.IsJSON() {
				return f.Success(cfg)
			}
			data, err := toml.Marshal(cfg)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to render configuration", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
