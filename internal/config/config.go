package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/roach88/otioseq/internal/codec"
	"github.com/roach88/otioseq/internal/hooks"
)

//go:embed sample_config.toml
var sampleConfig string

// Adapters controls which timeline codecs the pipeline may use.
type Adapters struct {
	// Register disables file import and export entirely when false.
	Register bool `toml:"register"`

	// ImportSuffixes restricts import to these suffixes; empty allows all.
	ImportSuffixes []string `toml:"import_suffixes"`

	ExportSuffix string `toml:"export_suffix"`
}

// Hook registers one built-in hook.
type Hook struct {
	Stage string         `toml:"stage"`
	Name  string         `toml:"name"`
	Args  map[string]any `toml:"args"`
}

// Import holds defaults for the import and export commands.
type Import struct {
	Root  string `toml:"root"`
	Label string `toml:"label"`
}

// Host locates the host database.
type Host struct {
	Database string `toml:"database"`
}

// Logging configures the slog handler.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the complete otioseq configuration.
type Config struct {
	Adapters Adapters `toml:"adapters"`
	Hooks    []Hook   `toml:"hooks"`
	Import   Import   `toml:"import"`
	Host     Host     `toml:"host"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/otioseq/config.toml")
}

// SampleConfig returns a commented configuration file holding the defaults.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses and validates a configuration file. An empty path
// searches the default location and then ./otioseq.toml; when no file
// exists the defaults are returned. It also reports the resolved path and
// whether a file was read.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	var data []byte
	if exists {
		if data, err = os.ReadFile(resolved); err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := Parse(data, resolved)
	if err != nil {
		return nil, "", false, err
	}
	return cfg, resolved, exists, nil
}

// Parse decodes TOML data over the defaults. name labels schema errors.
func Parse(data []byte, name string) (*Config, error) {
	cfg := Default()

	if len(bytes.TrimSpace(data)) > 0 {
		if err := checkSchema(data, name); err != nil {
			return nil, err
		}
		if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RegisterHooks registers every configured hook on r, in file order.
func (c *Config) RegisterHooks(r *hooks.Registry) error {
	for i, h := range c.Hooks {
		if err := hooks.RegisterBuiltin(r, hooks.Stage(h.Stage), h.Name, h.Args); err != nil {
			return fmt.Errorf("hooks[%d]: %w", i, err)
		}
	}
	return nil
}

// ImportAllowed reports whether suffix may be imported.
func (c *Config) ImportAllowed(suffix string) bool {
	if len(c.Adapters.ImportSuffixes) == 0 {
		return true
	}
	suffix = codec.NormalizeSuffix(suffix)
	for _, s := range c.Adapters.ImportSuffixes {
		if s == suffix {
			return true
		}
	}
	return false
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("otioseq.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func expandPath(p string) (string, error) {
	if p == "" {
		return p, nil
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if p == "~" {
			p = home
		} else if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
			p = filepath.Join(home, p[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}
