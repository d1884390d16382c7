package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/otioseq/internal/codec"
	"github.com/roach88/otioseq/internal/hooks"
	"github.com/roach88/otioseq/internal/sequence"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAdapters(); err != nil {
		return err
	}
	if err := c.validateHooks(); err != nil {
		return err
	}
	if err := c.validateImport(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAdapters() error {
	codecs := codec.Default()
	if _, err := codecs.Lookup(c.Adapters.ExportSuffix); err != nil {
		return fmt.Errorf("adapters.export_suffix: %w", err)
	}
	for _, s := range c.Adapters.ImportSuffixes {
		if _, err := codecs.Lookup(s); err != nil {
			return fmt.Errorf("adapters.import_suffixes: %w", err)
		}
	}
	return nil
}

func (c *Config) validateHooks() error {
	names := hooks.BuiltinNames()
	for i, h := range c.Hooks {
		if !hooks.Stage(h.Stage).Valid() {
			return fmt.Errorf("hooks[%d].stage: unknown stage %q", i, h.Stage)
		}
		if !slices.Contains(names, h.Name) {
			return fmt.Errorf("hooks[%d].name: unknown hook %q", i, h.Name)
		}
	}
	return nil
}

func (c *Config) validateImport() error {
	if c.Import.Root == "" {
		return nil
	}
	if err := sequence.ValidatePath(c.Import.Root); err != nil {
		return fmt.Errorf("import.root: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return errors.New("logging.format must be text or json")
	}
	return nil
}
