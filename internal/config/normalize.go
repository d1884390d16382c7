package config

import (
	"fmt"
	"strings"

	"github.com/roach88/otioseq/internal/codec"
	"github.com/roach88/otioseq/internal/sequence"
)

func (c *Config) normalize() error {
	c.normalizeAdapters()
	c.normalizeImport()
	if err := c.normalizeHost(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeAdapters() {
	suffixes := make([]string, 0, len(c.Adapters.ImportSuffixes))
	seen := make(map[string]bool)
	for _, s := range c.Adapters.ImportSuffixes {
		s = codec.NormalizeSuffix(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		suffixes = append(suffixes, s)
	}
	c.Adapters.ImportSuffixes = suffixes

	c.Adapters.ExportSuffix = codec.NormalizeSuffix(c.Adapters.ExportSuffix)
	if c.Adapters.ExportSuffix == "" {
		c.Adapters.ExportSuffix = defaultExportSuffix
	}
}

func (c *Config) normalizeImport() {
	if root := strings.TrimSpace(c.Import.Root); root != "" {
		c.Import.Root = sequence.NormalizePath(root)
	} else {
		c.Import.Root = ""
	}
	if strings.TrimSpace(c.Import.Label) == "" {
		c.Import.Label = defaultLabel
	}
}

func (c *Config) normalizeHost() error {
	if strings.TrimSpace(c.Host.Database) == "" {
		c.Host.Database = defaultDatabase
	}
	var err error
	if c.Host.Database, err = expandPath(c.Host.Database); err != nil {
		return fmt.Errorf("host.database: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
