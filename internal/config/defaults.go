package config

const (
	defaultExportSuffix = "json"
	defaultLabel        = "OTIO Import"
	defaultDatabase     = "~/.local/share/otioseq/host.db"
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Adapters: Adapters{
			Register:     true,
			ExportSuffix: defaultExportSuffix,
		},
		Import: Import{
			Label: defaultLabel,
		},
		Host: Host{
			Database: defaultDatabase,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
