// Package config loads otioseq's TOML configuration.
//
// Load starts from Default, overlays the file, then normalizes and validates
// the result. The raw file is also checked against an embedded CUE schema so
// misspelled keys and wrong types are reported with their position instead
// of being silently ignored.
//
// Configuration sections:
//   - adapters: codec registration toggle, import allow-list, export codec
//   - hooks: built-in hooks to register, each with a stage and arguments
//   - import: default root sequence and transaction label
//   - host: location of the host database
//   - logging: log level and handler format
package config
