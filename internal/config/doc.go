// Package config loads hedgematch configuration.
//
// Values are resolved in three layers, later layers winning:
//   - a YAML file (optional), with ${VAR} expansion
//   - HEDGEMATCH_* environment variables
//   - command-line flags, applied by cmd/hedgematch
//
// Defaults are filled in after the file and environment are read, so an
// unset field never overrides an explicit one.
package config
