// Package config defines the module's configuration: timeouts, retry
// policy, fault-collector batching, and realtime channel settings. Defaults
// mirror the console's production constants; overrides come from a YAML
// file (Load) or the environment (FromEnv, CONSOLECLIENT_ prefix), in that
// order of precedence.
package config
