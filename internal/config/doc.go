// Package config handles configuration loading, parsing, and validation
// from defaults, an optional YAML file and DOAFTER_ environment variables.
// Components receive the typed sections they need as constructor arguments.
package config
