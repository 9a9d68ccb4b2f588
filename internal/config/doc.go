// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as
// the file format.
//
// Configuration is read from config.cue in the user config directory (see
// ConfigDir) or the working directory, validated against the embedded
// #Config schema (config_schema.cue), and layered over built-in defaults.
// PLUGSORT_* environment variables override file values.
package config
