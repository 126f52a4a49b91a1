// Package config defines the settings shared by the alarm binaries and
// provides helpers to load, validate and save them as YAML or TOML.
//
// The file format is picked from the extension: ".toml" files are decoded
// with BurntSushi/toml, everything else as YAML.
package config
