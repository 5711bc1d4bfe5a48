// Package config provides configuration management for tagscan.
//
// Configuration is built once at startup from defaults, an optional YAML
// file (.tagscan in the working or home directory), and CLI flags, then
// passed to components by value injection. There is no global config state.
package config
