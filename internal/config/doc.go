// Package config loads, validates, and defaults picframe configuration.
//
// Configuration is TOML and is looked up at /etc/picframe/config.toml and
// then ~/.config/picframe/config.toml. A missing or malformed file is never
// fatal: the loader falls back to built-in defaults so the appliance always
// comes up with a working supervisor.
package config
