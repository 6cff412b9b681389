// Package config manages user-level settings stored at ~/.monokit/config.yaml.
// Every key can be overridden with a MONOKIT_<KEY> environment variable. It
// provides the npm registry URL, fetch concurrency, default package manager
// and catalog preference consumed by the scaffolding commands.
package config
