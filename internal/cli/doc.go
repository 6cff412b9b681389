// Package cli defines the Cobra command tree for the monokit CLI. Each file
// registers one top-level command with the root command. Commands parse
// flags, ask for whatever the flags left open and hand off to
// internal/scaffold and internal/resolve for the actual work.
package cli
