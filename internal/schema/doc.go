// Package schema validates pnpm-workspace.yaml and package.json documents
// against embedded JSON Schemas before monokit edits them. Issues are
// reported per instance location with English messages.
package schema
