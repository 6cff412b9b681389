// Package pkgjson edits package.json files without disturbing them: key
// order is preserved, values that are not touched round-trip byte for byte,
// and merges only ever add missing keys.
package pkgjson
