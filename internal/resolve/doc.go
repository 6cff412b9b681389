// Package resolve turns package selections into version-pinned dependency
// maps and keeps pnpm catalogs current.
//
// Resolution is all-or-nothing: if any lookup fails no dependency set is
// returned and no file is written. Lookups for independent packages run
// concurrently, and each unique name is fetched at most once per call.
package resolve
