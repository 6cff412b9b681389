// Package registry looks up published package versions on an npm-compatible
// registry. Lookups can be served from a small on-disk cache so repeated
// scaffolding runs do not hit the network for every package.
package registry
