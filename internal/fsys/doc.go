// Package fsys provides the filesystem handle threaded through every monokit
// operation. Production code runs against the real disk through go-billy's
// osfs; tests substitute memfs so nothing touches the disk.
package fsys
