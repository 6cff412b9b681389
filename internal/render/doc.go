// Package render materializes template trees onto a billy filesystem.
//
// Templates are read from any fs.FS (the embedded template sets, or a
// directory on disk) and written under an output directory with the
// template suffix stripped. Each file is rendered completely in memory
// before anything is written, and a tree is only written once every file in
// it rendered successfully.
package render
