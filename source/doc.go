// Package source contains the byte sources the framer reads from.
//
// The adapters are in the subpackages: file for files and standard input,
// live for ring buffer channels. The package itself is a façade that
// reexports certain symbols from its subpackages.
package source
