// Package builder implements form-extractor-packager build: it resolves the release
// environment, compiles the Go extraction package into a CPython extension with gopy
// and writes the release manifest next to the package.
package builder
