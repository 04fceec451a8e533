// Package version exposes build metadata for the extractor binaries.
//
// Version, Commit and BuildTime are injected with -ldflags "-X"; the defaults
// describe a local development build.
package version
