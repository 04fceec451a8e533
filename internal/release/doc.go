// Package release resolves everything the extension build needs before any
// command runs: the release version, the build environment and the package
// descriptor handed to Python packaging.
package release
