// Package toolchain runs the external tools the extension build depends on
// (the Go toolchain, gopy, pip) and turns their failures into typed errors.
//
// Commands never inherit the process environment implicitly: callers pass the
// exact environment, mirroring how the release pipeline composes it.
package toolchain
