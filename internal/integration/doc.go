// Package integration holds end-to-end tests that run the builder against
// fake toolchain executables and the server on real sockets.
package integration
