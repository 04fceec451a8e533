// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder on stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// Stdout belongs to command output, so every entry goes to stderr.
package logger
