// Package extraction contains the transport-independent types of the
// extraction use case: what a caller asks for and what it gets back.
package extraction
