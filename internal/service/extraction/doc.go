// Package extraction implements the extraction use case shared by the
// form-extractor CLI and the form-extractor-server transports: request
// validation, the result cache and the extractor itself.
package extraction
