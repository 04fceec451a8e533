// Package cache memoises extraction results in a bbolt file.
//
// Entries are keyed by the SHA-512 of the workbook bytes and the sorted company
// names, encoded with msgpack, and tagged with the producer version so that an
// upgraded extractor never serves results computed by an older one.
package cache
