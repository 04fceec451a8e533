// Package server runs form-extractor-server: the gRPC FormExtractor service
// and, when configured, the HTTP API, both backed by one extraction service
// and its cache.
package server
