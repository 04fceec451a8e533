// Package config defines the YAML settings shared by the extractor binaries
// and provides helpers to load, validate and save them.
//
// Config groups the Python package descriptor, the extension build settings,
// extraction defaults and server listeners.
package config
