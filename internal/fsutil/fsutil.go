// Package fsutil provides small filesystem and formatting helpers shared by
// the artifact store and the synthesis client.
package fsutil

import (
	"fmt"
	"os"
)

// Directory permission applied when creating missing directories.
const (
	DefaultDirPermissions = 0o750
)

// Data size constants.
const (
	byteUnit = 1
	kilobyte = byteUnit * 1024
	megabyte = kilobyte * 1024
	gigabyte = megabyte * 1024
)

// Size formatting constants.
const (
	formatGB    = "%.1f GB"
	formatMB    = "%.1f MB"
	formatKB    = "%.1f KB"
	formatBytes = "%d B"
)

// Error format strings.
const (
	errFmtFailedToCreateDir = "failed to create directory %s: %w"
)

// EnsureDir ensures a directory exists at the given path, creating it if it
// doesn't.
func EnsureDir(path string) error {
	_, statErr := os.Stat(path)
	if os.IsNotExist(statErr) {
		// MkdirAll is used to create parent directories as needed.
		mkdirErr := os.MkdirAll(path, DefaultDirPermissions)
		if mkdirErr != nil {
			return fmt.Errorf(
				errFmtFailedToCreateDir,
				path,
				mkdirErr,
			)
		}
	}

	return nil
}

// FormatFileSize formats a file size in a human-readable string (e.g.,
// "1.2 GB", "500.5 MB").
func FormatFileSize(bytes int64) string {
	switch {
	case bytes >= gigabyte:
		return fmt.Sprintf(formatGB, float64(bytes)/gigabyte)
	case bytes >= megabyte:
		return fmt.Sprintf(formatMB, float64(bytes)/megabyte)
	case bytes >= kilobyte:
		return fmt.Sprintf(formatKB, float64(bytes)/kilobyte)
	default:
		return fmt.Sprintf(formatBytes, bytes)
	}
}
