// Package artifact manages generated audio files under a fixed output
// directory: filename generation, path resolution, existence and size
// queries, and deletion.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hawker-audio/tts-backend/internal/fsutil"
)

// Filename format constants. The format is part of the public contract:
// clients and the retention scheduler both rely on it staying stable.
const (
	filenameTimestampLayout = "20060102_150405"
	filenameSuffixLength    = 8
	filenameFormat          = "tts_%s_%s.mp3"
)

// Error format strings.
const (
	errFmtFailedToDelete = "failed to delete artifact %s: %w"
)

// Store addresses audio artifacts inside a single output directory. All
// filenames are produced by NewFilename, so request input never becomes
// part of a filesystem path.
type Store struct {
	outputDir string
}

// NewStore creates a store rooted at the given output directory, creating
// the directory if it does not exist yet.
func NewStore(outputDir string) (*Store, error) {
	err := fsutil.EnsureDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare output directory: %w", err)
	}

	return &Store{outputDir: outputDir}, nil
}

// OutputDir returns the directory all artifacts live in.
func (s *Store) OutputDir() string {
	return s.outputDir
}

// NewFilename generates a unique artifact filename of the form
// tts_<YYYYMMDD_HHMMSS>_<8-hex>.mp3. Uniqueness under concurrent requests
// comes from the random UUID-derived suffix.
func (s *Store) NewFilename() string {
	timestamp := time.Now().Format(filenameTimestampLayout)
	suffix := uuid.NewString()[:filenameSuffixLength]

	return fmt.Sprintf(filenameFormat, timestamp, suffix)
}

// PathFor returns the full path of an artifact inside the output directory.
func (s *Store) PathFor(filename string) string {
	return filepath.Join(s.outputDir, filename)
}

// Exists reports whether a file exists at the given path.
func (s *Store) Exists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}

// SizeOf returns the size of the file at the given path in bytes, or 0 if
// the file is absent or unreadable.
func (s *Store) SizeOf(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}

	return info.Size()
}

// Delete removes the file at the given path. Deleting an absent file is a
// no-op, not an error: retention tasks may race with manual cleanup.
func (s *Store) Delete(path string) error {
	err := os.Remove(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf(errFmtFailedToDelete, path, err)
	}

	return nil
}
