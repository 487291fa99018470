// Package artifact_test tests the filesystem artifact store.
package artifact_test

import (
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawker-audio/tts-backend/internal/artifact"
)

// filenamePattern is the wire-stable artifact naming convention.
var filenamePattern = regexp.MustCompile(`^tts_\d{8}_\d{6}_[0-9a-f]{8}\.mp3$`)

func newTestStore(t *testing.T) *artifact.Store {
	t.Helper()

	store, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)

	return store
}

func TestNewStoreCreatesOutputDirectory(t *testing.T) {
	t.Parallel()

	outputDir := filepath.Join(t.TempDir(), "output")

	store, err := artifact.NewStore(outputDir)
	require.NoError(t, err)
	require.Equal(t, outputDir, store.OutputDir())

	info, statErr := os.Stat(outputDir)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
}

func TestNewFilenameMatchesNamingConvention(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	filename := store.NewFilename()
	assert.Regexp(t, filenamePattern, filename)
}

func TestNewFilenameUniqueUnderConcurrency(t *testing.T) {
	t.Parallel()

	const generations = 64

	store := newTestStore(t)

	var (
		waitGroup sync.WaitGroup
		mutex     sync.Mutex
	)

	seen := make(map[string]struct{}, generations)

	for range generations {
		waitGroup.Add(1)

		go func() {
			defer waitGroup.Done()

			filename := store.NewFilename()

			mutex.Lock()
			seen[filename] = struct{}{}
			mutex.Unlock()
		}()
	}

	waitGroup.Wait()

	assert.Len(t, seen, generations)
}

func TestPathForJoinsOutputDirectory(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	path := store.PathFor("tts_20240101_120000_deadbeef.mp3")
	assert.Equal(
		t,
		filepath.Join(store.OutputDir(), "tts_20240101_120000_deadbeef.mp3"),
		path,
	)
}

func TestExistsAndSizeOf(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	path := store.PathFor(store.NewFilename())

	assert.False(t, store.Exists(path))
	assert.Zero(t, store.SizeOf(path))

	err := os.WriteFile(path, []byte("audio-bytes"), 0o600)
	require.NoError(t, err)

	assert.True(t, store.Exists(path))
	assert.Equal(t, int64(len("audio-bytes")), store.SizeOf(path))
}

func TestDeleteRemovesFile(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	path := store.PathFor(store.NewFilename())

	err := os.WriteFile(path, []byte("audio-bytes"), 0o600)
	require.NoError(t, err)

	require.NoError(t, store.Delete(path))
	assert.False(t, store.Exists(path))
}

func TestDeleteAbsentFileIsNoOp(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	err := store.Delete(store.PathFor("tts_20240101_120000_deadbeef.mp3"))
	assert.NoError(t, err)
}
