// Package retention_test tests the deferred deletion scheduler.
package retention_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawker-audio/tts-backend/internal/retention"
)

var errMockDelete = errors.New("mock delete error")

// mockDeleter records deleted paths and can fail selectively.
type mockDeleter struct {
	mutex   sync.Mutex
	deleted []string
	failFor map[string]struct{}
}

func (m *mockDeleter) Delete(path string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, shouldFail := m.failFor[path]; shouldFail {
		return errMockDelete
	}

	m.deleted = append(m.deleted, path)

	return nil
}

func (m *mockDeleter) deletedPaths() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return append([]string(nil), m.deleted...)
}

// mockNotifier counts expiry events.
type mockNotifier struct {
	mutex   sync.Mutex
	expired []string
}

func (m *mockNotifier) AudioGenerated(_ context.Context, _ string, _ int64) error {
	return nil
}

func (m *mockNotifier) AudioExpired(_ context.Context, path string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.expired = append(m.expired, path)

	return nil
}

func (m *mockNotifier) expiredPaths() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return append([]string(nil), m.expired...)
}

func createTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "retention-test.log")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = log.Close()
	})

	return log
}

func TestScheduleDeletionZeroDelay(t *testing.T) {
	t.Parallel()

	deleter := &mockDeleter{}
	notifier := &mockNotifier{}
	scheduler := retention.NewScheduler(
		context.Background(),
		deleter,
		notifier,
		createTestLogger(t),
	)

	scheduler.ScheduleDeletion([]string{"output/a.mp3"}, 0)

	assert.Eventually(t, func() bool {
		return len(deleter.deletedPaths()) == 1
	}, time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return len(notifier.expiredPaths()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestScheduleDeletionDoesNotBlockCaller(t *testing.T) {
	t.Parallel()

	deleter := &mockDeleter{}
	scheduler := retention.NewScheduler(
		context.Background(),
		deleter,
		&mockNotifier{},
		createTestLogger(t),
	)

	start := time.Now()
	scheduler.ScheduleDeletion([]string{"output/a.mp3"}, time.Hour)

	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Empty(t, deleter.deletedPaths())
}

func TestScheduleDeletionFailureDoesNotAbortSiblings(t *testing.T) {
	t.Parallel()

	deleter := &mockDeleter{
		failFor: map[string]struct{}{"output/bad.mp3": {}},
	}
	scheduler := retention.NewScheduler(
		context.Background(),
		deleter,
		&mockNotifier{},
		createTestLogger(t),
	)

	scheduler.ScheduleDeletion(
		[]string{"output/bad.mp3", "output/good.mp3"},
		0,
	)

	assert.Eventually(t, func() bool {
		deleted := deleter.deletedPaths()

		return len(deleted) == 1 && deleted[0] == "output/good.mp3"
	}, time.Second, 10*time.Millisecond)
}

func TestScheduleDeletionAbandonedOnShutdown(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	deleter := &mockDeleter{}
	scheduler := retention.NewScheduler(
		ctx,
		deleter,
		&mockNotifier{},
		createTestLogger(t),
	)

	scheduler.ScheduleDeletion([]string{"output/a.mp3"}, time.Hour)
	cancel()

	// Give the task goroutine a moment to observe cancellation.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, deleter.deletedPaths())
}
