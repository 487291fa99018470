// Package retention schedules deferred, best-effort deletion of generated
// artifacts after a retention window.
package retention

import (
	"context"
	"time"

	"github.com/book-expert/logger"

	"github.com/hawker-audio/tts-backend/internal/core"
)

// Log formats.
const (
	logFmtScheduled     = "Scheduled deletion of %d file(s) in %s"
	logFmtDeleted       = "Deleted expired file: %s"
	logFmtDeleteFailed  = "Failed to delete expired file %s: %v"
	logFmtPublishFailed = "Failed to publish expiry event for %s: %v"
	logFmtShutdownSkip  = "Shutting down, abandoning deletion of %d file(s)"
)

// Deleter removes a file at a path. Deleting an absent file must be a
// no-op, not an error.
type Deleter interface {
	Delete(path string) error
}

// Scheduler runs fire-and-forget deletion tasks outside the request
// response path. Tasks live only in process memory: a restart loses every
// pending deletion and leaves those files on disk. A single path failing
// to delete never aborts cleanup of its siblings.
type Scheduler struct {
	store    Deleter
	notifier core.Notifier
	log      *logger.Logger

	// baseCtx lets in-flight timers exit cleanly on shutdown.
	baseCtx context.Context
}

// NewScheduler creates a scheduler. The context bounds the lifetime of
// every scheduled task: once it is cancelled, pending deletions are
// abandoned.
func NewScheduler(
	ctx context.Context,
	store Deleter,
	notifier core.Notifier,
	log *logger.Logger,
) *Scheduler {
	return &Scheduler{
		store:    store,
		notifier: notifier,
		log:      log,
		baseCtx:  ctx,
	}
}

// ScheduleDeletion enqueues deletion of the given paths after the delay.
// It returns immediately; the deletions run on their own goroutine and
// never block or delay the caller's response.
func (s *Scheduler) ScheduleDeletion(paths []string, delay time.Duration) {
	s.log.Info(logFmtScheduled, len(paths), delay)

	go s.runTask(paths, delay)
}

func (s *Scheduler) runTask(paths []string, delay time.Duration) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-s.baseCtx.Done():
		s.log.Warn(logFmtShutdownSkip, len(paths))

		return
	}

	s.deleteAll(paths)
}

// deleteAll attempts every path, logging failures instead of raising them.
func (s *Scheduler) deleteAll(paths []string) {
	for _, path := range paths {
		err := s.store.Delete(path)
		if err != nil {
			s.log.Warn(logFmtDeleteFailed, path, err)

			continue
		}

		s.log.Info(logFmtDeleted, path)

		publishErr := s.notifier.AudioExpired(s.baseCtx, path)
		if publishErr != nil {
			s.log.Warn(logFmtPublishFailed, path, publishErr)
		}
	}
}
