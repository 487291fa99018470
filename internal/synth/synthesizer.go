// Package synth implements the synthesis client: it drives one call to the
// external speech provider and owns the resulting artifact write.
package synth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/logger"

	"github.com/hawker-audio/tts-backend/internal/fsutil"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 60 * time.Second

// suspiciousSizeBytes is the threshold below which a generated file is
// logged as suspicious. Undersized output is a soft warning, never a
// failure: the artifact is still returned to the caller.
const suspiciousSizeBytes = 1000

// File permissions for written artifacts.
const filePermissions = 0o600

// Log formats.
const (
	logFmtRemovedStaleFile  = "Removed stale file before synthesis: %s"
	logFmtSynthesisStarting = "Starting synthesis, text length: %d, voice: %s"
	logFmtSynthesisDone     = "Synthesis complete: %s (%s)"
	logFmtSuspiciousSize    = "Generated file is suspiciously small: %s (%d bytes)"
)

// Static errors.
var (
	// ErrTimeout indicates the provider call exceeded the synthesis timeout.
	ErrTimeout = errors.New("synthesis timed out")
	// ErrOutputMissing indicates the provider call returned without an
	// artifact materializing on disk.
	ErrOutputMissing = errors.New("synthesis produced no output file")
)

// SpeechProvider is the single provider call the client depends on.
type SpeechProvider interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Client performs one synthesis call per invocation, writing the result to
// a destination path. It enforces the synthesis timeout and verifies the
// produced artifact; it never retries.
type Client struct {
	provider SpeechProvider
	log      *logger.Logger
	timeout  time.Duration
}

// NewClient creates a synthesis client. A non-positive timeout falls back
// to DefaultTimeout.
func NewClient(speechProvider SpeechProvider, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		provider: speechProvider,
		log:      log,
		timeout:  timeout,
	}
}

// Synthesize converts text into an audio file at destinationPath using the
// given provider voice. Steps: ensure the parent directory exists, remove
// any stale file at the destination, call the provider under the timeout,
// write the artifact, verify it exists, and flag undersized output.
//
// Provider errors are propagated unchanged apart from timeout, which is
// mapped to ErrTimeout. Retries, if any, belong to the caller; this layer
// performs none.
func (c *Client) Synthesize(ctx context.Context, text, voice, destinationPath string) error {
	err := c.prepareDestination(destinationPath)
	if err != nil {
		return err
	}

	c.log.Info(logFmtSynthesisStarting, len(text), voice)

	audioData, err := c.callProvider(ctx, text, voice)
	if err != nil {
		return err
	}

	writeErr := os.WriteFile(destinationPath, audioData, filePermissions)
	if writeErr != nil {
		return fmt.Errorf("failed to write audio file: %w", writeErr)
	}

	return c.verifyOutput(destinationPath)
}

// prepareDestination ensures the parent directory exists and removes any
// file already present at the destination. Removal keeps the write
// idempotent in the face of filename reuse.
func (c *Client) prepareDestination(destinationPath string) error {
	dirErr := fsutil.EnsureDir(filepath.Dir(destinationPath))
	if dirErr != nil {
		return dirErr
	}

	_, statErr := os.Stat(destinationPath)
	if statErr == nil {
		removeErr := os.Remove(destinationPath)
		if removeErr != nil {
			return fmt.Errorf("failed to remove stale file: %w", removeErr)
		}

		c.log.Info(logFmtRemovedStaleFile, destinationPath)
	}

	return nil
}

// callProvider invokes the provider under the synthesis timeout.
func (c *Client) callProvider(ctx context.Context, text, voice string) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	audioData, err := c.provider.Synthesize(callCtx, text, voice)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %w", ErrTimeout, c.timeout, err)
		}

		return nil, fmt.Errorf("provider synthesis failed: %w", err)
	}

	return audioData, nil
}

// verifyOutput confirms the artifact exists and logs undersized output.
func (c *Client) verifyOutput(destinationPath string) error {
	info, statErr := os.Stat(destinationPath)
	if statErr != nil {
		return fmt.Errorf("%w: %s", ErrOutputMissing, destinationPath)
	}

	if info.Size() < suspiciousSizeBytes {
		c.log.Warn(logFmtSuspiciousSize, destinationPath, info.Size())
	}

	c.log.Info(
		logFmtSynthesisDone,
		destinationPath,
		fsutil.FormatFileSize(info.Size()),
	)

	return nil
}
