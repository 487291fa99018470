// Package generate implements the request-scoped audio generation
// pipeline: validation, voice resolution, synthesis, artifact
// verification, and retention scheduling.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/book-expert/logger"

	"github.com/hawker-audio/tts-backend/internal/artifact"
	"github.com/hawker-audio/tts-backend/internal/core"
	"github.com/hawker-audio/tts-backend/internal/voice"
)

// Request validation bounds.
const (
	MaxTextRunes    = 500
	MinIntervalSecs = 0
	MaxIntervalSecs = 15
)

// Success message returned with every generated artifact.
const messageGenerated = "audio file generated successfully"

// URL prefix artifacts are published under.
const outputURLPrefix = "/output/"

// Log formats.
const (
	logFmtRequestReceived  = "Generation request: text length %d, voice %s, interval %ds"
	logFmtOutputPath       = "Output path: %s"
	logFmtGenerated        = "Generated %s (%d bytes), retention in %s"
	logFmtNotifyFailed     = "Failed to publish generation event for %s: %v"
	logFmtSynthesisFailure = "Synthesis failed for %s: %v"
)

// Validation errors, raised before any side effect. An invalid request
// produces zero filesystem writes.
var (
	// ErrTextEmpty indicates blank or whitespace-only input text.
	ErrTextEmpty = errors.New("text cannot be empty")
	// ErrIntervalOutOfRange indicates an interval outside [0, 15] seconds.
	ErrIntervalOutOfRange = errors.New("interval must be between 0 and 15 seconds")
	// ErrTextTooLong indicates input text over 500 characters.
	ErrTextTooLong = errors.New("text cannot exceed 500 characters")
)

// ErrOutputVerification indicates the post-synthesis existence re-check
// failed even though the synthesis client reported success.
var ErrOutputVerification = errors.New("audio file generation failed")

// Request is one audio generation request. BackgroundMusicID is accepted
// for wire compatibility but unused: this service performs exactly one
// synthesis call per request and no mixing.
type Request struct {
	Text              string
	VoiceID           string
	BackgroundMusicID string
	IntervalSeconds   int
}

// Result is the payload returned for a successful generation.
type Result struct {
	URL       string
	Filename  string
	SizeBytes int64
	Message   string
}

// RetentionScheduler enqueues deferred deletion of artifact paths.
type RetentionScheduler interface {
	ScheduleDeletion(paths []string, delay time.Duration)
}

// Orchestrator drives a validated request through voice resolution,
// synthesis, artifact verification and retention scheduling.
type Orchestrator struct {
	resolver    *voice.Resolver
	synthesizer core.Synthesizer
	store       *artifact.Store
	scheduler   RetentionScheduler
	notifier    core.Notifier
	log         *logger.Logger
	retention   time.Duration
}

// NewOrchestrator creates an orchestrator with the given collaborators and
// retention window.
func NewOrchestrator(
	resolver *voice.Resolver,
	synthesizer core.Synthesizer,
	store *artifact.Store,
	scheduler RetentionScheduler,
	notifier core.Notifier,
	retention time.Duration,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		resolver:    resolver,
		synthesizer: synthesizer,
		store:       store,
		scheduler:   scheduler,
		notifier:    notifier,
		log:         log,
		retention:   retention,
	}
}

// Generate validates the request and runs the synthesis pipeline. On
// success the artifact exists on disk, its deletion is scheduled after
// the retention window, and the returned URL is immediately servable.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Result, error) {
	err := ValidateRequest(req)
	if err != nil {
		return Result{}, err
	}

	o.log.Info(
		logFmtRequestReceived,
		utf8.RuneCountInString(req.Text),
		req.VoiceID,
		req.IntervalSeconds,
	)

	filename := o.store.NewFilename()
	outputPath := o.store.PathFor(filename)

	o.log.Info(logFmtOutputPath, outputPath)

	providerVoice := o.resolver.Resolve(req.VoiceID)

	synthErr := o.synthesizer.Synthesize(ctx, req.Text, providerVoice, outputPath)
	if synthErr != nil {
		o.log.Error(logFmtSynthesisFailure, outputPath, synthErr)

		return Result{}, fmt.Errorf("synthesis failed: %w", synthErr)
	}

	// The URL must never point at a file that is not on disk.
	if !o.store.Exists(outputPath) {
		return Result{}, ErrOutputVerification
	}

	sizeBytes := o.store.SizeOf(outputPath)

	o.scheduler.ScheduleDeletion([]string{outputPath}, o.retention)
	o.log.Info(logFmtGenerated, filename, sizeBytes, o.retention)

	notifyErr := o.notifier.AudioGenerated(ctx, filename, sizeBytes)
	if notifyErr != nil {
		o.log.Warn(logFmtNotifyFailed, filename, notifyErr)
	}

	return Result{
		URL:       outputURLPrefix + filename,
		Filename:  filename,
		SizeBytes: sizeBytes,
		Message:   messageGenerated,
	}, nil
}

// ValidateRequest checks a request in fixed order: blank text, interval
// range, then text length. The first failure wins.
func ValidateRequest(req Request) error {
	if isBlank(req.Text) {
		return ErrTextEmpty
	}

	if req.IntervalSeconds < MinIntervalSecs || req.IntervalSeconds > MaxIntervalSecs {
		return ErrIntervalOutOfRange
	}

	if utf8.RuneCountInString(req.Text) > MaxTextRunes {
		return ErrTextTooLong
	}

	return nil
}

// IsInvalidRequest reports whether an error is a request validation
// failure, i.e. a client error rather than a synthesis failure.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrTextEmpty) ||
		errors.Is(err, ErrIntervalOutOfRange) ||
		errors.Is(err, ErrTextTooLong)
}

// isBlank reports whether the text is empty after trimming whitespace.
func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
