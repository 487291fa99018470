// Package notify publishes artifact lifecycle events to NATS. Publishing
// is best-effort: consumers are observers, never participants in request
// handling.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Default subjects used when configuration leaves them unset.
const (
	DefaultAudioGeneratedSubject = "tts.audio.generated"
	DefaultAudioExpiredSubject   = "tts.audio.expired"
)

// AudioGeneratedEvent is published after a successful generation.
type AudioGeneratedEvent struct {
	Filename    string    `json:"filename"`
	SizeBytes   int64     `json:"size_bytes"`
	GeneratedAt time.Time `json:"generated_at"`
}

// AudioExpiredEvent is published after retention deletes an artifact.
type AudioExpiredEvent struct {
	Path      string    `json:"path"`
	ExpiredAt time.Time `json:"expired_at"`
}

// NatsNotifier publishes lifecycle events on a NATS connection.
type NatsNotifier struct {
	natsConnection   *nats.Conn
	generatedSubject string
	expiredSubject   string
}

// NewNatsNotifier creates a notifier on an existing connection. Empty
// subjects fall back to the defaults.
func NewNatsNotifier(
	natsConnection *nats.Conn,
	generatedSubject, expiredSubject string,
) *NatsNotifier {
	if generatedSubject == "" {
		generatedSubject = DefaultAudioGeneratedSubject
	}

	if expiredSubject == "" {
		expiredSubject = DefaultAudioExpiredSubject
	}

	return &NatsNotifier{
		natsConnection:   natsConnection,
		generatedSubject: generatedSubject,
		expiredSubject:   expiredSubject,
	}
}

// AudioGenerated publishes an AudioGeneratedEvent.
func (n *NatsNotifier) AudioGenerated(
	_ context.Context,
	filename string,
	sizeBytes int64,
) error {
	event := AudioGeneratedEvent{
		Filename:    filename,
		SizeBytes:   sizeBytes,
		GeneratedAt: time.Now().UTC(),
	}

	return n.publish(n.generatedSubject, event)
}

// AudioExpired publishes an AudioExpiredEvent.
func (n *NatsNotifier) AudioExpired(_ context.Context, path string) error {
	event := AudioExpiredEvent{
		Path:      path,
		ExpiredAt: time.Now().UTC(),
	}

	return n.publish(n.expiredSubject, event)
}

func (n *NatsNotifier) publish(subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = n.natsConnection.Publish(subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", subject, err)
	}

	return nil
}

// NoopNotifier discards all events. It is used when NATS is not
// configured, so the rest of the pipeline never has to check for nil.
type NoopNotifier struct{}

// NewNoopNotifier creates a notifier that drops everything.
func NewNoopNotifier() *NoopNotifier {
	return &NoopNotifier{}
}

// AudioGenerated implements core.Notifier.
func (n *NoopNotifier) AudioGenerated(_ context.Context, _ string, _ int64) error {
	return nil
}

// AudioExpired implements core.Notifier.
func (n *NoopNotifier) AudioExpired(_ context.Context, _ string) error {
	return nil
}
