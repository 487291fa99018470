// Package provider_test tests the synthesis service HTTP client.
package provider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawker-audio/tts-backend/internal/provider"
)

const testTimeout = 5 * time.Second

// newMockProvider starts a synthesis service stub that records the decoded
// request and replies with the given handler.
func newMockProvider(
	t *testing.T,
	handler func(w http.ResponseWriter, req provider.SynthesisRequest),
) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, request *http.Request) {
			switch request.URL.Path {
			case "/v1/synthesize":
				var payload provider.SynthesisRequest

				err := json.NewDecoder(request.Body).Decode(&payload)
				if err != nil {
					t.Errorf("failed to decode request: %v", err)
					responseWriter.WriteHeader(http.StatusBadRequest)

					return
				}

				handler(responseWriter, payload)
			case "/health":
				responseWriter.WriteHeader(http.StatusOK)
			default:
				t.Errorf("unexpected request path: %s", request.URL.Path)
				responseWriter.WriteHeader(http.StatusNotFound)
			}
		},
	))
}

func TestSynthesizeSuccess(t *testing.T) {
	t.Parallel()

	var captured provider.SynthesisRequest

	server := newMockProvider(t,
		func(w http.ResponseWriter, req provider.SynthesisRequest) {
			captured = req

			w.Header().Set("Content-Type", "audio/mpeg")

			_, _ = w.Write([]byte("mp3-bytes"))
		})
	defer server.Close()

	client := provider.NewClient(server.URL, testTimeout)

	audio, err := client.Synthesize(
		context.Background(),
		"fresh vegetables, half price today",
		"zh-CN-XiaoxiaoNeural",
	)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), audio)

	// The fixed neutral prosody must always be sent.
	assert.Equal(t, "zh-CN-XiaoxiaoNeural", captured.Voice)
	assert.Equal(t, "+0%", captured.Rate)
	assert.Equal(t, "+0%", captured.Volume)
	assert.Equal(t, "+0Hz", captured.Pitch)
}

func TestSynthesizeRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	client := provider.NewClient("http://127.0.0.1:1", testTimeout)

	_, err := client.Synthesize(context.Background(), "", "voice")
	require.ErrorIs(t, err, provider.ErrTextEmpty)

	_, err = client.Synthesize(context.Background(), "text", "")
	require.ErrorIs(t, err, provider.ErrVoiceEmpty)
}

func TestSynthesizeStructuredServiceError(t *testing.T) {
	t.Parallel()

	server := newMockProvider(t,
		func(w http.ResponseWriter, _ provider.SynthesisRequest) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)

			_ = json.NewEncoder(w).Encode(provider.ErrorResponse{
				Detail:    "voice model unavailable",
				ErrorCode: "VOICE_UNAVAILABLE",
			})
		})
	defer server.Close()

	client := provider.NewClient(server.URL, testTimeout)

	_, err := client.Synthesize(context.Background(), "text", "voice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "voice model unavailable")
	assert.Contains(t, err.Error(), "VOICE_UNAVAILABLE")
}

func TestSynthesizeRejectsWrongContentType(t *testing.T) {
	t.Parallel()

	server := newMockProvider(t,
		func(w http.ResponseWriter, _ provider.SynthesisRequest) {
			w.Header().Set("Content-Type", "text/plain")

			_, _ = w.Write([]byte("not audio"))
		})
	defer server.Close()

	client := provider.NewClient(server.URL, testTimeout)

	_, err := client.Synthesize(context.Background(), "text", "voice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected content type")
}

func TestSynthesizeRejectsEmptyAudio(t *testing.T) {
	t.Parallel()

	server := newMockProvider(t,
		func(w http.ResponseWriter, _ provider.SynthesisRequest) {
			w.Header().Set("Content-Type", "audio/mpeg")
			w.WriteHeader(http.StatusOK)
		})
	defer server.Close()

	client := provider.NewClient(server.URL, testTimeout)

	_, err := client.Synthesize(context.Background(), "text", "voice")
	require.ErrorIs(t, err, provider.ErrEmptyAudio)
}

func TestSynthesizeHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})

	server := newMockProvider(t,
		func(w http.ResponseWriter, _ provider.SynthesisRequest) {
			close(started)
			time.Sleep(2 * time.Second)

			w.Header().Set("Content-Type", "audio/mpeg")

			_, _ = w.Write([]byte("mp3-bytes"))
		})
	defer server.Close()

	client := provider.NewClient(server.URL, testTimeout)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		<-started
		cancel()
	}()

	_, err := client.Synthesize(ctx, "text", "voice")
	require.ErrorIs(t, err, context.Canceled)
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	server := newMockProvider(t,
		func(w http.ResponseWriter, _ provider.SynthesisRequest) {
			w.WriteHeader(http.StatusOK)
		})
	defer server.Close()

	client := provider.NewClient(server.URL, testTimeout)

	err := client.HealthCheck(context.Background())
	assert.NoError(t, err)
}
