// Package provider wraps the external text-to-speech synthesis service
// behind a small HTTP client.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// API endpoints and paths.
const (
	apiSynthesize = "/v1/synthesize"
	apiHealth     = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypeMPEG   = "audio/mpeg"
)

// Fixed prosody parameters. This service performs no prosody
// customization: every request is synthesized at neutral rate, volume
// and pitch.
const (
	neutralRate   = "+0%"
	neutralVolume = "+0%"
	neutralPitch  = "+0Hz"
)

// Error messages.
const (
	errTextCannotBeEmpty       = "text cannot be empty"
	errVoiceCannotBeEmpty      = "voice cannot be empty"
	errUnexpectedContentType   = "unexpected content type: expected audio/mpeg, got %s"
	errReceivedEmptyAudio      = "received empty audio data"
	errFmtServiceErrorWithCode = "synthesis service error (%s): %s (code: %s)"
	errFmtServiceNonOKStatus   = "synthesis service returned non-OK status: %s, body: %s"
)

// Static errors.
var (
	ErrTextEmpty  = errors.New(errTextCannotBeEmpty)
	ErrVoiceEmpty = errors.New(errVoiceCannotBeEmpty)
	ErrEmptyAudio = errors.New(errReceivedEmptyAudio)
)

// Client is an HTTP client for the standalone synthesis service. It
// encapsulates the HTTP configuration and provides methods for speech
// generation and health monitoring.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// SynthesisRequest defines the JSON payload for synthesis requests.
type SynthesisRequest struct {
	// Text contains the input text to convert to speech.
	Text string `json:"text"`

	// Voice is the provider voice identifier, already resolved from any
	// logical alias by the caller.
	Voice string `json:"voice"`

	// Rate, Volume and Pitch are prosody adjustments in the provider's
	// notation (e.g. "+0%", "-10Hz"). This backend always sends the
	// neutral values.
	Rate   string `json:"rate"`
	Volume string `json:"volume"`
	Pitch  string `json:"pitch"`
}

// ErrorResponse represents a structured error response from the synthesis
// service.
type ErrorResponse struct {
	// Detail contains a human-readable error description.
	Detail string `json:"detail"`

	// ErrorCode provides a machine-readable error classification.
	ErrorCode string `json:"error_code,omitempty"`
}

// NewClient creates and configures an HTTP client for the synthesis
// service. The baseURL should include the protocol and port (e.g.,
// "http://localhost:5500"). The timeout applies to all HTTP requests made
// by this client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Synthesize sends a synthesis request and returns the raw MP3 audio data.
// The request always carries the fixed neutral prosody parameters; callers
// only choose text and voice.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	// Validate required input at the boundary.
	if text == "" {
		return nil, ErrTextEmpty
	}

	if voice == "" {
		return nil, ErrVoiceEmpty
	}

	payload := SynthesisRequest{
		Text:   text,
		Voice:  voice,
		Rate:   neutralRate,
		Volume: neutralVolume,
		Pitch:  neutralPitch,
	}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + apiSynthesize

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		url,
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeMPEG)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to send request to synthesis service at %s: %w",
			c.baseURL,
			err,
		)
	}
	defer resp.Body.Close()

	// Handle non-success status codes with structured error parsing.
	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	contentType := resp.Header.Get(headerContentType)
	if contentType != contentTypeMPEG {
		return nil, fmt.Errorf(
			errUnexpectedContentType,
			contentType,
		)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
}

// HealthCheck verifies that the synthesis service is running and
// operational. It performs a lightweight check against the service health
// endpoint and returns an error if the service is unavailable.
func (c *Client) HealthCheck(ctx context.Context) error {
	url := c.baseURL + apiHealth

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf(
			"health check failed for service at %s: %w",
			c.baseURL,
			err,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

// parseErrorResponse attempts to decode a structured JSON error from the
// service. If structured parsing fails, it falls back to returning the raw
// response body so diagnostic information is preserved.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errorResp ErrorResponse

	err := json.NewDecoder(resp.Body).Decode(&errorResp)
	if err == nil {
		return fmt.Errorf(errFmtServiceErrorWithCode,
			resp.Status, errorResp.Detail, errorResp.ErrorCode)
	}

	// Fallback to raw response for non-JSON errors.
	body, _ := io.ReadAll(resp.Body)

	return fmt.Errorf(
		errFmtServiceNonOKStatus,
		resp.Status,
		string(body),
	)
}
