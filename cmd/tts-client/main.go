// main package for the tts-client command-line tool. It drives a running
// tts-backend instance: submits text for generation or probes its health.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Flag names.
const (
	flagText     = "text"
	flagVoice    = "voice"
	flagInterval = "interval"
	flagServer   = "server"
	flagToken    = "token"
	flagHealth   = "health"
)

// Flag descriptions.
const (
	flagTextDesc     = "Text to convert to speech"
	flagVoiceDesc    = "Voice identifier (alias or provider-native)"
	flagIntervalDesc = "Playback repeat interval in seconds (0-15)"
	flagServerDesc   = "Base URL of the tts-backend service"
	flagTokenDesc    = "Bearer token for protected deployments"
	flagHealthDesc   = "Check backend health and exit"
)

// Defaults.
const (
	defaultServer  = "http://127.0.0.1:8000"
	defaultVoice   = "zh-CN-XiaoxiaoNeural"
	requestTimeout = 90 * time.Second
)

// Error and output messages.
const (
	errTextRequired       = "--text must be provided"
	errFmtRequestFailed   = "request failed: %w"
	errFmtUnexpectedState = "backend returned %s: %s"
	msgBackendHealthy     = "backend is healthy"
	outFmtGenerated       = "Generated %s (%d bytes): %s%s\n"
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	text     string
	voice    string
	interval int
	server   string
	token    string
	health   bool
}

// generateResponse mirrors the backend's generation payload.
type generateResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Message  string `json:"message"`
}

// errorResponse mirrors the backend's failure payload.
type errorResponse struct {
	Detail string `json:"detail"`
}

func main() {
	err := run()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	flags := parseFlags()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if flags.health {
		return handleHealthCheck(ctx, flags.server)
	}

	if flags.text == "" {
		flag.Usage()

		return errors.New(errTextRequired)
	}

	return handleGenerate(ctx, flags)
}

// parseFlags defines and parses command-line flags, returning them in a
// struct.
func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.text, flagText, "", flagTextDesc)
	flag.StringVar(&flags.voice, flagVoice, defaultVoice, flagVoiceDesc)
	flag.IntVar(&flags.interval, flagInterval, 0, flagIntervalDesc)
	flag.StringVar(&flags.server, flagServer, defaultServer, flagServerDesc)
	flag.StringVar(&flags.token, flagToken, "", flagTokenDesc)
	flag.BoolVar(&flags.health, flagHealth, false, flagHealthDesc)
	flag.Parse()

	return flags
}

// handleHealthCheck probes the backend health endpoint.
func handleHealthCheck(ctx context.Context, server string) error {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		server+"/health",
		http.NoBody,
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf(errFmtRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeFailure(resp)
	}

	fmt.Println(msgBackendHealthy)

	return nil
}

// handleGenerate submits one generation request and prints the result.
func handleGenerate(ctx context.Context, flags appFlags) error {
	payload := map[string]any{
		"text":     flags.text,
		"voice":    flags.voice,
		"interval": flags.interval,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		flags.server+"/api/generate",
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if flags.token != "" {
		req.Header.Set("Authorization", "Bearer "+flags.token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf(errFmtRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeFailure(resp)
	}

	var result generateResponse

	decodeErr := json.NewDecoder(resp.Body).Decode(&result)
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	fmt.Printf(
		outFmtGenerated,
		result.Filename,
		result.Size,
		flags.server,
		result.URL,
	)

	return nil
}

// decodeFailure turns a non-200 response into an error carrying the
// backend's detail message when one is present.
func decodeFailure(resp *http.Response) error {
	var failure errorResponse

	err := json.NewDecoder(resp.Body).Decode(&failure)
	if err == nil && failure.Detail != "" {
		return fmt.Errorf(errFmtUnexpectedState, resp.Status, failure.Detail)
	}

	body, _ := io.ReadAll(resp.Body)

	return fmt.Errorf(errFmtUnexpectedState, resp.Status, string(body))
}
