package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hawker-audio/tts-backend/internal/auth"
	"github.com/hawker-audio/tts-backend/internal/core"
	"github.com/hawker-audio/tts-backend/internal/generate"
)

// HTTP headers and content types.
const (
	headerContentType        = "Content-Type"
	headerContentDisposition = "Content-Disposition"
	headerAuthorization      = "Authorization"
	headerWWWAuthenticate    = "WWW-Authenticate"
	contentTypeJSON          = "application/json"
	contentTypeMPEG          = "audio/mpeg"
	bearerPrefix             = "Bearer "
	bearerChallenge          = "Bearer"
)

// User-facing messages.
const (
	msgInvalidJSONBody    = "invalid JSON body"
	msgFileNotFound       = "file not found"
	msgGenerationFailed   = "audio generation failed"
	msgMissingBearerToken = "missing or invalid authorization header"
	msgInvalidCredentials = "invalid authentication credentials"
	msgRegistered         = "registration successful"
	msgLoggedIn           = "login successful"
	msgLoggedOut          = "logout successful"
)

// timeFormat renders user timestamps on the wire.
const timeFormat = time.RFC3339

// generateRequest is the wire shape of a generation request. The bgm
// field is accepted but unused by the pipeline.
type generateRequest struct {
	Text     string `json:"text"`
	Voice    string `json:"voice"`
	BGM      string `json:"bgm"`
	Interval int    `json:"interval"`
}

// generateResponse is the wire shape of a successful generation.
type generateResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Message  string `json:"message"`
}

// errorResponse carries a human-readable failure detail.
type errorResponse struct {
	Detail string `json:"detail"`
}

// credentialsRequest is the wire shape of register and login bodies.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// userPayload is the wire shape of a user profile.
type userPayload struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	CreatedAt   string  `json:"created_at"`
	LastLoginAt *string `json:"last_login_at"`
	IsActive    bool    `json:"is_active"`
}

// tokenPayload is the wire shape of an issued access token.
type tokenPayload struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// authResponse is the wire shape of register and login responses.
type authResponse struct {
	Message string       `json:"message"`
	User    userPayload  `json:"user"`
	Token   tokenPayload `json:"token"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": serviceName,
		"version": serviceVersion,
		"docs":    serviceDocs,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleGenerate runs the generation pipeline for one request.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSONBody)

		return
	}

	// A client disconnect cancels r.Context(), but the in-flight provider
	// call must run to completion; the synthesis timeout is the only
	// cancellation point.
	pipelineCtx := context.WithoutCancel(r.Context())

	result, genErr := s.orchestrator.Generate(pipelineCtx, generate.Request{
		Text:              req.Text,
		VoiceID:           req.Voice,
		BackgroundMusicID: req.BGM,
		IntervalSeconds:   req.Interval,
	})
	if genErr != nil {
		if generate.IsInvalidRequest(genErr) {
			writeError(w, http.StatusBadRequest, genErr.Error())

			return
		}

		writeError(
			w,
			http.StatusInternalServerError,
			fmt.Sprintf("%s: %v", msgGenerationFailed, genErr),
		)

		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		URL:      result.URL,
		Filename: result.Filename,
		Size:     result.SizeBytes,
		Message:  result.Message,
	})
}

// handleOutputFile streams a generated artifact. Filenames never come from
// this service with separators in them, so anything that looks like a
// path is rejected outright.
func (s *Server) handleOutputFile(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if filename == "" || strings.ContainsAny(filename, `/\`) ||
		strings.Contains(filename, "..") {
		writeError(w, http.StatusNotFound, msgFileNotFound)

		return
	}

	path := s.store.PathFor(filename)
	if !s.store.Exists(path) {
		writeError(w, http.StatusNotFound, msgFileNotFound)

		return
	}

	w.Header().Set(headerContentType, contentTypeMPEG)
	w.Header().Set(
		headerContentDisposition,
		fmt.Sprintf("attachment; filename=%s", filename),
	)

	http.ServeFile(w, r, path)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSONBody)

		return
	}

	user, token, registerErr := s.authService.Register(
		r.Context(),
		req.Username,
		req.Password,
	)
	if registerErr != nil {
		writeAuthError(w, registerErr)

		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Message: msgRegistered,
		User:    toUserPayload(user),
		Token:   tokenPayload{AccessToken: token, TokenType: auth.TokenType},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSONBody)

		return
	}

	user, token, loginErr := s.authService.Login(
		r.Context(),
		req.Username,
		req.Password,
	)
	if loginErr != nil {
		writeAuthError(w, loginErr)

		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Message: msgLoggedIn,
		User:    toUserPayload(user),
		Token:   tokenPayload{AccessToken: token, TokenType: auth.TokenType},
	})
}

// handleMe returns the profile behind the request's bearer token.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)

	user, err := s.authService.CurrentUser(r.Context(), token)
	if err != nil {
		writeUnauthorized(w, msgInvalidCredentials)

		return
	}

	writeJSON(w, http.StatusOK, toUserPayload(user))
}

// handleLogout is a client-side token discard; no server state changes.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": msgLoggedOut})
}

// requireBearer rejects requests without a valid bearer token.
func (s *Server) requireBearer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeUnauthorized(w, msgMissingBearerToken)

			return
		}

		_, err := s.authService.VerifyToken(token)
		if err != nil {
			writeUnauthorized(w, msgInvalidCredentials)

			return
		}

		next(w, r)
	}
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get(headerAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}

	return strings.TrimPrefix(header, bearerPrefix)
}

// writeAuthError maps auth failures to status codes: policy violations and
// taken usernames are client errors, credential failures are 401, and
// anything else is a 500.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUsernameLength),
		errors.Is(err, auth.ErrPasswordLength),
		errors.Is(err, core.ErrUsernameTaken):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrAccountDisabled):
		writeUnauthorized(w, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func toUserPayload(user core.User) userPayload {
	payload := userPayload{
		ID:          user.ID,
		Username:    user.Username,
		CreatedAt:   user.CreatedAt.Format(timeFormat),
		LastLoginAt: nil,
		IsActive:    user.IsActive,
	}

	if user.LastLoginAt != nil {
		lastLogin := user.LastLoginAt.Format(timeFormat)
		payload.LastLoginAt = &lastLogin
	}

	return payload
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set(headerWWWAuthenticate, bearerChallenge)
	writeError(w, http.StatusUnauthorized, detail)
}
