// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the Queryosity backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend client.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches any ClientError of the same type, so callers can compare
// against the sentinels below with errors.Is.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeCanceled
	ErrTypeInvalidRequest
	ErrTypeInvalidResponse
	ErrTypeLoginFailed
)

// Sentinel errors for easy checking.
var (
	ErrConnection      = &ClientError{Type: ErrTypeConnection, Message: "backend is unreachable"}
	ErrTimeout         = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrCanceled        = &ClientError{Type: ErrTypeCanceled, Message: "request canceled"}
	ErrInvalidRequest  = &ClientError{Type: ErrTypeInvalidRequest, Message: "invalid request"}
	ErrInvalidResponse = &ClientError{Type: ErrTypeInvalidResponse, Message: "invalid response"}
	ErrLoginFailed     = &ClientError{Type: ErrTypeLoginFailed, Message: "login failed"}
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 10 << 20

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// DefaultBaseURL is the backend origin used when none is configured.
const DefaultBaseURL = "http://127.0.0.1:8000"

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend origin (default: http://127.0.0.1:8000)
	BaseURL string

	// Timeout bounds each request. Zero means no timeout; callers cancel
	// through the request context instead.
	Timeout time.Duration

	// RateLimit caps requests per second. Zero disables limiting.
	RateLimit float64

	// UserAgent is sent with every request (default: "queryosity-tui")
	UserAgent string

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client

	// Logger receives debug request logs (default: slog.Default())
	Logger *slog.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   DefaultBaseURL,
		UserAgent: "queryosity-tui",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the Queryosity backend. It holds no session state: every
// authenticated call takes the bearer token explicitly.
//
// The Client is safe for concurrent use.
//
// Example:
//
//	client := api.NewClient()
//	login, err := client.Login(ctx, "alice", "secret")
//	if err != nil {
//	    return err
//	}
//	resp, err := client.PostQuery(ctx, "What is in my document?", "alice", login.AccessToken)
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a new client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.UserAgent == "" {
		config.UserAgent = "queryosity-tui"
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
	}
	if config.RateLimit > 0 {
		burst := int(config.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}
	return c
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

// Register creates an account. The backend's verdict is in the response:
// Msg on success, Detail otherwise. Error is non-nil only when the call
// itself failed.
func (c *Client) Register(ctx context.Context, username, password string) (*RegisterResponse, error) {
	form := newForm().field("username", username).field("password", password)

	var out RegisterResponse
	if _, err := c.call(ctx, http.MethodPost, "/register", "", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a bearer token. Unlike the other calls it
// fails on any non-success status. A success status without a token yields
// a response with an empty AccessToken.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	form := newForm().field("username", username).field("password", password)

	resp, err := c.send(ctx, http.MethodPost, "/login", "", form)
	if err != nil {
		return nil, err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ClientError{
			Type:       ErrTypeLoginFailed,
			Message:    "login rejected: " + resp.Status,
			StatusCode: resp.StatusCode,
		}
	}

	var out LoginResponse
	if err := decodeBody(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// FILES
// =============================================================================

// ListFiles returns the caller's uploaded documents.
func (c *Client) ListFiles(ctx context.Context, token string) (*FilesResponse, error) {
	var out FilesResponse
	if _, err := c.call(ctx, http.MethodGet, "/files", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadFile sends the file at path as multipart field "file".
func (c *Client) UploadFile(ctx context.Context, path, token string) (*Ack, error) {
	form := newForm().file("file", path)

	var out Ack
	if _, err := c.call(ctx, http.MethodPost, "/upload", token, form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteFile removes a document by its display name.
func (c *Client) DeleteFile(ctx context.Context, name, token string) (*Ack, error) {
	form := newForm().field("file_name", name)

	var out Ack
	if _, err := c.call(ctx, http.MethodPost, "/delete", token, form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// CHAT
// =============================================================================

// PostQuery asks a question about the caller's documents.
func (c *Client) PostQuery(ctx context.Context, question, userID, token string) (*QueryResponse, error) {
	form := newForm().field("question", question).field("user_id", userID)

	var out QueryResponse
	if _, err := c.call(ctx, http.MethodPost, "/chat", token, form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearHistory drops the server-side conversation memory for userID.
func (c *Client) ClearHistory(ctx context.Context, userID, token string) (*Ack, error) {
	form := newForm().field("user_id", userID)

	var out Ack
	if _, err := c.call(ctx, http.MethodPost, "/clear", token, form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// call sends a request and decodes the body into out regardless of status.
func (c *Client) call(ctx context.Context, method, path, token string, form *formBody, out any) (int, error) {
	resp, err := c.send(ctx, method, path, token, form)
	if err != nil {
		return 0, err
	}
	defer drainAndClose(resp.Body)

	if err := decodeBody(resp, out); err != nil {
		return resp.StatusCode, err
	}
	return resp.StatusCode, nil
}

func (c *Client) send(ctx context.Context, method, path, token string, form *formBody) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, transportError(err)
		}
	}

	var body io.Reader
	contentType := ""
	if form != nil {
		buf, ct, err := form.encode()
		if err != nil {
			return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to build form", Cause: err}
		}
		body = buf
		contentType = ct
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to create request", Cause: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			"method", method, "path", path, "request_id", requestID, "error", err)
		return nil, transportError(err)
	}
	c.logger.Debug("request complete",
		"method", method, "path", path, "request_id", requestID,
		"status", resp.StatusCode, "duration", time.Since(start))
	return resp, nil
}

func transportError(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return &ClientError{Type: ErrTypeCanceled, Message: "request canceled", Cause: err}
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	default:
		return &ClientError{Type: ErrTypeConnection, Message: "backend is unreachable", Cause: err}
	}
}

func decodeBody(resp *http.Response, out any) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return transportError(err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &ClientError{
			Type:       ErrTypeInvalidResponse,
			Message:    "empty response body (" + resp.Status + ")",
			StatusCode: resp.StatusCode,
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ClientError{
			Type:       ErrTypeInvalidResponse,
			Message:    "failed to decode response (" + resp.Status + ")",
			StatusCode: resp.StatusCode,
			Cause:      err,
		}
	}
	return nil
}

// =============================================================================
// MULTIPART FORMS
// =============================================================================

type formField struct {
	name, value string
	isFile      bool
}

// formBody collects multipart fields in order.
type formBody struct {
	fields []formField
}

func newForm() *formBody {
	return &formBody{}
}

func (f *formBody) field(name, value string) *formBody {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

func (f *formBody) file(name, path string) *formBody {
	f.fields = append(f.fields, formField{name: name, value: path, isFile: true})
	return f
}

func (f *formBody) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, fld := range f.fields {
		if !fld.isFile {
			if err := w.WriteField(fld.name, fld.value); err != nil {
				return nil, "", err
			}
			continue
		}
		if err := copyFile(w, fld.name, fld.value); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func copyFile(w *multipart.Writer, field, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCanceled checks if an error came from a cancelled request context.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// IsConnection checks if an error means the backend could not be reached.
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsLoginFailed checks if the backend rejected a login.
func IsLoginFailed(err error) bool {
	return errors.Is(err, ErrLoginFailed)
}

// IsInvalidResponse checks if a response body could not be decoded.
func IsInvalidResponse(err error) bool {
	return errors.Is(err, ErrInvalidResponse)
}

// Helper to drain response body
func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
