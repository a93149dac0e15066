// Package api talks to the expense server over its JSON HTTP contract.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// RequestIDHeader carries a per-request id for log correlation.
const RequestIDHeader = "X-Request-ID"

// TokenSource supplies the current bearer token, if one is stored.
type TokenSource interface {
	Token() (string, bool)
}

// Gateway performs single-attempt requests against the server.
type Gateway struct {
	httpClient *http.Client
	tokens     TokenSource
	baseURL    string
	userAgent  string
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) GatewayOption {
	return func(g *Gateway) {
		g.httpClient = c
	}
}

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.httpClient.Timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) GatewayOption {
	return func(g *Gateway) {
		g.userAgent = ua
	}
}

// NewGateway creates a gateway for baseURL. tokens may be nil for anonymous use.
func NewGateway(baseURL string, tokens TokenSource, opts ...GatewayOption) (*Gateway, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	g := &Gateway{
		baseURL:    baseURL,
		tokens:     tokens,
		userAgent:  "splitflow",
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// BaseURL returns the server root the gateway targets.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// Do sends body as JSON and decodes a 2xx JSON response into out.
// out may be nil when the response body is irrelevant.
func (g *Gateway) Do(ctx context.Context, method, path string, body, out any) error {
	data, _, err := g.roundTrip(ctx, method, path, body)
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{
			Kind:    KindServer,
			Method:  method,
			Path:    path,
			Message: "malformed response body",
			Err:     err,
		}
	}
	return nil
}

// Raw performs a GET and returns the undecoded body and its content type.
func (g *Gateway) Raw(ctx context.Context, path string) ([]byte, string, error) {
	return g.roundTrip(ctx, http.MethodGet, path, nil)
}

func (g *Gateway) roundTrip(ctx context.Context, method, path string, body any) ([]byte, string, error) {
	req, err := g.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, "", err
	}

	requestID := req.Header.Get(RequestIDHeader)
	start := time.Now()

	resp, err := g.httpClient.Do(req)
	if err != nil {
		slog.Debug("Request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, "", &Error{Kind: KindNetwork, Method: method, Path: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &Error{Kind: KindNetwork, Method: method, Path: path, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	slog.Debug("Request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", statusError(method, path, resp.StatusCode, data)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (g *Gateway) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set(RequestIDHeader, uuid.NewString())

	if g.tokens != nil {
		if token, ok := g.tokens.Token(); ok {
			(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
		}
	}
	return req, nil
}

// statusError builds the error for a non-2xx response. An unparsable body
// leaves the payload empty rather than failing differently.
func statusError(method, path string, status int, body []byte) *Error {
	payload := map[string]any{}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			payload = map[string]any{}
		}
	}

	message, _ := payload["message"].(string)
	if message == "" {
		message, _ = payload["error"].(string)
	}

	return &Error{
		Kind:    KindForStatus(status),
		Status:  status,
		Method:  method,
		Path:    path,
		Message: message,
		Payload: payload,
	}
}
