// Package backend implements the HTTP client for the Rubi Studio trading API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pivori-app/rubi-studio/internal/metrics"
)

// StatusTransportError is the sentinel status returned when no HTTP response
// was received at all (DNS failure, timeout, refused connection). It is never
// a valid HTTP code, so callers can treat it like any non-2xx while logging
// it with more detail.
const StatusTransportError = -1

// ErrHostNotAllowed marks a name-resolution failure for the backend host.
// In the hosting environment this almost always means the host is missing
// from the terminal's allowed-URL list; it needs operator action, not a retry.
var ErrHostNotAllowed = errors.New("backend host not resolvable (check the terminal's allowed URL list)")

// Client issues authenticated JSON requests against a fixed base URL with a
// bounded timeout. All methods are synchronous and safe to call from the
// single connector control thread.
type Client struct {
	baseURL string
	token   string
	agent   string
	http    *http.Client
	log     zerolog.Logger
}

// New builds a client. The version string ends up in the User-Agent so the
// backend can tell connector builds apart.
func New(baseURL, token string, timeout time.Duration, version string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		agent:   "mt5bridge-go/" + version,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// do sends one request and decodes the response into out when it is non-nil.
// The returned status is StatusTransportError when no response was received.
// A 2xx status with an unparsable body is reported as an error so callers
// keep their last-known-good state.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return StatusTransportError, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return StatusTransportError, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", c.agent)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("transport").Inc()
		return StatusTransportError, c.classifyTransport(path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.Errors.WithLabelValues("http").Inc()
		return resp.StatusCode, fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			metrics.Errors.WithLabelValues("decode").Inc()
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// classifyTransport separates the operator-actionable host case from
// ordinary transient connectivity failures.
func (c *Client) classifyTransport(path string, err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		c.log.Error().Str("path", path).Str("host", dnsErr.Name).
			Msg("backend host not resolvable; add it to the terminal's allowed URL list")
		return fmt.Errorf("%w: %v", ErrHostNotAllowed, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("request timed out: %w", err)
	}
	return fmt.Errorf("transport failure: %w", err)
}

// IsTransportError reports whether the status came from a failure below HTTP.
func IsTransportError(status int) bool { return status == StatusTransportError }

// IsHostNotAllowed reports whether the error is the allow-list configuration case.
func IsHostNotAllowed(err error) bool { return errors.Is(err, ErrHostNotAllowed) }

// Connect opens a session from an account snapshot. The session is usable
// only when the returned response carries a non-empty session id.
func (c *Client) Connect(ctx context.Context, req ConnectRequest) (*ConnectResponse, int, error) {
	var resp ConnectResponse
	status, err := c.do(ctx, http.MethodPost, "/api/v1/mt5/connect", req, &resp)
	if err != nil {
		return nil, status, err
	}
	if resp.SessionID == "" {
		return nil, status, fmt.Errorf("connect response missing session_id")
	}
	return &resp, status, nil
}

// Ping confirms liveness; only HTTP 200 counts as alive.
func (c *Client) Ping(ctx context.Context, req PingRequest) (int, error) {
	return c.do(ctx, http.MethodPost, "/api/v1/mt5/ping", req, nil)
}

// UpdatePositions pushes the full open-position snapshot.
func (c *Client) UpdatePositions(ctx context.Context, req PositionsUpdateRequest) (int, error) {
	return c.do(ctx, http.MethodPost, "/api/v1/trading/positions/update", req, nil)
}

// PendingSignals fetches the current pending set for the session.
func (c *Client) PendingSignals(ctx context.Context, sessionID string) ([]Signal, int, error) {
	var resp PendingSignalsResponse
	path := "/api/v1/trading/signals/pending?session_id=" + url.QueryEscape(sessionID)
	status, err := c.do(ctx, http.MethodGet, path, nil, &resp)
	if err != nil {
		return nil, status, err
	}
	return resp.Signals, status, nil
}

// UpdateSignalStatus reports a signal's terminal state.
func (c *Client) UpdateSignalStatus(ctx context.Context, req SignalStatusUpdate) (int, error) {
	path := fmt.Sprintf("/api/v1/trading/signals/%d/status", req.SignalID)
	return c.do(ctx, http.MethodPost, path, req, nil)
}

// UpdateAccount pushes the account metrics block.
func (c *Client) UpdateAccount(ctx context.Context, req AccountInfoUpdate) (int, error) {
	return c.do(ctx, http.MethodPost, "/api/v1/mt5/account/update", req, nil)
}

// Disconnect tears the session down. Best effort: any status is accepted by
// the caller and failures are only logged.
func (c *Client) Disconnect(ctx context.Context, req DisconnectRequest) (int, error) {
	return c.do(ctx, http.MethodPost, "/api/v1/mt5/disconnect", req, nil)
}

// Health probes the backend's health endpoint.
func (c *Client) Health(ctx context.Context) (int, error) {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}
