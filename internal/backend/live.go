package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// liveMessage is the envelope pushed over the live websocket. Only the type
// matters to the connector; anything that is not a pong wakes the scheduler.
type liveMessage struct {
	Type string `json:"type"`
}

// LiveChannel subscribes to the backend's per-session websocket and emits a
// nudge whenever the backend pushes an update. It is purely an accelerator
// for the poll loop: the scheduler stays authoritative, a nudge only brings
// the next poll forward. Dropped nudges are harmless.
type LiveChannel struct {
	baseURL   string
	sessionID string
	log       zerolog.Logger
	Nudges    chan struct{}
}

// NewLiveChannel prepares a subscriber for the given session.
func NewLiveChannel(baseURL, sessionID string, log zerolog.Logger) *LiveChannel {
	return &LiveChannel{
		baseURL:   baseURL,
		sessionID: sessionID,
		Nudges:    make(chan struct{}, 1),
		log:       log,
	}
}

func (l *LiveChannel) wsURL() (string, error) {
	u, err := url.Parse(l.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/trading/live/" + l.sessionID
	return u.String(), nil
}

// Run consumes the websocket until the context is canceled, reconnecting
// with capped multiplicative backoff.
func (l *LiveChannel) Run(ctx context.Context) error {
	target, err := l.wsURL()
	if err != nil {
		return err
	}

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := l.consume(ctx, target); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.log.Warn().Err(err).Msg("live channel disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (l *LiveChannel) consume(ctx context.Context, target string) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	l.log.Info().Str("session_id", l.sessionID).Msg("live channel connected")

	conn.SetReadLimit(1 << 20)
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(20 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = conn.WriteJSON(map[string]string{"type": "ping"})
			case <-done:
				return
			case <-ctx.Done():
				_ = conn.Close()
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		var msg liveMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "pong" {
			continue
		}
		select {
		case l.Nudges <- struct{}{}:
		default:
		}
	}
}
