// Package connector holds the session/execution engine that bridges the
// local terminal to the signal backend: connection lifecycle, periodic state
// reporting, and risk-sized signal execution, all driven by a single
// cooperative tick loop.
package connector

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pivori-app/rubi-studio/internal/backend"
	"github.com/pivori-app/rubi-studio/internal/config"
	"github.com/pivori-app/rubi-studio/internal/journal"
	"github.com/pivori-app/rubi-studio/internal/risk"
	"github.com/pivori-app/rubi-studio/internal/terminal"
)

// API is the backend surface the connector needs. *backend.Client satisfies
// it; tests inject fakes.
type API interface {
	Connect(ctx context.Context, req backend.ConnectRequest) (*backend.ConnectResponse, int, error)
	Ping(ctx context.Context, req backend.PingRequest) (int, error)
	UpdatePositions(ctx context.Context, req backend.PositionsUpdateRequest) (int, error)
	PendingSignals(ctx context.Context, sessionID string) ([]backend.Signal, int, error)
	UpdateSignalStatus(ctx context.Context, req backend.SignalStatusUpdate) (int, error)
	UpdateAccount(ctx context.Context, req backend.AccountInfoUpdate) (int, error)
	Disconnect(ctx context.Context, req backend.DisconnectRequest) (int, error)
}

// Stats are the process-lifetime counters reported at disconnect. They only
// reset when the connector process restarts.
type Stats struct {
	SignalsSent     int64
	SignalsReceived int64
	OrdersExecuted  int64
	Errors          int64
}

// Connector owns all mutable connector state: the single live session, the
// counters, and the per-task last-fired timestamps. Everything is mutated by
// exactly one control thread (the tick loop), so no locking is needed.
type Connector struct {
	cfg     *config.Config
	api     API
	term    terminal.Terminal
	journal *journal.Store
	limits  risk.Limits
	log     zerolog.Logger

	sessionID     string
	stats         Stats
	lastTick      time.Time
	lastHeartbeat time.Time
	lastAccount   time.Time

	now func() time.Time

	// OnSessionChange, when set, is invoked from the control thread with the
	// new session id after every successful connect.
	OnSessionChange func(sessionID string)
}

// New wires a connector from its collaborators.
func New(cfg *config.Config, api API, term terminal.Terminal, store *journal.Store, log zerolog.Logger) *Connector {
	return &Connector{
		cfg:     cfg,
		api:     api,
		term:    term,
		journal: store,
		limits: risk.Limits{
			RiskPercent:      cfg.Trading.MaxRiskPercent,
			MaxOpenPositions: cfg.Trading.MaxOpenPositions,
		},
		log: log,
		now: time.Now,
	}
}

// SetClock injects a deterministic clock for tests.
func (c *Connector) SetClock(now func() time.Time) { c.now = now }

// SessionID returns the current session token, empty when disconnected.
// Only call from the control thread.
func (c *Connector) SessionID() string { return c.sessionID }

// Snapshot returns a copy of the lifetime counters.
func (c *Connector) Snapshot() Stats { return c.stats }

// OnTick is the cooperative scheduler entry point, re-entered on each
// external timing event. If less than CheckInterval has elapsed since the
// last processed tick it does nothing. Otherwise it runs the due tasks in a
// fixed order: heartbeat first, so a replaced session id is in place before
// any data push that needs it.
func (c *Connector) OnTick(now time.Time) {
	if !c.lastTick.IsZero() && now.Sub(c.lastTick) < c.cfg.CheckInterval() {
		return
	}
	c.lastTick = now

	// Per-request timeouts live in the HTTP client; the cycle itself runs to
	// completion. A slow backend delays the next action but never leaves a
	// cycle half-applied.
	ctx := context.Background()

	if c.sessionID == "" {
		if !c.connect(ctx, now) {
			return
		}
	} else if now.Sub(c.lastHeartbeat) >= c.cfg.HeartbeatInterval() {
		c.heartbeat(ctx, now)
	}
	if c.sessionID == "" {
		return
	}

	c.reportPositions(ctx, now)

	if c.cfg.Trading.AutoTrading && !c.cfg.Trading.SignalsOnly {
		c.pollAndExecute(ctx, now)
	}

	if now.Sub(c.lastAccount) >= c.cfg.AccountInterval() {
		c.reportAccount(ctx, now)
	}
}

// ForceTick bypasses the debounce, used when the live channel signals that
// the backend has something for us.
func (c *Connector) ForceTick() {
	c.lastTick = time.Time{}
	c.OnTick(c.now())
}

// Run drives OnTick from the tick channel until the context is canceled,
// then attempts a best-effort disconnect. nudges may be nil.
func (c *Connector) Run(ctx context.Context, ticks <-chan time.Time, nudges <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			c.Shutdown()
			return ctx.Err()
		case now := <-ticks:
			c.OnTick(now)
		case <-nudges:
			c.ForceTick()
		}
	}
}

// Shutdown notifies the backend that the session is ending, reporting the
// lifetime counters. Best effort: failures are logged and swallowed.
func (c *Connector) Shutdown() {
	if c.sessionID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout())
	defer cancel()
	c.disconnect(ctx, c.now())
}

func (c *Connector) timestamp(now time.Time) string {
	return now.UTC().Format(time.RFC3339)
}
