package connector

import (
	"context"
	"net/http"
	"time"

	"github.com/pivori-app/rubi-studio/internal/backend"
)

// connect establishes a new session from the current account snapshot.
// Returns true when a session id was obtained; failures are non-fatal and
// retried on the next processed tick.
func (c *Connector) connect(ctx context.Context, now time.Time) bool {
	acct := c.term.Account()
	resp, status, err := c.api.Connect(ctx, backend.ConnectRequest{
		AccountNumber: acct.Number,
		Broker:        acct.Broker,
		Server:        acct.Server,
		Balance:       acct.Balance,
		Equity:        acct.Equity,
		Currency:      acct.Currency,
	})
	if err != nil || (status != http.StatusOK && status != http.StatusCreated) {
		c.stats.Errors++
		c.log.Warn().Err(err).Int("status", status).Msg("connect failed")
		return false
	}

	c.sessionID = resp.SessionID
	c.lastHeartbeat = now
	c.log.Info().Str("session_id", resp.SessionID).Str("account", acct.Number).Msg("session established")
	if c.OnSessionChange != nil {
		c.OnSessionChange(resp.SessionID)
	}
	return true
}

// heartbeat confirms liveness. Any non-200 outcome marks the session
// inactive and triggers exactly one reconnect attempt within this cycle;
// further retries wait for the next tick.
func (c *Connector) heartbeat(ctx context.Context, now time.Time) {
	acct := c.term.Account()
	status, err := c.api.Ping(ctx, backend.PingRequest{
		SessionID:  c.sessionID,
		Timestamp:  c.timestamp(now),
		Balance:    acct.Balance,
		Equity:     acct.Equity,
		MarginFree: acct.MarginFree,
	})
	if err == nil && status == http.StatusOK {
		c.lastHeartbeat = now
		return
	}

	c.stats.Errors++
	c.log.Warn().Err(err).Int("status", status).Str("session_id", c.sessionID).
		Msg("heartbeat failed, reconnecting")
	c.sessionID = ""
	c.connect(ctx, now)
}

// disconnect posts the final teardown with lifetime counters. Any response
// status is accepted.
func (c *Connector) disconnect(ctx context.Context, now time.Time) {
	_, err := c.api.Disconnect(ctx, backend.DisconnectRequest{
		SessionID:            c.sessionID,
		Timestamp:            c.timestamp(now),
		TotalSignalsSent:     c.stats.SignalsSent,
		TotalSignalsReceived: c.stats.SignalsReceived,
		TotalOrdersExecuted:  c.stats.OrdersExecuted,
		TotalErrors:          c.stats.Errors,
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("disconnect notification failed")
	} else {
		c.log.Info().Str("session_id", c.sessionID).
			Int64("signals_received", c.stats.SignalsReceived).
			Int64("orders_executed", c.stats.OrdersExecuted).
			Int64("errors", c.stats.Errors).
			Msg("session closed")
	}
	c.sessionID = ""
}
