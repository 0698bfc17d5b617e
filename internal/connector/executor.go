package connector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pivori-app/rubi-studio/internal/backend"
	"github.com/pivori-app/rubi-studio/internal/journal"
	"github.com/pivori-app/rubi-studio/internal/metrics"
	"github.com/pivori-app/rubi-studio/internal/risk"
	"github.com/pivori-app/rubi-studio/internal/terminal"
)

// pollAndExecute fetches the pending signal set and processes each signal
// exactly once. Outcomes are terminal per signal: a rejection is never
// retried locally, redelivery policy belongs to the backend.
func (c *Connector) pollAndExecute(ctx context.Context, now time.Time) {
	signals, status, err := c.api.PendingSignals(ctx, c.sessionID)
	if err != nil || status != http.StatusOK {
		c.stats.Errors++
		c.log.Warn().Err(err).Int("status", status).Msg("pending signal fetch failed")
		return
	}
	if len(signals) == 0 {
		return
	}
	c.stats.SignalsReceived += int64(len(signals))
	metrics.SignalsReceived.Add(float64(len(signals)))

	for _, sig := range signals {
		c.processSignal(ctx, sig, now)
	}
}

// processSignal runs the per-signal state machine: FETCHED -> EXECUTED or
// REJECTED. A signal already journaled is never executed again; if its
// earlier status report did not get through, only the report is resent.
func (c *Connector) processSignal(ctx context.Context, sig backend.Signal, now time.Time) {
	if prior, ok, err := c.journal.Get(sig.ID); err != nil {
		c.stats.Errors++
		c.log.Error().Err(err).Int64("signal_id", sig.ID).Msg("journal lookup failed, skipping signal")
		return
	} else if ok {
		if !prior.Delivered {
			c.reportOutcome(ctx, prior, now)
		}
		return
	}

	var outcome journal.Outcome
	switch sig.SignalType {
	case backend.SignalBuy, backend.SignalSell:
		outcome = c.executeOpen(sig)
	case backend.SignalCloseBuy, backend.SignalCloseSell:
		outcome = c.executeClose(sig)
	default:
		outcome = rejected(sig.ID, fmt.Sprintf("unknown signal type %q", sig.SignalType))
	}
	outcome.ReportedAt = now

	// Journal before reporting: if the process dies between order and report,
	// the order must not run twice.
	if err := c.journal.Record(outcome); err != nil {
		c.stats.Errors++
		c.log.Error().Err(err).Int64("signal_id", sig.ID).Msg("journal write failed")
	}
	c.reportOutcome(ctx, outcome, now)
}

// executeOpen sizes and submits a market order for a BUY/SELL signal.
func (c *Connector) executeOpen(sig backend.Signal) journal.Outcome {
	if !c.limits.AllowNewPosition(len(c.term.Positions())) {
		return rejected(sig.ID, "max positions reached")
	}

	spec, ok := c.term.Symbol(sig.Symbol)
	if !ok {
		return rejected(sig.ID, fmt.Sprintf("symbol %s not found", sig.Symbol))
	}

	volume := sig.Volume
	if sig.StopLoss > 0 {
		volume = c.limits.Size(c.term.Account().Balance, spec.Ask, sig.StopLoss, sig.Volume, spec)
		if volume <= 0 {
			return rejected(sig.ID, "invalid stop loss")
		}
	} else {
		volume = risk.Normalize(volume, spec)
	}

	side := terminal.Buy
	if sig.SignalType == backend.SignalSell {
		side = terminal.Sell
	}
	ticket, err := c.term.OpenOrder(terminal.OrderRequest{
		Symbol:  sig.Symbol,
		Type:    side,
		Volume:  volume,
		SL:      sig.StopLoss,
		TP:      sig.TakeProfit,
		Comment: fmt.Sprintf("signal %d", sig.ID),
	})
	if err != nil {
		return rejected(sig.ID, err.Error())
	}

	c.stats.OrdersExecuted++
	metrics.OrdersExecuted.WithLabelValues(sig.Symbol, string(side)).Inc()
	c.log.Info().Int64("signal_id", sig.ID).Str("symbol", sig.Symbol).Str("side", string(side)).
		Float64("volume", volume).Int64("ticket", ticket).Msg("order executed")

	return journal.Outcome{
		SignalID: sig.ID,
		Status:   string(backend.StatusExecuted),
		Message:  fmt.Sprintf("order executed, ticket %d", ticket),
		Ticket:   ticket,
	}
}

// executeClose closes the oldest open position on the signal's symbol whose
// direction matches the close type (CLOSE_BUY closes a BUY, CLOSE_SELL a SELL).
func (c *Connector) executeClose(sig backend.Signal) journal.Outcome {
	want := terminal.Buy
	if sig.SignalType == backend.SignalCloseSell {
		want = terminal.Sell
	}

	for _, pos := range c.term.Positions() {
		if pos.Symbol != sig.Symbol || pos.Type != want {
			continue
		}
		if err := c.term.ClosePosition(pos.Ticket); err != nil {
			return rejected(sig.ID, err.Error())
		}
		c.stats.OrdersExecuted++
		metrics.OrdersExecuted.WithLabelValues(sig.Symbol, "CLOSE").Inc()
		c.log.Info().Int64("signal_id", sig.ID).Str("symbol", sig.Symbol).
			Int64("ticket", pos.Ticket).Msg("position closed")
		return journal.Outcome{
			SignalID: sig.ID,
			Status:   string(backend.StatusExecuted),
			Message:  fmt.Sprintf("position closed, ticket %d", pos.Ticket),
			Ticket:   pos.Ticket,
		}
	}
	return rejected(sig.ID, fmt.Sprintf("no open %s position for %s", want, sig.Symbol))
}

// reportOutcome sends the status report and marks it delivered on success.
func (c *Connector) reportOutcome(ctx context.Context, o journal.Outcome, now time.Time) {
	status, err := c.api.UpdateSignalStatus(ctx, backend.SignalStatusUpdate{
		SignalID:  o.SignalID,
		Status:    backend.SignalStatus(o.Status),
		Message:   o.Message,
		Timestamp: c.timestamp(now),
	})
	if err != nil || status != http.StatusOK {
		c.stats.Errors++
		c.log.Warn().Err(err).Int("status", status).Int64("signal_id", o.SignalID).
			Msg("signal status report failed, will resend")
		return
	}
	c.stats.SignalsSent++
	metrics.SignalsReported.WithLabelValues(o.Status).Inc()
	if err := c.journal.MarkDelivered(o.SignalID); err != nil {
		c.log.Error().Err(err).Int64("signal_id", o.SignalID).Msg("journal delivery mark failed")
	}
}

func rejected(signalID int64, reason string) journal.Outcome {
	return journal.Outcome{
		SignalID: signalID,
		Status:   string(backend.StatusRejected),
		Message:  reason,
	}
}
