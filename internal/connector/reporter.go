package connector

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/pivori-app/rubi-studio/internal/backend"
	"github.com/pivori-app/rubi-studio/internal/metrics"
	"github.com/pivori-app/rubi-studio/internal/terminal"
)

// reportPositions pushes a full snapshot of all open positions. With zero
// positions no request is sent. Failures are counted and skipped: the next
// cycle resends the complete snapshot, so a missed update self-heals.
func (c *Connector) reportPositions(ctx context.Context, now time.Time) {
	positions := c.term.Positions()
	if len(positions) == 0 {
		return
	}

	payload := make([]backend.Position, 0, len(positions))
	for _, p := range positions {
		payload = append(payload, wirePosition(p))
	}

	status, err := c.api.UpdatePositions(ctx, backend.PositionsUpdateRequest{
		SessionID: c.sessionID,
		Timestamp: c.timestamp(now),
		Positions: payload,
	})
	if err != nil || (status != http.StatusOK && status != http.StatusCreated) {
		c.stats.Errors++
		c.log.Warn().Err(err).Int("status", status).Msg("position report failed")
		return
	}
	metrics.ReportsSent.WithLabelValues("positions").Inc()
	c.log.Debug().Int("count", len(payload)).Msg("positions reported")
}

// reportAccount pushes the account metrics block on its own cadence.
func (c *Connector) reportAccount(ctx context.Context, now time.Time) {
	acct := c.term.Account()
	status, err := c.api.UpdateAccount(ctx, backend.AccountInfoUpdate{
		SessionID:   c.sessionID,
		Balance:     acct.Balance,
		Equity:      acct.Equity,
		Margin:      acct.Margin,
		MarginFree:  acct.MarginFree,
		MarginLevel: acct.MarginLevel,
		Profit:      acct.Profit,
	})
	if err != nil || status != http.StatusOK {
		c.stats.Errors++
		c.log.Warn().Err(err).Int("status", status).Msg("account report failed")
		return
	}
	c.lastAccount = now
	metrics.ReportsSent.WithLabelValues("account").Inc()
}

func wirePosition(p terminal.Position) backend.Position {
	return backend.Position{
		Ticket:       strconv.FormatInt(p.Ticket, 10),
		Symbol:       p.Symbol,
		Type:         string(p.Type),
		Volume:       p.Volume,
		OpenPrice:    p.OpenPrice,
		CurrentPrice: p.CurrentPrice,
		SL:           p.SL,
		TP:           p.TP,
		Profit:       p.Profit,
		Swap:         p.Swap,
		Commission:   p.Commission,
		OpenTime:     p.OpenTime.UTC().Format(time.RFC3339),
	}
}
