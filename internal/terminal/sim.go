package terminal

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const epsilon = 1e-9

// Sim is an in-memory terminal used by tests and dry runs. Positions keep
// insertion order, so the oldest position of a symbol is enumerated first,
// matching how the real terminal lists tickets.
type Sim struct {
	mu         sync.Mutex
	account    Account
	symbols    map[string]SymbolInfo
	positions  []Position
	nextTicket int64
	now        func() time.Time
}

// NewSim constructs a simulator with the given account snapshot and symbols.
func NewSim(account Account, symbols []SymbolInfo) *Sim {
	bySymbol := make(map[string]SymbolInfo, len(symbols))
	for _, s := range symbols {
		bySymbol[s.Name] = s
	}
	if account.Equity == 0 {
		account.Equity = account.Balance
	}
	account.MarginFree = account.Equity - account.Margin
	return &Sim{
		account:    account,
		symbols:    bySymbol,
		nextTicket: 1000,
		now:        time.Now,
	}
}

// SetClock injects a deterministic clock for tests.
func (s *Sim) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Account returns the current account snapshot, marked to market.
func (s *Sim) Account() Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markedAccount()
}

func (s *Sim) markedAccount() Account {
	acct := s.account
	var floating float64
	for _, p := range s.positions {
		floating += p.Profit
	}
	acct.Profit = floating
	acct.Equity = acct.Balance + floating
	acct.MarginFree = acct.Equity - acct.Margin
	if acct.Margin > epsilon {
		acct.MarginLevel = acct.Equity / acct.Margin * 100
	}
	return acct
}

// Positions returns a copy of all open positions in open order.
func (s *Sim) Positions() []Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Position, len(s.positions))
	copy(out, s.positions)
	return out
}

// Symbol reports the symbol spec when the symbol is tradable here.
func (s *Sim) Symbol(name string) (SymbolInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.symbols[name]
	return info, ok
}

// SetPrice moves the market for a symbol and re-marks open positions.
func (s *Sim) SetPrice(symbol string, bid, ask float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.symbols[symbol]
	if !ok {
		return
	}
	info.Bid = bid
	info.Ask = ask
	s.symbols[symbol] = info

	for i := range s.positions {
		p := &s.positions[i]
		if p.Symbol != symbol {
			continue
		}
		switch p.Type {
		case Buy:
			p.CurrentPrice = bid
			p.Profit = (bid - p.OpenPrice) / info.TickSize * info.TickValue * p.Volume
		case Sell:
			p.CurrentPrice = ask
			p.Profit = (p.OpenPrice - ask) / info.TickSize * info.TickValue * p.Volume
		}
	}
}

// OpenOrder opens a market position at the current ask (buy) or bid (sell).
func (s *Sim) OpenOrder(req OrderRequest) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.symbols[req.Symbol]
	if !ok {
		return 0, fmt.Errorf("symbol %s not found", req.Symbol)
	}
	if req.Volume < info.MinVolume-epsilon || req.Volume > info.MaxVolume+epsilon {
		return 0, fmt.Errorf("invalid volume %.2f for %s", req.Volume, req.Symbol)
	}
	if req.Type != Buy && req.Type != Sell {
		return 0, errors.New("unknown order type")
	}

	price := info.Ask
	current := info.Bid
	if req.Type == Sell {
		price = info.Bid
		current = info.Ask
	}

	s.nextTicket++
	pos := Position{
		Ticket:       s.nextTicket,
		Symbol:       req.Symbol,
		Type:         req.Type,
		Volume:       req.Volume,
		OpenPrice:    price,
		CurrentPrice: current,
		SL:           req.SL,
		TP:           req.TP,
		OpenTime:     s.now().UTC(),
	}
	s.positions = append(s.positions, pos)
	return pos.Ticket, nil
}

// ClosePosition realizes the position's profit into the balance and removes it.
func (s *Sim) ClosePosition(ticket int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.positions {
		if p.Ticket != ticket {
			continue
		}
		// Swap and commission are stored signed, as the terminal reports them.
		s.account.Balance += p.Profit + p.Swap + p.Commission
		s.positions = append(s.positions[:i], s.positions[i+1:]...)
		return nil
	}
	return fmt.Errorf("position %d not found", ticket)
}
