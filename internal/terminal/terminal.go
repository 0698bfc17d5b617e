// Package terminal abstracts the local trading capability the connector runs
// inside. The real terminal owns order matching, market data, and margin; the
// connector only reads state and submits orders through this interface.
package terminal

import "time"

// PositionType enumerates position directions.
type PositionType string

const (
	Buy  PositionType = "BUY"
	Sell PositionType = "SELL"
)

// Account is the terminal's view of the trading account.
type Account struct {
	Number      string
	Broker      string
	Server      string
	Currency    string
	Balance     float64
	Equity      float64
	Margin      float64
	MarginFree  float64
	MarginLevel float64
	Profit      float64
}

// Position is a currently open trade. Ticket is the terminal-assigned
// unique identifier; the terminal is authoritative for all fields.
type Position struct {
	Ticket       int64
	Symbol       string
	Type         PositionType
	Volume       float64
	OpenPrice    float64
	CurrentPrice float64
	SL           float64
	TP           float64
	Profit       float64
	Swap         float64
	Commission   float64
	OpenTime     time.Time
}

// SymbolInfo carries the tradable-symbol properties sizing depends on.
type SymbolInfo struct {
	Name       string
	Ask        float64
	Bid        float64
	TickSize   float64
	TickValue  float64
	MinVolume  float64
	MaxVolume  float64
	VolumeStep float64
}

// OrderRequest asks the terminal to open a market position.
type OrderRequest struct {
	Symbol  string
	Type    PositionType
	Volume  float64
	SL      float64
	TP      float64
	Comment string
}

// Terminal is the trading capability surface the connector calls into.
type Terminal interface {
	Account() Account
	Positions() []Position
	Symbol(name string) (SymbolInfo, bool)
	OpenOrder(req OrderRequest) (int64, error)
	ClosePosition(ticket int64) error
}
